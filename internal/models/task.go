package models

import "time"

// Status is the lifecycle state of a task as the API reports it
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists the values offered by the status selector, in display order
var Statuses = []Status{StatusPending, StatusInProgress, StatusDone}

// Label returns the human readable form used by the task card
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Task represents a todo item owned by the server.
// The client copy is a cache and is never authoritative.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Draft holds candidate task fields while a create or edit form is open
type Draft struct {
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
	Status      string `json:"status" validate:"notblank,oneof=pending in_progress done"`
}

// DraftFrom seeds an edit form with the task's current fields
func DraftFrom(t Task) Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
	}
}
