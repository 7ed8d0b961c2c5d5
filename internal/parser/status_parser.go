package parser

import (
	"fmt"
	"strings"

	"github.com/balkashynov/taskdash/internal/models"
)

// statusAliases maps accepted spellings onto API status values
var statusAliases = map[string]models.Status{
	"pending":     models.StatusPending,
	"todo":        models.StatusPending,
	"open":        models.StatusPending,
	"in_progress": models.StatusInProgress,
	"in-progress": models.StatusInProgress,
	"inprogress":  models.StatusInProgress,
	"progress":    models.StatusInProgress,
	"wip":         models.StatusInProgress,
	"doing":       models.StatusInProgress,
	"done":        models.StatusDone,
	"complete":    models.StatusDone,
	"completed":   models.StatusDone,
	"finished":    models.StatusDone,
}

// IsValidStatus checks if a status alias is recognised
func IsValidStatus(status string) bool {
	_, ok := statusAliases[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// ParseStatus converts a user supplied status to its API value.
// Empty input returns "" without error so callers can leave the field unset.
func ParseStatus(status string) (models.Status, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "", nil
	}
	s, ok := statusAliases[status]
	if !ok {
		return "", fmt.Errorf("invalid status '%s'. Use: pending, in_progress or done", status)
	}
	return s, nil
}

// NextStatus cycles through the selector: unset, pending, in_progress, done, unset...
func NextStatus(current string) string {
	if current == "" {
		return string(models.Statuses[0])
	}
	for i, s := range models.Statuses {
		if string(s) == current {
			if i == len(models.Statuses)-1 {
				return ""
			}
			return string(models.Statuses[i+1])
		}
	}
	return ""
}

// PrevStatus cycles the selector backwards
func PrevStatus(current string) string {
	if current == "" {
		return string(models.Statuses[len(models.Statuses)-1])
	}
	for i, s := range models.Statuses {
		if string(s) == current {
			if i == 0 {
				return ""
			}
			return string(models.Statuses[i-1])
		}
	}
	return ""
}
