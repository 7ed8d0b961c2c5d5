package controller

// State is where the task list is in its lifecycle
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateMutating
	StateError
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateMutating:
		return "mutating"
	case StateError:
		return "error"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Op names a mutation kind
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// User facing notification texts
const (
	MsgCreated      = "New task has been added successfully."
	MsgUpdated      = "Task has been updated successfully."
	MsgDeleted      = "Task has been deleted successfully."
	MsgCreateFailed = "Failed to add task!"
	MsgUpdateFailed = "Failed to update task!"
	MsgDeleteFailed = "Failed to delete task!"
	MsgLoadFailed   = "Failed to load tasks!"
)
