package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuth is returned when the token is missing or rejected (401/403)
	ErrAuth = errors.New("not authenticated")
	// ErrNotFound is returned when the target task does not exist (404)
	ErrNotFound = errors.New("not found")
	// ErrTransport covers network failures, other non-2xx responses and
	// bodies that cannot be decoded
	ErrTransport = errors.New("transport failure")
)

// Error describes a failed task API call.
// Kind is one of ErrAuth, ErrNotFound or ErrTransport.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// kindForStatus maps an HTTP status onto the error taxonomy
func kindForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransport
	}
}

// RejectedError is a login or register attempt the server refused.
// Message is the server text, meant to be shown to the user verbatim.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected with status %d", e.StatusCode)
	}
	return e.Message
}

// IsRejected reports whether err is a refused auth attempt, returning it
func IsRejected(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
