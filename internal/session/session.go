// Package session holds the authenticated actor's bearer token.
//
// The token lives in a single cookie slot ("token", path "/") of a Jar.
// A Session is created once per process and passed to everything that needs
// the token; nothing else reads the jar directly.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/balkashynov/taskdash/internal/models"
)

// ErrNoCookie is what a Jar returns for an empty slot
var ErrNoCookie = errors.New("no cookie")

// Jar is the persistent cookie storage behind a Session
type Jar interface {
	Get(name, path string) (string, error)
	Set(name, path, value string) error
	Remove(name, path string) error
}

// Session wraps the token cookie and notifies listeners when it is cleared
type Session struct {
	jar    Jar
	logger *slog.Logger

	mu      sync.Mutex
	onClear []func()
}

// New creates a session over jar
func New(jar Jar, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{jar: jar, logger: logger}
}

// Token returns the current bearer token, or "" when there is none.
// Storage failures are logged and reported as absence.
func (s *Session) Token() string {
	token, err := s.jar.Get(models.SessionCookieName, models.SessionCookiePath)
	if err != nil {
		if !IsNoCookie(err) {
			s.logger.Error("failed to read session cookie", "error", err)
		}
		return ""
	}
	return token
}

// LoggedIn reports whether a token is present
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Save stores token in the cookie slot
func (s *Session) Save(token string) error {
	return s.jar.Set(models.SessionCookieName, models.SessionCookiePath, token)
}

// OnClear registers fn to run after every Clear; this is how views learn
// they must navigate back to the login screen.
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Clear removes the token and runs the OnClear listeners
func (s *Session) Clear() {
	if err := s.jar.Remove(models.SessionCookieName, models.SessionCookiePath); err != nil {
		s.logger.Error("failed to remove session cookie", "error", err)
	}

	s.mu.Lock()
	listeners := append([]func(){}, s.onClear...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// IsNoCookie reports whether err means the slot is empty
func IsNoCookie(err error) bool {
	return errors.Is(err, ErrNoCookie)
}
