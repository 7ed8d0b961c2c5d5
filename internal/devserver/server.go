// Package devserver is an in-memory implementation of the task API the
// client talks to. It backs `taskdash serve-dev` and the client tests.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/balkashynov/taskdash/internal/models"
)

type user struct {
	ID           string
	Email        string
	PasswordHash string
}

// Server holds users and their tasks in memory
type Server struct {
	logger *slog.Logger
	tokens *tokenIssuer
	cost   int

	mu    sync.Mutex
	users map[string]*user        // by email
	tasks map[string][]models.Task // by user id, in creation order
	hits  map[string]int           // "METHOD pattern" -> count
	fail  map[string][]int         // route -> queued status codes
	now   func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithBcryptCost sets the password hashing cost; tests use bcrypt.MinCost
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// WithClock replaces time.Now for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates an empty server signing tokens with secret
func New(secret string, ttl time.Duration, opts ...Option) *Server {
	s := &Server{
		logger: slog.Default(),
		cost:   bcrypt.DefaultCost,
		users:  make(map[string]*user),
		tasks:  make(map[string][]models.Task),
		hits:   make(map[string]int),
		fail:   make(map[string][]int),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = newTokenIssuer(secret, ttl, s.now)
	return s
}

// Hits returns how many requests reached route, e.g. "POST /tasks" or "PATCH /tasks/{id}"
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// FailNext makes the next request to route answer with status instead of
// being handled. Calls queue up.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[route] = append(s.fail[route], status)
}

// takeFailure pops a queued failure for route
func (s *Server) takeFailure(route string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.fail[route]
	if len(queue) == 0 {
		return 0, false
	}
	s.fail[route] = queue[1:]
	return queue[0], true
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("dev server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

var (
	errEmailTaken  = errors.New("email already registered")
	errUnknownUser = errors.New("unknown user")
)
