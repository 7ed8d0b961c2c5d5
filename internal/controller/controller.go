// Package controller owns the in-memory task list of a dashboard session.
//
// It fetches on mount, runs create/update/delete against the API and
// reconciles the list afterwards: create and update re-fetch the full list,
// delete removes the task locally without a re-fetch.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/balkashynov/taskdash/internal/models"
	"github.com/balkashynov/taskdash/internal/validate"
)

var (
	// ErrLoggedOut is returned when there is no token to act with
	ErrLoggedOut = errors.New("not logged in")
	// ErrBusy is returned by a guarded mutation while one of its kind is in flight
	ErrBusy = errors.New("operation already in progress")
	// ErrClosed is returned when a result arrives after the view went away
	ErrClosed = errors.New("controller closed")
	// ErrResync wraps a failed re-fetch after a mutation that itself succeeded
	ErrResync = errors.New("task list refresh failed")
)

// TaskAPI is the subset of the API client the controller needs
type TaskAPI interface {
	ListTasks(ctx context.Context, token string) ([]models.Task, error)
	CreateTask(ctx context.Context, token string, draft models.Draft) (models.Task, error)
	UpdateTask(ctx context.Context, token, id string, draft models.Draft) (models.Task, error)
	DeleteTask(ctx context.Context, token, id string) error
}

// Session supplies the bearer token and ends the session
type Session interface {
	Token() string
	Clear()
}

// Notifier shows transient messages to the user
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// Options switch on behaviour that is off by default
type Options struct {
	// NotifyAllErrors makes every failed load and mutation notify, not only create
	NotifyAllErrors bool
	// GuardInFlight rejects a second mutation of a kind already running
	GuardInFlight bool
}

// Controller is safe for concurrent use. Network calls run without the lock
// held, so two mutations may overlap unless GuardInFlight is set.
type Controller struct {
	api      TaskAPI
	session  Session
	notifier Notifier
	logger   *slog.Logger
	opts     Options

	mu       sync.Mutex
	state    State
	tasks    []models.Task
	lastErr  string
	pending  int
	inFlight map[Op]bool
	closed   bool
	fetches  int
}

// New wires a controller; logger may be nil
func New(api TaskAPI, sess Session, notifier Notifier, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		api:      api,
		session:  sess,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		state:    StateUninitialized,
		tasks:    []models.Task{},
		inFlight: make(map[Op]bool),
	}
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tasks returns a copy of the visible list in server order
func (c *Controller) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Task{}, c.tasks...)
}

// Task looks up a task of the visible list by id
func (c *Controller) Task(id string) (models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// LastError is the message of the most recent failure, cleared by the next success
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Fetches counts full list fetches issued so far
func (c *Controller) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// Close marks the owning view as gone; later results are discarded
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Logout clears the session; the session's listeners handle navigation
func (c *Controller) Logout() {
	c.mu.Lock()
	c.state = StateLoggedOut
	c.tasks = []models.Task{}
	c.mu.Unlock()

	c.session.Clear()
}

// Mount loads the list for the current token. Without a token the session
// is cleared and ErrLoggedOut returned. A failed initial load is only logged:
// the controller stays usable with an empty list.
func (c *Controller) Mount(ctx context.Context) error {
	token := c.session.Token()
	if token == "" {
		c.mu.Lock()
		c.state = StateLoggedOut
		c.mu.Unlock()
		c.session.Clear()
		return ErrLoggedOut
	}

	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	tasks, err := c.fetch(ctx, token)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		c.logger.Error("Error fetching tasks", "error", err)
		c.mu.Lock()
		c.state = StateReady
		c.tasks = []models.Task{}
		c.lastErr = err.Error()
		c.mu.Unlock()
		if c.opts.NotifyAllErrors {
			c.notifier.Failure(MsgLoadFailed)
		}
		return nil
	}

	c.mu.Lock()
	c.state = StateReady
	c.tasks = tasks
	c.lastErr = ""
	c.mu.Unlock()
	return nil
}

// Refresh re-fetches the list; a success leaves the error state
func (c *Controller) Refresh(ctx context.Context) error {
	token := c.session.Token()
	if token == "" {
		return ErrLoggedOut
	}

	tasks, err := c.fetch(ctx, token)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		c.fail(err, "Error fetching tasks", MsgLoadFailed, false)
		return err
	}

	c.replace(tasks)
	return nil
}

// Create validates draft and submits it. Field errors are returned without
// any network call. On success the full list is fetched again.
func (c *Controller) Create(ctx context.Context, draft models.Draft) (validate.Errors, error) {
	if errs := validate.Draft(draft); len(errs) > 0 {
		return errs, errs.Err()
	}

	done, err := c.begin(OpCreate)
	if err != nil {
		return nil, err
	}
	defer done()

	token := c.session.Token()
	if token == "" {
		c.fail(ErrLoggedOut, "Error creating task", MsgCreateFailed, true)
		return nil, ErrLoggedOut
	}

	if _, err := c.api.CreateTask(ctx, token, draft); err != nil {
		if c.isClosed() {
			return nil, ErrClosed
		}
		c.fail(err, "Error creating task", MsgCreateFailed, true)
		return nil, fmt.Errorf("create task: %w", err)
	}

	if c.isClosed() {
		return nil, ErrClosed
	}
	c.notifier.Success(MsgCreated)

	return nil, c.resync(ctx, token)
}

// Update validates draft and submits it for task id. On success the full
// list is fetched again; failures are only logged.
func (c *Controller) Update(ctx context.Context, id string, draft models.Draft) (validate.Errors, error) {
	if errs := validate.Draft(draft); len(errs) > 0 {
		return errs, errs.Err()
	}

	done, err := c.begin(OpUpdate)
	if err != nil {
		return nil, err
	}
	defer done()

	token := c.session.Token()
	if token == "" {
		c.fail(ErrLoggedOut, "Error updating task", MsgUpdateFailed, false)
		return nil, ErrLoggedOut
	}

	if _, err := c.api.UpdateTask(ctx, token, id, draft); err != nil {
		if c.isClosed() {
			return nil, ErrClosed
		}
		c.fail(err, "Error updating task", MsgUpdateFailed, false)
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}

	if c.isClosed() {
		return nil, ErrClosed
	}
	c.notifier.Success(MsgUpdated)

	return nil, c.resync(ctx, token)
}

// Delete removes task id on the server and then from the local list.
// No re-fetch follows; failures are only logged and leave the list as is.
func (c *Controller) Delete(ctx context.Context, id string) error {
	done, err := c.begin(OpDelete)
	if err != nil {
		return err
	}
	defer done()

	token := c.session.Token()
	if token == "" {
		c.fail(ErrLoggedOut, "Error deleting task", MsgDeleteFailed, false)
		return ErrLoggedOut
	}

	if err := c.api.DeleteTask(ctx, token, id); err != nil {
		if c.isClosed() {
			return ErrClosed
		}
		c.fail(err, "Error deleting task", MsgDeleteFailed, false)
		return fmt.Errorf("delete task %s: %w", id, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	kept := make([]models.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	c.tasks = kept
	c.lastErr = ""
	c.state = StateMutating
	c.mu.Unlock()

	c.notifier.Success(MsgDeleted)
	return nil
}

// begin enters the mutating state and returns the function that leaves it
func (c *Controller) begin(op Op) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.opts.GuardInFlight && c.inFlight[op] {
		return nil, ErrBusy
	}
	c.inFlight[op] = true
	c.pending++
	if c.state != StateError {
		c.state = StateMutating
	}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.inFlight, op)
		c.pending--
		if c.pending == 0 && c.state == StateMutating {
			c.state = StateReady
		}
	}, nil
}

// resync replaces the list with the server's after a successful mutation
func (c *Controller) resync(ctx context.Context, token string) error {
	tasks, err := c.fetch(ctx, token)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		c.fail(err, "Error fetching updated task list", MsgLoadFailed, false)
		return fmt.Errorf("%w: %w", ErrResync, err)
	}
	c.replace(tasks)
	return nil
}

func (c *Controller) fetch(ctx context.Context, token string) ([]models.Task, error) {
	c.mu.Lock()
	c.fetches++
	c.mu.Unlock()

	tasks, err := c.api.ListTasks(ctx, token)
	if c.isClosed() {
		return nil, ErrClosed
	}
	return tasks, err
}

func (c *Controller) replace(tasks []models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = tasks
	c.lastErr = ""
	if c.pending > 0 {
		c.state = StateMutating
	} else {
		c.state = StateReady
	}
}

// fail records err, keeps the list and decides whether the user hears about it.
// alwaysNotify is set for create, whose failures always reach the user.
func (c *Controller) fail(err error, logMsg, userMsg string, alwaysNotify bool) {
	c.logger.Error(logMsg, "error", err)

	c.mu.Lock()
	c.state = StateError
	c.lastErr = err.Error()
	c.mu.Unlock()

	if alwaysNotify || c.opts.NotifyAllErrors {
		c.notifier.Failure(userMsg)
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
