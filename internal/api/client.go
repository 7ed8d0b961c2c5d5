// Package api is the HTTP client for the remote task API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/balkashynov/taskdash/internal/models"
)

// RequestIDHeader carries a per-call id that also appears in the log
const RequestIDHeader = "X-Request-ID"

// Client talks to the task API. It holds no session state; every task call
// takes the bearer token explicitly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AuthResult is a successful login or register response
type AuthResult struct {
	StatusCode int
	Message    string
	// Token is only set by Login
	Token string
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
// A refusal is returned as *RejectedError carrying the server message.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	res, err := c.authenticate(ctx, "login", "/auth/login", email, password)
	if err != nil {
		return AuthResult{}, err
	}
	if res.Token == "" {
		return AuthResult{}, &RejectedError{StatusCode: res.StatusCode, Message: "login response did not include an access token"}
	}
	return res, nil
}

// Register creates an account. It never returns a token.
func (c *Client) Register(ctx context.Context, email, password string) (AuthResult, error) {
	res, err := c.authenticate(ctx, "register", "/auth/register", email, password)
	if err != nil {
		return AuthResult{}, err
	}
	res.Token = ""
	return res, nil
}

func (c *Client) authenticate(ctx context.Context, op, path, email, password string) (AuthResult, error) {
	resp, body, err := c.send(ctx, op, http.MethodPost, path, "", credentials{Email: email, Password: password})
	if err != nil {
		return AuthResult{}, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 400 {
			return AuthResult{}, &RejectedError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return AuthResult{}, &Error{Op: op, StatusCode: resp.StatusCode, Kind: ErrTransport, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	// The envelope status is what the server means; the HTTP status is only
	// a fallback for bodies that omit it.
	status := env.StatusCode
	if status == 0 {
		status = resp.StatusCode
	}

	if status != http.StatusOK && status != http.StatusCreated {
		return AuthResult{}, &RejectedError{StatusCode: status, Message: env.messageText()}
	}

	return AuthResult{
		StatusCode: status,
		Message:    env.messageText(),
		Token:      env.accessToken(),
	}, nil
}

// ListTasks returns the actor's tasks in server order
func (c *Client) ListTasks(ctx context.Context, token string) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, "list tasks", http.MethodGet, "/tasks", token, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// CreateTask submits a new task. It is not idempotent.
func (c *Client) CreateTask(ctx context.Context, token string, draft models.Draft) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, "create task", http.MethodPost, "/tasks", token, draft, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask replaces the editable fields of task id
func (c *Client) UpdateTask(ctx context.Context, token, id string, draft models.Draft) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, "update task", http.MethodPatch, "/tasks/"+url.PathEscape(id), token, draft, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask removes task id; an empty or task body both count as success
func (c *Client) DeleteTask(ctx context.Context, token, id string) error {
	return c.do(ctx, "delete task", http.MethodDelete, "/tasks/"+url.PathEscape(id), token, nil, nil)
}

// do sends a task request and decodes a 2xx body into out (when non-nil and non-empty)
func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) error {
	resp, body, err := c.send(ctx, op, method, path, token, in)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
			Kind:       kindForStatus(resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Kind: ErrTransport, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	return nil
}

// send performs the round trip and reads the whole body
func (c *Client) send(ctx context.Context, op, method, path, token string, in any) (*http.Response, []byte, error) {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, nil, &Error{Op: op, Kind: ErrTransport, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, &Error{Op: op, Kind: ErrTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "op", op, "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, nil, &Error{Op: op, Kind: ErrTransport, Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &Error{Op: op, StatusCode: resp.StatusCode, Kind: ErrTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("api request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	return resp, body, nil
}
