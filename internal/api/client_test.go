package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/balkashynov/taskdash/internal/devserver"
	"github.com/balkashynov/taskdash/internal/logging"
	"github.com/balkashynov/taskdash/internal/models"
)

func newDevAPI(t *testing.T) (*devserver.Server, *Client) {
	t.Helper()
	srv := devserver.New("test-secret", time.Hour,
		devserver.WithBcryptCost(bcrypt.MinCost),
		devserver.WithLogger(logging.Discard()),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, NewClient(ts.URL, WithLogger(logging.Discard()))
}

func newStubAPI(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/", WithLogger(logging.Discard()))
}

func TestClient_RegisterAndLogin(t *testing.T) {
	_, c := newDevAPI(t)
	ctx := context.Background()

	res, err := c.Register(ctx, "ann@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "User registered successfully", res.Message)
	assert.Empty(t, res.Token)

	res, err = c.Login(ctx, "ann@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.NotEmpty(t, res.Token)
}

func TestClient_LoginRejected(t *testing.T) {
	srv, c := newDevAPI(t)
	require.NoError(t, srv.AddUser("ann@example.com", "s3cret"))

	_, err := c.Login(context.Background(), "ann@example.com", "wrong")
	require.Error(t, err)

	re, ok := IsRejected(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, re.StatusCode)
	assert.Equal(t, "Invalid credentials", re.Message)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestClient_RegisterDuplicate(t *testing.T) {
	srv, c := newDevAPI(t)
	require.NoError(t, srv.AddUser("ann@example.com", "s3cret"))

	_, err := c.Register(context.Background(), "ann@example.com", "other")
	re, ok := IsRejected(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, re.StatusCode)
	assert.Equal(t, "Email already registered", re.Message)
}

func TestClient_AuthEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		httpStatus int
		body       string
		wantErr    string
		wantToken  string
	}{
		{
			name:       "envelope status wins over http status",
			httpStatus: http.StatusOK,
			body:       `{"statusCode":401,"message":"Invalid credentials"}`,
			wantErr:    "Invalid credentials",
		},
		{
			name:       "list message joined",
			httpStatus: http.StatusBadRequest,
			body:       `{"statusCode":400,"message":["email must be an email","password should not be empty"]}`,
			wantErr:    "email must be an email, password should not be empty",
		},
		{
			name:       "missing status falls back to http",
			httpStatus: http.StatusOK,
			body:       `{"data":{"access_token":"tok"}}`,
			wantToken:  "tok",
		},
		{
			name:       "success without token",
			httpStatus: http.StatusCreated,
			body:       `{"statusCode":201,"message":"ok","data":{}}`,
			wantErr:    "login response did not include an access token",
		},
		{
			name:       "plain text failure",
			httpStatus: http.StatusBadGateway,
			body:       "upstream down",
			wantErr:    "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/login", r.URL.Path)
				w.WriteHeader(tt.httpStatus)
				w.Write([]byte(tt.body))
			})

			res, err := c.Login(context.Background(), "a@b.c", "pw")
			if tt.wantErr != "" {
				_, ok := IsRejected(err)
				require.True(t, ok, "want RejectedError, got %v", err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, res.Token)
		})
	}
}

func TestClient_TaskLifecycle(t *testing.T) {
	srv, c := newDevAPI(t)
	require.NoError(t, srv.AddUser("ann@example.com", "s3cret"))
	token, err := srv.TokenFor("ann@example.com")
	require.NoError(t, err)
	ctx := context.Background()

	tasks, err := c.ListTasks(ctx, token)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	first, err := c.CreateTask(ctx, token, models.Draft{Title: "one", Description: "d1", Status: "pending"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := c.CreateTask(ctx, token, models.Draft{Title: "two", Description: "d2", Status: "done"})
	require.NoError(t, err)

	tasks, err = c.ListTasks(ctx, token)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, []string{first.ID, second.ID}, []string{tasks[0].ID, tasks[1].ID})

	updated, err := c.UpdateTask(ctx, token, first.ID, models.Draft{Title: "one!", Description: "d1", Status: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, "one!", updated.Title)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	require.NoError(t, c.DeleteTask(ctx, token, second.ID))

	tasks, err = c.ListTasks(ctx, token)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, first.ID, tasks[0].ID)
}

func TestClient_ErrorKinds(t *testing.T) {
	srv, c := newDevAPI(t)
	require.NoError(t, srv.AddUser("ann@example.com", "s3cret"))
	token, err := srv.TokenFor("ann@example.com")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.ListTasks(ctx, "")
	assert.ErrorIs(t, err, ErrAuth)

	_, err = c.ListTasks(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrAuth)

	err = c.DeleteTask(ctx, token, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, `Task with ID "missing" not found`, apiErr.Message)

	srv.FailNext("POST /tasks", http.StatusInternalServerError)
	_, err = c.CreateTask(ctx, token, models.Draft{Title: "a", Description: "b", Status: "done"})
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrAuth)
}

func TestClient_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(url, WithLogger(logging.Discard()), WithTimeout(time.Second))
	_, err := c.ListTasks(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_Headers(t *testing.T) {
	var seen http.Header
	c := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		assert.Equal(t, "/tasks/a%2Fb", r.URL.EscapedPath())
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(models.Task{ID: "a/b", Title: "t"})
	})

	_, err := c.UpdateTask(context.Background(), "tok", "a/b", models.Draft{Title: "t", Description: "d", Status: "done"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", seen.Get("Authorization"))
	assert.Equal(t, "application/json", seen.Get("Content-Type"))
	assert.NotEmpty(t, seen.Get(RequestIDHeader))
}

func TestClient_NoBearerWithoutToken(t *testing.T) {
	var auth string
	var hasAuth bool
	c := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	})

	tasks, err := c.ListTasks(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, auth)
	assert.False(t, hasAuth)
}

func TestClient_DeleteEmptyBody(t *testing.T) {
	c := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.DeleteTask(context.Background(), "tok", "42"))
}
