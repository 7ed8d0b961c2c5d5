package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/balkashynov/taskdash/internal/models"
	"github.com/balkashynov/taskdash/internal/validate"
)

// Handler builds the router for the task API
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(jsonHeader)

	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/tasks", s.listTasks)
		r.Post("/tasks", s.createTask)
		r.Patch("/tasks/{id}", s.updateTask)
		r.Delete("/tasks/{id}", s.deleteTask)
	})

	return r
}

type response struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message any) {
	writeJSON(w, status, response{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// injected answers with a queued failure for route, if any
func (s *Server) injected(w http.ResponseWriter, route string) bool {
	status, ok := s.takeFailure(route)
	if !ok {
		return false
	}
	writeError(w, status, http.StatusText(status))
	return true
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentials) problems() []string {
	var msgs []string
	if strings.TrimSpace(c.Email) == "" {
		msgs = append(msgs, "email should not be empty")
	} else if !strings.Contains(c.Email, "@") {
		msgs = append(msgs, "email must be an email")
	}
	if c.Password == "" {
		msgs = append(msgs, "password should not be empty")
	}
	return msgs
}

// AddUser registers an account directly, bypassing the HTTP layer
func (s *Server) AddUser(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.users[email]; exists {
		return errEmailTaken
	}
	s.users[email] = &user{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	return nil
}

// TokenFor issues an access token for a registered email
func (s *Server) TokenFor(email string) (string, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	s.mu.Unlock()
	if !ok {
		return "", errUnknownUser
	}
	return s.tokens.issue(u.ID, u.Email)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "POST /auth/register") {
		return
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msgs := creds.problems(); len(msgs) > 0 {
		writeError(w, http.StatusBadRequest, msgs)
		return
	}

	if err := s.AddUser(creds.Email, creds.Password); err != nil {
		if errors.Is(err, errEmailTaken) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	writeJSON(w, http.StatusCreated, response{
		StatusCode: http.StatusCreated,
		Message:    "User registered successfully",
		Data:       map[string]string{"email": strings.ToLower(strings.TrimSpace(creds.Email))},
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "POST /auth/login") {
		return
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msgs := creds.problems(); len(msgs) > 0 {
		writeError(w, http.StatusBadRequest, msgs)
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(creds.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.issue(u.ID, u.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, response{
		StatusCode: http.StatusCreated,
		Message:    "Login successful",
		Data:       map[string]string{"access_token": token},
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "GET /tasks") {
		return
	}
	owner := claimsFrom(r.Context()).Subject

	s.mu.Lock()
	tasks := append([]models.Task{}, s.tasks[owner]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "POST /tasks") {
		return
	}
	owner := claimsFrom(r.Context()).Subject

	var draft models.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if errs := validate.Draft(draft); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, messages(errs))
		return
	}

	now := s.now().UTC()
	task := models.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      models.Status(draft.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.tasks[owner] = append(s.tasks[owner], task)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "PATCH /tasks/{id}") {
		return
	}
	owner := claimsFrom(r.Context()).Subject
	id := chi.URLParam(r, "id")

	var draft models.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if draft.Status != "" {
		if errs := validate.Draft(models.Draft{Title: "-", Description: "-", Status: draft.Status}); len(errs) > 0 {
			writeError(w, http.StatusBadRequest, messages(errs))
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks[owner] {
		if t.ID != id {
			continue
		}
		if strings.TrimSpace(draft.Title) != "" {
			t.Title = draft.Title
		}
		if strings.TrimSpace(draft.Description) != "" {
			t.Description = draft.Description
		}
		if draft.Status != "" {
			t.Status = models.Status(draft.Status)
		}
		t.UpdatedAt = s.now().UTC()
		s.tasks[owner][i] = t
		writeJSON(w, http.StatusOK, t)
		return
	}
	writeError(w, http.StatusNotFound, "Task with ID \""+id+"\" not found")
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "DELETE /tasks/{id}") {
		return
	}
	owner := claimsFrom(r.Context()).Subject
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.tasks[owner]
	for i, t := range tasks {
		if t.ID == id {
			s.tasks[owner] = append(tasks[:i:i], tasks[i+1:]...)
			writeJSON(w, http.StatusOK, t)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Task with ID \""+id+"\" not found")
}

// messages flattens validation errors into a stable list
func messages(errs validate.Errors) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, errs[k])
	}
	return out
}
