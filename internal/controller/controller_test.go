package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/balkashynov/taskdash/internal/api"
	"github.com/balkashynov/taskdash/internal/devserver"
	"github.com/balkashynov/taskdash/internal/logging"
	"github.com/balkashynov/taskdash/internal/models"
	"github.com/balkashynov/taskdash/internal/session"
	"github.com/balkashynov/taskdash/internal/validate"
)

type fixture struct {
	srv   *devserver.Server
	sess  *session.Session
	queue *Queue
	ctrl  *Controller
}

// newFixture wires a controller to an in-memory API with a logged-in user
func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	srv := devserver.New("test-secret", time.Hour,
		devserver.WithBcryptCost(bcrypt.MinCost),
		devserver.WithLogger(logging.Discard()),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	require.NoError(t, srv.AddUser("ann@example.com", "s3cret"))
	token, err := srv.TokenFor("ann@example.com")
	require.NoError(t, err)

	sess := session.New(session.NewMemoryJar(), logging.Discard())
	require.NoError(t, sess.Save(token))

	client := api.NewClient(ts.URL, api.WithLogger(logging.Discard()))
	queue := &Queue{}
	return &fixture{
		srv:   srv,
		sess:  sess,
		queue: queue,
		ctrl:  New(client, sess, queue, logging.Discard(), opts),
	}
}

func (f *fixture) seed(t *testing.T, titles ...string) {
	t.Helper()
	token := f.sess.Token()
	client := f.ctrl.api
	for _, title := range titles {
		_, err := client.CreateTask(context.Background(), token, models.Draft{Title: title, Description: title + " desc", Status: "pending"})
		require.NoError(t, err)
	}
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func valid(title string) models.Draft {
	return models.Draft{Title: title, Description: "something", Status: "pending"}
}

func TestMount_LoadsListInServerOrder(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a", "b", "c")

	require.NoError(t, f.ctrl.Mount(context.Background()))
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Equal(t, []string{"a", "b", "c"}, titles(f.ctrl.Tasks()))
	assert.Equal(t, 1, f.srv.Hits("GET /tasks"))
	assert.Empty(t, f.queue.Drain())
}

func TestMount_NoTokenLogsOut(t *testing.T) {
	f := newFixture(t, Options{})
	f.sess.Clear()

	cleared := 0
	f.sess.OnClear(func() { cleared++ })

	err := f.ctrl.Mount(context.Background())
	assert.ErrorIs(t, err, ErrLoggedOut)
	assert.Equal(t, StateLoggedOut, f.ctrl.State())
	assert.Equal(t, 1, cleared)
	assert.Equal(t, 0, f.srv.Hits("GET /tasks"))
}

func TestMount_FailureIsSilentAndDegraded(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a")
	f.srv.FailNext("GET /tasks", http.StatusInternalServerError)

	require.NoError(t, f.ctrl.Mount(context.Background()))
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Empty(t, f.ctrl.Tasks())
	assert.NotEmpty(t, f.ctrl.LastError())
	assert.Empty(t, f.queue.Drain(), "a failed load is only logged")

	// a manual refresh recovers
	require.NoError(t, f.ctrl.Refresh(context.Background()))
	assert.Equal(t, []string{"a"}, titles(f.ctrl.Tasks()))
	assert.Empty(t, f.ctrl.LastError())
}

func TestMount_FailureNotifiesWhenConfigured(t *testing.T) {
	f := newFixture(t, Options{NotifyAllErrors: true})
	f.srv.FailNext("GET /tasks", http.StatusInternalServerError)

	require.NoError(t, f.ctrl.Mount(context.Background()))
	assert.Equal(t, []Notification{{Level: LevelFailure, Message: MsgLoadFailed}}, f.queue.Drain())
}

func TestCreate_RefetchesWholeList(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a")
	require.NoError(t, f.ctrl.Mount(context.Background()))

	// another client adds a task behind our back
	f.seed(t, "from elsewhere")

	errs, err := f.ctrl.Create(context.Background(), valid("b"))
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Equal(t, 2, f.srv.Hits("GET /tasks"))
	assert.Equal(t, 2, f.ctrl.Fetches())
	// the list is the server's, not a local append
	assert.Equal(t, []string{"a", "from elsewhere", "b"}, titles(f.ctrl.Tasks()))
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: MsgCreated}}, f.queue.Drain())
}

func TestCreate_BlankTitleNeverCallsAPI(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.ctrl.Mount(context.Background()))

	draft := valid("")
	errs, err := f.ctrl.Create(context.Background(), draft)
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))
	assert.Equal(t, validate.Errors{validate.FieldTitle: "Title is required"}, errs)
	assert.Equal(t, 0, f.srv.Hits("POST /tasks"))
	assert.Empty(t, f.queue.Drain())
}

func TestCreate_FailureNotifiesWithoutDetail(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a")
	require.NoError(t, f.ctrl.Mount(context.Background()))
	f.srv.FailNext("POST /tasks", http.StatusInternalServerError)

	_, err := f.ctrl.Create(context.Background(), valid("b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrTransport)

	assert.Equal(t, StateError, f.ctrl.State())
	assert.Equal(t, []string{"a"}, titles(f.ctrl.Tasks()), "the list is kept")
	assert.Equal(t, []Notification{{Level: LevelFailure, Message: MsgCreateFailed}}, f.queue.Drain())
	assert.Equal(t, 1, f.srv.Hits("GET /tasks"), "no re-fetch after a failed create")
}

func TestUpdate_RefetchesAndNotifies(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a", "b")
	require.NoError(t, f.ctrl.Mount(context.Background()))

	target := f.ctrl.Tasks()[1]
	draft := models.DraftFrom(target)
	draft.Status = "done"

	errs, err := f.ctrl.Update(context.Background(), target.ID, draft)
	require.NoError(t, err)
	assert.Empty(t, errs)

	got, ok := f.ctrl.Task(target.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusDone, got.Status)
	assert.Equal(t, 2, f.srv.Hits("GET /tasks"))
	assert.Equal(t, 1, f.srv.Hits("PATCH /tasks/{id}"))
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: MsgUpdated}}, f.queue.Drain())
}

func TestUpdate_FailureIsOnlyLogged(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a")
	require.NoError(t, f.ctrl.Mount(context.Background()))

	_, err := f.ctrl.Update(context.Background(), "missing", valid("x"))
	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.Equal(t, StateError, f.ctrl.State())
	assert.Empty(t, f.queue.Drain())
	assert.Equal(t, []string{"a"}, titles(f.ctrl.Tasks()))
}

func TestUpdate_FailureNotifiesWhenConfigured(t *testing.T) {
	f := newFixture(t, Options{NotifyAllErrors: true})
	require.NoError(t, f.ctrl.Mount(context.Background()))

	_, err := f.ctrl.Update(context.Background(), "missing", valid("x"))
	require.Error(t, err)
	assert.Equal(t, []Notification{{Level: LevelFailure, Message: MsgUpdateFailed}}, f.queue.Drain())
}

func TestUpdate_InvalidDraftNeverCallsAPI(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a")
	require.NoError(t, f.ctrl.Mount(context.Background()))

	errs, err := f.ctrl.Update(context.Background(), f.ctrl.Tasks()[0].ID, models.Draft{Title: "a", Description: " ", Status: "later"})
	require.Error(t, err)
	assert.Equal(t, validate.Errors{
		validate.FieldDescription: "Description is required",
		validate.FieldStatus:      "Status must be one of pending, in_progress, done",
	}, errs)
	assert.Equal(t, 0, f.srv.Hits("PATCH /tasks/{id}"))
}

func TestDelete_SplicesLocallyWithoutRefetch(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a", "b", "c")
	require.NoError(t, f.ctrl.Mount(context.Background()))

	// a task added elsewhere must not show up: there is no re-fetch
	f.seed(t, "from elsewhere")

	middle := f.ctrl.Tasks()[1]
	require.NoError(t, f.ctrl.Delete(context.Background(), middle.ID))

	assert.Equal(t, []string{"a", "c"}, titles(f.ctrl.Tasks()))
	assert.Equal(t, 1, f.srv.Hits("GET /tasks"))
	assert.Equal(t, 1, f.ctrl.Fetches())
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: MsgDeleted}}, f.queue.Drain())
}

func TestDelete_FailureKeepsList(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a", "b")
	require.NoError(t, f.ctrl.Mount(context.Background()))
	before := f.ctrl.Tasks()

	f.srv.FailNext("DELETE /tasks/{id}", http.StatusInternalServerError)
	err := f.ctrl.Delete(context.Background(), before[0].ID)
	require.Error(t, err)

	assert.Equal(t, before, f.ctrl.Tasks())
	assert.Equal(t, StateError, f.ctrl.State())
	assert.Empty(t, f.queue.Drain())
}

func TestResyncFailureAfterCreate(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a")
	require.NoError(t, f.ctrl.Mount(context.Background()))
	f.srv.FailNext("GET /tasks", http.StatusBadGateway)

	_, err := f.ctrl.Create(context.Background(), valid("b"))
	assert.ErrorIs(t, err, ErrResync)
	assert.ErrorIs(t, err, api.ErrTransport)
	assert.Equal(t, StateError, f.ctrl.State())
	// the create landed and the user was told so
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: MsgCreated}}, f.queue.Drain())
	assert.Equal(t, []string{"a"}, titles(f.ctrl.Tasks()))

	require.NoError(t, f.ctrl.Refresh(context.Background()))
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Equal(t, []string{"a", "b"}, titles(f.ctrl.Tasks()))
}

func TestLogout(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a")
	require.NoError(t, f.ctrl.Mount(context.Background()))

	f.ctrl.Logout()
	assert.Equal(t, StateLoggedOut, f.ctrl.State())
	assert.Empty(t, f.ctrl.Tasks())
	assert.Equal(t, "", f.sess.Token())

	_, err := f.ctrl.Create(context.Background(), valid("b"))
	assert.ErrorIs(t, err, ErrLoggedOut)
}

func TestTasksReturnsCopy(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "a")
	require.NoError(t, f.ctrl.Mount(context.Background()))

	tasks := f.ctrl.Tasks()
	tasks[0].Title = "mutated"
	assert.Equal(t, "a", f.ctrl.Tasks()[0].Title)
}

// blockingAPI holds CreateTask until release is closed
type blockingAPI struct {
	mu      sync.Mutex
	creates int
	started chan struct{}
	release chan struct{}
}

func newBlockingAPI() *blockingAPI {
	return &blockingAPI{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingAPI) ListTasks(ctx context.Context, token string) ([]models.Task, error) {
	return []models.Task{}, nil
}

func (b *blockingAPI) CreateTask(ctx context.Context, token string, draft models.Draft) (models.Task, error) {
	b.mu.Lock()
	b.creates++
	b.mu.Unlock()
	b.started <- struct{}{}
	<-b.release
	return models.Task{ID: "x", Title: draft.Title}, nil
}

func (b *blockingAPI) UpdateTask(ctx context.Context, token, id string, draft models.Draft) (models.Task, error) {
	return models.Task{}, errors.New("not implemented")
}

func (b *blockingAPI) DeleteTask(ctx context.Context, token, id string) error {
	return errors.New("not implemented")
}

func loggedIn(t *testing.T) *session.Session {
	t.Helper()
	sess := session.New(session.NewMemoryJar(), logging.Discard())
	require.NoError(t, sess.Save("tok"))
	return sess
}

func TestCreate_DoubleSubmitRaceByDefault(t *testing.T) {
	b := newBlockingAPI()
	ctrl := New(b, loggedIn(t), &Queue{}, logging.Discard(), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Create(context.Background(), valid("dup"))
		}()
	}

	<-b.started
	<-b.started
	assert.Equal(t, StateMutating, ctrl.State())
	close(b.release)
	wg.Wait()

	assert.Equal(t, 2, b.creates)
	assert.Equal(t, StateReady, ctrl.State())
}

func TestCreate_GuardInFlight(t *testing.T) {
	b := newBlockingAPI()
	ctrl := New(b, loggedIn(t), &Queue{}, logging.Discard(), Options{GuardInFlight: true})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Create(context.Background(), valid("once"))
		done <- err
	}()
	<-b.started

	_, err := ctrl.Create(context.Background(), valid("twice"))
	assert.ErrorIs(t, err, ErrBusy)

	close(b.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, b.creates)
}

func TestClose_DiscardsLateResults(t *testing.T) {
	b := newBlockingAPI()
	queue := &Queue{}
	ctrl := New(b, loggedIn(t), queue, logging.Discard(), Options{})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Create(context.Background(), valid("late"))
		done <- err
	}()
	<-b.started

	ctrl.Close()
	close(b.release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, queue.Drain())

	_, err := ctrl.Create(context.Background(), valid("after"))
	assert.ErrorIs(t, err, ErrClosed)
}
