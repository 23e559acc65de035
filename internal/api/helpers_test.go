package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/lecgen/internal/api/shared"
	"github.com/phrazzld/lecgen/internal/config"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/events"
	"github.com/phrazzld/lecgen/internal/jobsvc"
	"github.com/phrazzld/lecgen/internal/jobsvc/jobsvctest"
	"github.com/phrazzld/lecgen/internal/service"
	"github.com/phrazzld/lecgen/internal/store"
	"github.com/phrazzld/lecgen/internal/task"
	"github.com/stretchr/testify/require"
)

// mockJobTracker is a function-field mock of JobTracker.
type mockJobTracker struct {
	submitFn   func(ctx context.Context, in domain.SubmissionInput) (*domain.Task, error)
	snapshotFn func() task.Snapshot
	cancelled  int
}

func (m *mockJobTracker) Submit(ctx context.Context, in domain.SubmissionInput) (*domain.Task, error) {
	return m.submitFn(ctx, in)
}

func (m *mockJobTracker) Cancel() { m.cancelled++ }

func (m *mockJobTracker) Snapshot() task.Snapshot {
	if m.snapshotFn == nil {
		return task.Snapshot{Phase: task.PhaseIdle}
	}
	return m.snapshotFn()
}

// mockResultService is a function-field mock of ResultService.
type mockResultService struct {
	getFn       func(ctx context.Context, taskID string) (*domain.Result, error)
	translateFn func(ctx context.Context, taskID, lang string) (*domain.Result, error)
}

func (m *mockResultService) Get(ctx context.Context, taskID string) (*domain.Result, error) {
	return m.getFn(ctx, taskID)
}

func (m *mockResultService) Translate(ctx context.Context, taskID, lang string) (*domain.Result, error) {
	return m.translateFn(ctx, taskID, lang)
}

// testBridge wires real services against a fake job service.
type testBridge struct {
	fake     *jobsvctest.Server
	client   *jobsvc.Client
	clock    *clockwork.FakeClock
	tracker  *task.Tracker
	book     *service.ResultBook
	quizzes  *service.QuizService
	attempts *store.MemoryAttemptStore
	// preferences are saved to prefsPath on every change.
	preferences *service.PreferenceStore
	prefsPath   string
	router      http.Handler
}

func newTestBridge(t *testing.T) *testBridge {
	t.Helper()

	fake := jobsvctest.NewServer(t)
	client, err := jobsvc.New(fake.URL)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	emitter := events.NewInMemoryEventEmitter(nil)
	tracker := task.NewTracker(client, task.WithClock(clock), task.WithEmitter(emitter))
	t.Cleanup(tracker.Close)

	book := service.NewResultBook(tracker, client, nil)
	emitter.RegisterHandler(book)
	attempts := store.NewMemoryAttemptStore()
	quizzes, err := service.NewQuizService(book, attempts, nil)
	require.NoError(t, err)

	b := &testBridge{
		fake:     fake,
		client:   client,
		clock:    clock,
		tracker:  tracker,
		book:     book,
		quizzes:  quizzes,
		attempts: attempts,
	}
	b.prefsPath = filepath.Join(t.TempDir(), "preferences.yaml")
	b.preferences = service.NewPreferenceStore(
		config.PreferencesConfig{Theme: "dark", Language: "en"},
		func(p config.PreferencesConfig) error { return config.SavePreferences(b.prefsPath, p) },
		nil)
	b.router = newRouter(Handlers{
		Jobs:    NewJobHandler(tracker, book, nil),
		Quizzes: NewQuizHandler(quizzes, nil),
		History: NewHistoryHandler(client, book, quizzes, nil),
		System:  NewSystemHandler(client, b.preferences, nil),
		PYQ:     NewPYQHandler(client, nil),
	})
	return b
}

func newRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	Mount(r, h)
	return r
}

// do sends a request with an optional JSON body and returns the recorder.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[shared.ErrorResponse](t, w).Error
}
