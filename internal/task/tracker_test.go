package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/events"
	"github.com/phrazzld/lecgen/internal/jobsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type eventRecorder struct {
	mu     sync.Mutex
	events []*events.TaskEvent
}

func (r *eventRecorder) HandleEvent(_ context.Context, e *events.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types(taskID string) []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.EventType
	for _, e := range r.events {
		if e.TaskID == taskID {
			out = append(out, e.Type)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTracker(t *testing.T, client JobClient) (*Tracker, *clockwork.FakeClock, *eventRecorder) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	rec := &eventRecorder{}
	emitter := events.NewInMemoryEventEmitter(discardLogger())
	emitter.RegisterHandler(rec)

	tr := NewTracker(client, WithClock(clock), WithEmitter(emitter), WithLogger(discardLogger()))
	t.Cleanup(tr.Close)

	return tr, clock, rec
}

// waitArmed waits until exactly n poll timers are armed. The fake clock
// only wakes blockers when a timer is added, so the count is re-checked.
func waitArmed(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return armed(clock, n) }, waitTimeout, time.Millisecond,
		"expected %d armed poll timers", n)
}

func armed(clock *clockwork.FakeClock, n int) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	return clock.BlockUntilContext(ctx, n) == nil
}

// tick waits for the poll goroutine to arm its timer and fires it.
func tick(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	waitArmed(t, clock, 1)
	clock.Advance(PollInterval)
}

func fixedID(id string) func(context.Context, domain.SubmissionInput) (string, error) {
	return func(context.Context, domain.SubmissionInput) (string, error) { return id, nil }
}

// scripted replies with steps in order per task, repeating the last one.
func scripted(steps ...any) func(context.Context, string) (*jobsvc.StatusResponse, error) {
	var mu sync.Mutex
	calls := make(map[string]int)
	return func(_ context.Context, taskID string) (*jobsvc.StatusResponse, error) {
		mu.Lock()
		i := calls[taskID]
		calls[taskID]++
		mu.Unlock()
		if i >= len(steps) {
			i = len(steps) - 1
		}
		switch s := steps[i].(type) {
		case error:
			return nil, s
		case domain.TaskStatus:
			return &jobsvc.StatusResponse{Status: s}, nil
		default:
			r := s.(jobsvc.StatusResponse)
			return &r, nil
		}
	}
}

func phaseIs(tr *Tracker, phase Phase) func() bool {
	return func() bool { return tr.Snapshot().Phase == phase }
}

func TestTrackerSubmitToCompletion(t *testing.T) {
	t.Parallel()

	result := &domain.Result{Title: "Photosynthesis", Quiz: []domain.QuizItem{{Type: "mcq", Question: "q", Options: []string{"a"}, Correct: "a"}}}
	client := &MockJobClient{
		SubmitFn: fixedID("task-1"),
		StatusFn: scripted(
			domain.TaskStatusPending,
			domain.TaskStatusProcessing,
			jobsvc.StatusResponse{Status: domain.TaskStatusCompleted, Result: result},
		),
	}
	tr, clock, rec := newTestTracker(t, client)

	task, err := tr.Submit(context.Background(), domain.NewTextInput("Photosynthesis converts light to energy"))
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, domain.TaskStatusPending, task.Status)

	snap := tr.Snapshot()
	assert.Equal(t, PhasePolling, snap.Phase)
	assert.True(t, snap.Polling)
	id, ok := tr.ActiveSession()
	assert.True(t, ok)
	assert.Equal(t, "task-1", id)

	tick(t, clock)
	tick(t, clock)
	require.Eventually(t, func() bool {
		return tr.Snapshot().Task.Status == domain.TaskStatusProcessing
	}, waitTimeout, time.Millisecond)

	tick(t, clock)
	require.Eventually(t, phaseIs(tr, PhaseSucceeded), waitTimeout, time.Millisecond)

	snap = tr.Snapshot()
	assert.False(t, snap.Polling)
	assert.Nil(t, snap.Failure())
	require.NotNil(t, snap.Task.Result)
	assert.Equal(t, "Photosynthesis", snap.Task.Result.Title)
	assert.Empty(t, snap.Task.Error)

	_, ok = tr.ActiveSession()
	assert.False(t, ok)

	// Terminal: no timer is armed and no further requests are issued.
	waitArmed(t, clock, 0)
	clock.Advance(10 * PollInterval)
	assert.Equal(t, 3, client.StatusCalls("task-1"))

	assert.Equal(t, []events.EventType{
		events.EventTaskSubmitted,
		events.EventTaskStatusChanged,
		events.EventTaskCompleted,
	}, rec.types("task-1"))
}

func TestTrackerJobFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"service message", "AI Engine failed to extract content.", "AI Engine failed to extract content."},
		{"fallback message", "", domain.DefaultFailureMessage},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := &MockJobClient{
				SubmitFn: fixedID("task-f"),
				StatusFn: scripted(jobsvc.StatusResponse{Status: domain.TaskStatusFailed, Error: tc.message}),
			}
			tr, clock, rec := newTestTracker(t, client)

			_, err := tr.Submit(context.Background(), domain.NewYouTubeInput("https://youtu.be/x"))
			require.NoError(t, err)

			tick(t, clock)
			require.Eventually(t, phaseIs(tr, PhaseFailed), waitTimeout, time.Millisecond)

			snap := tr.Snapshot()
			assert.Equal(t, tc.want, snap.Error)
			assert.Nil(t, snap.Task.Result)
			failure := snap.Failure()
			require.NotNil(t, failure)
			assert.Equal(t, "task-f", failure.TaskID)
			assert.Equal(t, tc.want, failure.Message)

			waitArmed(t, clock, 0)
			clock.Advance(5 * PollInterval)
			assert.Equal(t, 1, client.StatusCalls("task-f"))
			assert.Equal(t, []events.EventType{events.EventTaskSubmitted, events.EventTaskFailed}, rec.types("task-f"))
		})
	}
}

func TestTrackerTransientErrorsKeepPolling(t *testing.T) {
	t.Parallel()

	transient := errors.New("connection reset")
	client := &MockJobClient{
		SubmitFn: fixedID("task-t"),
		StatusFn: scripted(
			transient,
			domain.TaskStatusProcessing,
			transient,
			jobsvc.StatusResponse{Status: domain.TaskStatusCompleted},
		),
	}
	tr, clock, rec := newTestTracker(t, client)

	_, err := tr.Submit(context.Background(), domain.NewTextInput("notes"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tick(t, clock)
		waitArmed(t, clock, 1)
		assert.Equal(t, PhasePolling, tr.Snapshot().Phase, "poll errors are never surfaced")
	}

	tick(t, clock)
	require.Eventually(t, phaseIs(tr, PhaseSucceeded), waitTimeout, time.Millisecond)

	snap := tr.Snapshot()
	require.NotNil(t, snap.Task.Result, "completed without a result carries an empty one")
	assert.Empty(t, snap.Error)
	assert.Equal(t, 4, client.StatusCalls("task-t"))
	assert.NotContains(t, rec.types("task-t"), events.EventTaskFailed)
}

func TestTrackerSubmitFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "service detail",
			err:  &jobsvc.SubmissionError{StatusCode: 500, Detail: "ffmpeg not installed"},
			want: "ffmpeg not installed",
		},
		{
			name: "no detail",
			err:  &jobsvc.SubmissionError{Err: errors.New("dial tcp: connection refused")},
			want: jobsvc.GenericFailureMessage,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := &MockJobClient{
				SubmitFn: func(context.Context, domain.SubmissionInput) (string, error) { return "", tc.err },
			}
			tr, clock, rec := newTestTracker(t, client)

			task, err := tr.Submit(context.Background(), domain.NewTextInput("notes"))
			assert.Nil(t, task)
			assert.ErrorIs(t, err, tc.err)

			snap := tr.Snapshot()
			assert.Equal(t, PhaseFailed, snap.Phase)
			assert.Equal(t, tc.want, snap.Error)
			assert.Nil(t, snap.Task)
			assert.False(t, snap.Polling)
			assert.Nil(t, snap.Failure())
			waitArmed(t, clock, 0)

			rec.mu.Lock()
			assert.Empty(t, rec.events)
			rec.mu.Unlock()
		})
	}
}

func TestTrackerInvalidInputKeepsActiveSession(t *testing.T) {
	t.Parallel()

	client := &MockJobClient{
		SubmitFn: fixedID("task-a"),
		StatusFn: scripted(domain.TaskStatusPending),
	}
	tr, clock, _ := newTestTracker(t, client)

	_, err := tr.Submit(context.Background(), domain.NewTextInput("notes"))
	require.NoError(t, err)
	waitArmed(t, clock, 1)

	_, err = tr.Submit(context.Background(), domain.NewYouTubeInput(""))
	assert.ErrorIs(t, err, domain.ErrInvalidSubmission)

	id, ok := tr.ActiveSession()
	assert.True(t, ok)
	assert.Equal(t, "task-a", id)
	assert.Equal(t, PhasePolling, tr.Snapshot().Phase)
}

func TestTrackerNewSubmissionSupersedes(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	ids := []string{"task-a", "task-b"}
	client := &MockJobClient{
		SubmitFn: func(context.Context, domain.SubmissionInput) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			id := ids[0]
			ids = ids[1:]
			return id, nil
		},
		StatusFn: scripted(domain.TaskStatusProcessing),
	}
	tr, clock, _ := newTestTracker(t, client)
	ctx := context.Background()

	_, err := tr.Submit(ctx, domain.NewTextInput("first"))
	require.NoError(t, err)
	waitArmed(t, clock, 1)

	_, err = tr.Submit(ctx, domain.NewTextInput("second"))
	require.NoError(t, err)

	id, ok := tr.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "task-b", id)

	// The first session's timer is disarmed; only the second remains.
	waitArmed(t, clock, 1)
	tick(t, clock)
	require.Eventually(t, func() bool {
		return tr.Snapshot().Task.Status == domain.TaskStatusProcessing
	}, waitTimeout, time.Millisecond)

	assert.Zero(t, client.StatusCalls("task-a"))
	assert.Equal(t, 1, client.StatusCalls("task-b"))
	assert.Equal(t, "task-b", tr.Snapshot().Task.ID)
}

func TestTrackerStaleResponseIsDropped(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var ids = make(chan string, 2)
	ids <- "task-a"
	ids <- "task-b"

	client := &MockJobClient{
		SubmitFn: func(context.Context, domain.SubmissionInput) (string, error) { return <-ids, nil },
		StatusFn: func(_ context.Context, taskID string) (*jobsvc.StatusResponse, error) {
			if taskID == "task-a" {
				// Simulates a request the server answers after the session died.
				close(started)
				<-release
				return &jobsvc.StatusResponse{Status: domain.TaskStatusCompleted, Result: &domain.Result{Title: "stale"}}, nil
			}
			return &jobsvc.StatusResponse{Status: domain.TaskStatusPending}, nil
		},
	}
	tr, clock, rec := newTestTracker(t, client)
	ctx := context.Background()

	_, err := tr.Submit(ctx, domain.NewTextInput("first"))
	require.NoError(t, err)
	tick(t, clock)
	<-started

	_, err = tr.Submit(ctx, domain.NewTextInput("second"))
	require.NoError(t, err)
	close(release)

	tr.Close()

	snap := tr.Snapshot()
	require.NotNil(t, snap.Task)
	assert.Equal(t, "task-b", snap.Task.ID)
	assert.Equal(t, domain.TaskStatusPending, snap.Task.Status)
	assert.Nil(t, snap.Task.Result)
	assert.Equal(t, []events.EventType{events.EventTaskSubmitted}, rec.types("task-a"))
}

func TestTrackerSupersededSubmission(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	client := &MockJobClient{
		SubmitFn: func(_ context.Context, in domain.SubmissionInput) (string, error) {
			if in.Text == "slow" {
				close(started)
				<-release
				return "task-slow", nil
			}
			return "task-fast", nil
		},
		StatusFn: scripted(domain.TaskStatusPending),
	}
	tr, _, _ := newTestTracker(t, client)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.Submit(ctx, domain.NewTextInput("slow"))
		errCh <- err
	}()
	<-started

	_, err := tr.Submit(ctx, domain.NewTextInput("fast"))
	require.NoError(t, err)
	close(release)

	assert.ErrorIs(t, <-errCh, ErrSuperseded)
	id, ok := tr.ActiveSession()
	assert.True(t, ok)
	assert.Equal(t, "task-fast", id)
}

func TestTrackerCancel(t *testing.T) {
	t.Parallel()

	client := &MockJobClient{
		SubmitFn: fixedID("task-c"),
		StatusFn: scripted(domain.TaskStatusPending),
	}
	tr, clock, _ := newTestTracker(t, client)

	_, err := tr.Submit(context.Background(), domain.NewTextInput("notes"))
	require.NoError(t, err)
	waitArmed(t, clock, 1)

	tr.Cancel()

	snap := tr.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Nil(t, snap.Task)
	assert.False(t, snap.Polling)

	waitArmed(t, clock, 0)
	clock.Advance(5 * PollInterval)
	assert.Zero(t, client.StatusCalls("task-c"))
}

func TestTrackerClosed(t *testing.T) {
	t.Parallel()

	client := &MockJobClient{SubmitFn: fixedID("task-x")}
	tr, _, _ := newTestTracker(t, client)
	tr.Close()

	_, err := tr.Submit(context.Background(), domain.NewTextInput("notes"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTrackerLargeFile(t *testing.T) {
	t.Parallel()

	client := &MockJobClient{
		SubmitFn: fixedID("task-big"),
		StatusFn: scripted(domain.TaskStatusCompressing),
	}
	tr, _, _ := newTestTracker(t, client)

	task, err := tr.Submit(context.Background(), domain.NewFileInput("lecture.mp4", make([]byte, domain.LargeFileThreshold+1)))
	require.NoError(t, err)
	assert.True(t, task.LargeFile)
	assert.True(t, tr.Snapshot().LargeFile)
}

func TestTrackerTranslate(t *testing.T) {
	t.Parallel()

	t.Run("unsupported language", func(t *testing.T) {
		t.Parallel()
		client := &MockJobClient{
			TranslateFn: func(context.Context, string, domain.TargetLanguage) (*domain.Result, error) {
				t.Fatal("job service must not be called")
				return nil, nil
			},
		}
		tr, _, _ := newTestTracker(t, client)

		_, err := tr.Translate(context.Background(), "task-1", "en")

		var trErr *jobsvc.TranslationError
		require.True(t, errors.As(err, &trErr))
		assert.ErrorIs(t, err, domain.ErrUnsupportedLanguage)
	})

	t.Run("failure is reported as a translation error", func(t *testing.T) {
		t.Parallel()
		client := &MockJobClient{
			TranslateFn: func(context.Context, string, domain.TargetLanguage) (*domain.Result, error) {
				return nil, errors.New("connection refused")
			},
		}
		tr, _, _ := newTestTracker(t, client)
		before := tr.Snapshot()

		_, err := tr.Translate(context.Background(), "task-1", "es")

		var trErr *jobsvc.TranslationError
		require.True(t, errors.As(err, &trErr))
		assert.Equal(t, "es", trErr.Language)
		assert.Equal(t, before, tr.Snapshot())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		client := &MockJobClient{
			TranslateFn: func(_ context.Context, taskID string, lang domain.TargetLanguage) (*domain.Result, error) {
				return &domain.Result{Title: taskID, Language: string(lang)}, nil
			},
		}
		tr, _, _ := newTestTracker(t, client)

		result, err := tr.Translate(context.Background(), "task-1", " JA ")
		require.NoError(t, err)
		assert.Equal(t, "ja", result.Language)
		assert.Equal(t, PhaseIdle, tr.Snapshot().Phase)
	})
}
