package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/events"
	"github.com/phrazzld/lecgen/internal/jobsvc"
)

// PollInterval is the fixed delay between status requests.
const PollInterval = 2000 * time.Millisecond

// JobClient is the subset of the job service the tracker depends on.
type JobClient interface {
	Submit(ctx context.Context, in domain.SubmissionInput) (string, error)
	Status(ctx context.Context, taskID string) (*jobsvc.StatusResponse, error)
	Translate(ctx context.Context, taskID string, lang domain.TargetLanguage) (*domain.Result, error)
}

var _ JobClient = (*jobsvc.Client)(nil)

// Phase is the tracker's local view of the current job.
type Phase string

// Tracker phases
const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhasePolling    Phase = "polling"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// PollSession is the polling activity bound to one task. It is owned by the
// tracker and only read or written under the tracker's lock.
type PollSession struct {
	TaskID   string
	Interval time.Duration

	generation uint64
	active     bool
	cancel     context.CancelFunc
}

// Snapshot is a point-in-time copy of the tracker state.
type Snapshot struct {
	Phase     Phase        `json:"phase"`
	Task      *domain.Task `json:"task,omitempty"`
	Error     string       `json:"error,omitempty"`
	LargeFile bool         `json:"large_file,omitempty"`
	Polling   bool         `json:"polling"`
}

// Failure returns the terminal job failure, or nil when the job did not
// fail in the job service.
func (s Snapshot) Failure() *JobFailure {
	if s.Task == nil || s.Task.Status != domain.TaskStatusFailed {
		return nil
	}
	return &JobFailure{TaskID: s.Task.ID, Message: s.Task.Error}
}

// Tracker owns at most one active job and its poll session.
type Tracker struct {
	client  JobClient
	clock   clockwork.Clock
	emitter events.EventEmitter
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
	phase      Phase
	task       *domain.Task
	session    *PollSession
	lastErr    string
	largeFile  bool
	closed     bool

	wg sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the clock used to schedule polls. Tests pass a
// clockwork.FakeClock to fire poll timers deterministically.
func WithClock(clock clockwork.Clock) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithEmitter sets where lifecycle events are published.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(t *Tracker) {
		t.emitter = emitter
	}
}

// WithLogger sets the tracker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker creates an idle tracker.
func NewTracker(client JobClient, opts ...Option) *Tracker {
	t := &Tracker{
		client: client,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
		phase:  PhaseIdle,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "task_tracker")
	return t
}

// Submit starts a new job. Invalid input is rejected without touching the
// current job. Otherwise the current poll session, if any, is torn down
// before the job service is called: the newest submission always wins.
//
// On success the returned task is pending and polling has started. If the
// job service rejects the job the tracker enters PhaseFailed and no polling
// starts. If another Submit or Cancel happens while the request is in
// flight, ErrSuperseded is returned and the response is discarded.
func (t *Tracker) Submit(ctx context.Context, in domain.SubmissionInput) (*domain.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	t.teardownLocked()
	gen := t.generation
	t.phase = PhaseSubmitting
	t.task = nil
	t.lastErr = ""
	t.largeFile = in.LargeFile()
	t.mu.Unlock()

	if in.LargeFile() {
		t.logger.Warn("large file submitted, the job service will compress it",
			"size_bytes", len(in.File),
			"threshold_bytes", domain.LargeFileThreshold)
	}

	id, err := t.client.Submit(ctx, in)

	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		t.logger.Debug("discarding superseded submission", "task_id", id, "error", err)
		return nil, ErrSuperseded
	}

	var task *domain.Task
	if err == nil {
		task, err = domain.NewTask(id, in.Kind)
	}
	if err != nil {
		t.phase = PhaseFailed
		t.lastErr = submissionMessage(err)
		t.mu.Unlock()
		t.logger.Warn("submission failed", "source_kind", in.Kind, "error", err)
		return nil, err
	}

	task.LargeFile = in.LargeFile()
	t.task = task
	t.phase = PhasePolling

	sessCtx, cancel := context.WithCancel(context.Background())
	sess := &PollSession{
		TaskID:     id,
		Interval:   PollInterval,
		generation: gen,
		active:     true,
		cancel:     cancel,
	}
	t.session = sess
	snapshot := task.Clone()

	t.wg.Add(1)
	go t.poll(sessCtx, sess)
	t.mu.Unlock()

	t.logger.Info("job submitted", "task_id", id, "source_kind", in.Kind)
	t.emit(events.EventTaskSubmitted, snapshot)

	return snapshot, nil
}

// Cancel discards the current job, as when the consuming view goes away.
// Any timer or response belonging to it afterwards is a no-op.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.teardownLocked()
	t.phase = PhaseIdle
	t.task = nil
	t.lastErr = ""
	t.largeFile = false
}

// Close cancels the current job and waits for its poll goroutine to exit.
// Further submissions fail with ErrClosed.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.teardownLocked()
	t.mu.Unlock()

	t.wg.Wait()
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Phase:     t.phase,
		Task:      t.task.Clone(),
		Error:     t.lastErr,
		LargeFile: t.largeFile,
		Polling:   t.session != nil && t.session.active,
	}
}

// ActiveSession returns the task id of the active poll session, if any.
func (t *Tracker) ActiveSession() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || !t.session.active {
		return "", false
	}
	return t.session.TaskID, true
}

// Translate requests a translated copy of a completed task's result. It is
// a one-shot request and never changes tracker state; every failure is a
// *jobsvc.TranslationError.
func (t *Tracker) Translate(ctx context.Context, taskID, lang string) (*domain.Result, error) {
	code, err := domain.ParseTargetLanguage(lang)
	if err != nil {
		return nil, &jobsvc.TranslationError{TaskID: taskID, Language: lang, Err: err}
	}

	result, err := t.client.Translate(ctx, taskID, code)
	if err != nil {
		t.logger.Warn("translation failed", "task_id", taskID, "language", code, "error", err)

		var trErr *jobsvc.TranslationError
		if errors.As(err, &trErr) {
			return nil, err
		}
		return nil, &jobsvc.TranslationError{TaskID: taskID, Language: string(code), Err: err}
	}

	return result, nil
}

// teardownLocked invalidates the current poll session. Callers hold t.mu.
func (t *Tracker) teardownLocked() {
	t.generation++
	if t.session == nil {
		return
	}
	t.session.active = false
	t.session.cancel()
	t.session = nil
}

func (t *Tracker) poll(ctx context.Context, sess *PollSession) {
	defer t.wg.Done()

	logger := t.logger.With("task_id", sess.TaskID)
	logger.Debug("poll session started", "interval", sess.Interval)

	for {
		timer := t.clock.NewTimer(sess.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debug("poll session stopped")
			return
		case <-timer.Chan():
		}

		if !t.isLive(sess) {
			return
		}

		resp, err := t.client.Status(ctx, sess.TaskID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Debug("status request failed, retrying", "error", err)
			continue
		}

		if done := t.apply(sess, resp); done {
			return
		}
	}
}

func (t *Tracker) isLive(sess *PollSession) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sess.active && sess.generation == t.generation
}

// apply records one status response. It reports whether polling should
// stop, either because the task is terminal or the session is stale.
func (t *Tracker) apply(sess *PollSession, resp *jobsvc.StatusResponse) bool {
	t.mu.Lock()
	if !sess.active || sess.generation != t.generation {
		t.mu.Unlock()
		return true
	}

	var eventType events.EventType
	terminal := resp.Status.IsTerminal()

	switch resp.Status {
	case domain.TaskStatusCompleted:
		t.task.Complete(resp.Result)
		t.phase = PhaseSucceeded
		eventType = events.EventTaskCompleted
	case domain.TaskStatusFailed:
		t.task.Fail(resp.Error)
		t.phase = PhaseFailed
		t.lastErr = t.task.Error
		eventType = events.EventTaskFailed
	default:
		if t.task.Status != resp.Status {
			eventType = events.EventTaskStatusChanged
		}
		if err := t.task.UpdateStatus(resp.Status); err != nil {
			t.mu.Unlock()
			t.logger.Debug("ignoring status", "task_id", sess.TaskID, "status", resp.Status, "error", err)
			return false
		}
	}

	if terminal {
		sess.active = false
		sess.cancel()
	}
	snapshot := t.task.Clone()
	t.mu.Unlock()

	switch eventType {
	case events.EventTaskCompleted:
		t.logger.Info("job completed", "task_id", sess.TaskID)
	case events.EventTaskFailed:
		t.logger.Info("job failed", "task_id", sess.TaskID, "error", snapshot.Error)
	}
	if eventType != "" {
		t.emit(eventType, snapshot)
	}

	return terminal
}

func (t *Tracker) emit(eventType events.EventType, task *domain.Task) {
	if t.emitter == nil {
		return
	}
	if err := t.emitter.EmitEvent(context.Background(), events.NewTaskEvent(eventType, task)); err != nil {
		t.logger.Error("failed to emit task event",
			"event_type", eventType,
			"task_id", task.ID,
			"error", err)
	}
}

// submissionMessage picks the text shown for a failed submission.
func submissionMessage(err error) string {
	var subErr *jobsvc.SubmissionError
	if errors.As(err, &subErr) {
		return subErr.Message()
	}
	return jobsvc.GenericFailureMessage
}
