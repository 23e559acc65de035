package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lecgen/internal/domain"
)

// EventType identifies what happened to a task.
type EventType string

// Task event types
const (
	// EventTaskSubmitted is emitted once the job service has accepted a job.
	EventTaskSubmitted EventType = "task_submitted"

	// EventTaskStatusChanged is emitted for each non-terminal status observed.
	EventTaskStatusChanged EventType = "task_status_changed"

	// EventTaskCompleted is emitted exactly once when a task completes.
	EventTaskCompleted EventType = "task_completed"

	// EventTaskFailed is emitted exactly once when a task fails.
	EventTaskFailed EventType = "task_failed"
)

// TaskEvent describes one lifecycle transition of a tracked task.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what happened
	Type EventType `json:"type"`

	// TaskID is the job service identifier of the task
	TaskID string `json:"task_id"`

	// Status is the status observed when the event was raised
	Status domain.TaskStatus `json:"status"`

	// Result is set for EventTaskCompleted
	Result *domain.Result `json:"result,omitempty"`

	// Error is set for EventTaskFailed
	Error string `json:"error,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent builds an event from a task snapshot. The result is cloned so
// handlers may keep it without racing the tracker.
func NewTaskEvent(eventType EventType, task *domain.Task) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    task.ID,
		Status:    task.Status,
		Result:    task.Result.Clone(),
		Error:     task.Error,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventHandlerFunc adapts a plain function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the tracker to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
