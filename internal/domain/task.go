package domain

import (
	"errors"
	"time"
)

// TaskStatus represents the lifecycle state of a generation job as reported
// by the job service.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusProcessing  TaskStatus = "processing"
	TaskStatusCompressing TaskStatus = "compressing"
	TaskStatusOptimizing  TaskStatus = "optimizing"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusFailed      TaskStatus = "failed"
)

// Task validation errors
var (
	ErrTaskIDEmpty          = errors.New("task ID cannot be empty")
	ErrTaskResultNotAllowed = errors.New("task result is only allowed when completed")
	ErrTaskErrorNotAllowed  = errors.New("task error is only allowed when failed")
)

// ParseTaskStatus converts a raw status string into a TaskStatus.
// Returns ErrInvalidTaskStatus for anything outside the lifecycle vocabulary.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", ErrInvalidTaskStatus
	}
	return status, nil
}

// IsValid reports whether the status is part of the lifecycle vocabulary.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompressing,
		TaskStatusOptimizing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further automatic transition happens from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task is the client-side view of one generation job. The ID is opaque and
// issued by the job service. Result is present only when the task completed;
// Error only when it failed.
type Task struct {
	ID          string     `json:"id"`
	SourceKind  SourceKind `json:"source_kind"`
	Status      TaskStatus `json:"status"`
	Result      *Result    `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	LargeFile   bool       `json:"large_file,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a pending task for an ID returned by the job service.
func NewTask(id string, kind SourceKind) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          id,
		SourceKind:  kind,
		Status:      TaskStatusPending,
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task invariants: a known status, a result only when
// completed and an error only when failed.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrTaskIDEmpty
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	if t.Result != nil && t.Status != TaskStatusCompleted {
		return ErrTaskResultNotAllowed
	}

	if t.Error != "" && t.Status != TaskStatusFailed {
		return ErrTaskErrorNotAllowed
	}

	return nil
}

// UpdateStatus moves the task to a non-terminal status.
func (t *Task) UpdateStatus(status TaskStatus) error {
	if !status.IsValid() {
		return ErrInvalidTaskStatus
	}
	if status.IsTerminal() {
		return errors.New("terminal status requires Complete or Fail")
	}

	t.Status = status
	t.Result = nil
	t.Error = ""
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete moves the task to the completed state with the given result.
// A nil result is stored as an empty payload so that completed tasks always
// carry one.
func (t *Task) Complete(result *Result) {
	if result == nil {
		result = &Result{}
	}
	t.Status = TaskStatusCompleted
	t.Result = result
	t.Error = ""
	t.UpdatedAt = time.Now().UTC()
}

// Fail moves the task to the failed state with the given message.
func (t *Task) Fail(message string) {
	if message == "" {
		message = DefaultFailureMessage
	}
	t.Status = TaskStatusFailed
	t.Result = nil
	t.Error = message
	t.UpdatedAt = time.Now().UTC()
}

// Clone returns a copy of the task that shares no mutable state with t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Result = t.Result.Clone()
	return &c
}

// DefaultFailureMessage is reported for failed jobs that carry no message.
const DefaultFailureMessage = "Processing failed."
