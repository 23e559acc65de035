package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Attempt validation errors
var (
	ErrAttemptIDEmpty        = errors.New("attempt ID cannot be empty")
	ErrAttemptSessionIDEmpty = errors.New("attempt session ID cannot be empty")
	ErrAttemptTaskIDEmpty    = errors.New("attempt task ID cannot be empty")
	ErrAttemptScoreInvalid   = errors.New("attempt score is out of range")
)

// QuizAttempt records the outcome of one finished run-through of a quiz.
// Number counts attempts per task starting at 1 and is assigned by the store.
type QuizAttempt struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	TaskID       string    `json:"task_id"`
	Number       int       `json:"number"`
	CorrectCount int       `json:"correct_count"`
	Total        int       `json:"total"`
	Percentage   int       `json:"percentage"`
	Passed       bool      `json:"passed"`
	FinishedAt   time.Time `json:"finished_at"`
}

// NewQuizAttempt creates an attempt record for a finished session.
func NewQuizAttempt(
	sessionID uuid.UUID,
	taskID string,
	correctCount, total, percentage int,
	passed bool,
) (*QuizAttempt, error) {
	attempt := &QuizAttempt{
		ID:           uuid.New(),
		SessionID:    sessionID,
		TaskID:       taskID,
		CorrectCount: correctCount,
		Total:        total,
		Percentage:   percentage,
		Passed:       passed,
		FinishedAt:   time.Now().UTC(),
	}

	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	return attempt, nil
}

// Validate checks if the QuizAttempt has valid data.
func (a *QuizAttempt) Validate() error {
	if a.ID == uuid.Nil {
		return ErrAttemptIDEmpty
	}
	if a.SessionID == uuid.Nil {
		return ErrAttemptSessionIDEmpty
	}
	if a.TaskID == "" {
		return ErrAttemptTaskIDEmpty
	}
	if a.Total <= 0 || a.CorrectCount < 0 || a.CorrectCount > a.Total ||
		a.Percentage < 0 || a.Percentage > 100 {
		return ErrAttemptScoreInvalid
	}
	return nil
}
