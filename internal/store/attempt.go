package store

import (
	"context"

	"github.com/phrazzld/lecgen/internal/domain"
)

// AttemptStore persists finished quiz attempts.
type AttemptStore interface {
	// Create records an attempt and assigns its per-task Number.
	// Returns a validation error wrapped in ErrInvalidEntity if the attempt
	// is invalid, or ErrAttemptExists if its id was already recorded.
	Create(ctx context.Context, attempt *domain.QuizAttempt) error

	// ListByTask returns every attempt for a task, oldest first.
	// Returns an empty slice when there are none.
	ListByTask(ctx context.Context, taskID string) ([]*domain.QuizAttempt, error)

	// DeleteByTask removes every attempt for a task and returns how many
	// were removed.
	DeleteByTask(ctx context.Context, taskID string) (int, error)
}
