package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lecgen/internal/domain"
)

// MemoryAttemptStore is an AttemptStore held in process memory.
type MemoryAttemptStore struct {
	mu     sync.RWMutex
	byTask map[string][]*domain.QuizAttempt
	ids    map[uuid.UUID]struct{}
}

var _ AttemptStore = (*MemoryAttemptStore)(nil)

// NewMemoryAttemptStore creates an empty store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{
		byTask: make(map[string][]*domain.QuizAttempt),
		ids:    make(map[uuid.UUID]struct{}),
	}
}

// Create implements AttemptStore.
func (s *MemoryAttemptStore) Create(ctx context.Context, attempt *domain.QuizAttempt) error {
	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[attempt.ID]; exists {
		return ErrAttemptExists
	}

	attempt.Number = len(s.byTask[attempt.TaskID]) + 1
	stored := *attempt
	s.byTask[attempt.TaskID] = append(s.byTask[attempt.TaskID], &stored)
	s.ids[attempt.ID] = struct{}{}
	return nil
}

// ListByTask implements AttemptStore.
func (s *MemoryAttemptStore) ListByTask(ctx context.Context, taskID string) ([]*domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempts := s.byTask[taskID]
	out := make([]*domain.QuizAttempt, len(attempts))
	for i, a := range attempts {
		c := *a
		out[i] = &c
	}
	return out, nil
}

// DeleteByTask implements AttemptStore.
func (s *MemoryAttemptStore) DeleteByTask(ctx context.Context, taskID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempts := s.byTask[taskID]
	for _, a := range attempts {
		delete(s.ids, a.ID)
	}
	delete(s.byTask, taskID)
	return len(attempts), nil
}
