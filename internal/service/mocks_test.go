package service

import (
	"context"

	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/jobsvc"
	"github.com/stretchr/testify/mock"
)

// MockTranslator mocks the Translator interface
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, taskID, lang string) (*domain.Result, error) {
	args := m.Called(ctx, taskID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Result), args.Error(1)
}

// MockHistoryLister mocks the HistoryLister interface
type MockHistoryLister struct {
	mock.Mock
}

func (m *MockHistoryLister) History(ctx context.Context) ([]jobsvc.HistoryEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]jobsvc.HistoryEntry), args.Error(1)
}

// MockAttemptStore mocks the store.AttemptStore interface
type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Create(ctx context.Context, attempt *domain.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptStore) ListByTask(ctx context.Context, taskID string) ([]*domain.QuizAttempt, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QuizAttempt), args.Error(1)
}

func (m *MockAttemptStore) DeleteByTask(ctx context.Context, taskID string) (int, error) {
	args := m.Called(ctx, taskID)
	return args.Int(0), args.Error(1)
}
