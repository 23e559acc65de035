package task

import (
	"context"
	"sync"

	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/jobsvc"
)

// MockJobClient is a JobClient driven by function fields for testing.
type MockJobClient struct {
	SubmitFn    func(ctx context.Context, in domain.SubmissionInput) (string, error)
	StatusFn    func(ctx context.Context, taskID string) (*jobsvc.StatusResponse, error)
	TranslateFn func(ctx context.Context, taskID string, lang domain.TargetLanguage) (*domain.Result, error)

	mu          sync.Mutex
	statusCalls map[string]int
}

var _ JobClient = (*MockJobClient)(nil)

// Submit calls SubmitFn.
func (m *MockJobClient) Submit(ctx context.Context, in domain.SubmissionInput) (string, error) {
	return m.SubmitFn(ctx, in)
}

// Status counts the call and invokes StatusFn.
func (m *MockJobClient) Status(ctx context.Context, taskID string) (*jobsvc.StatusResponse, error) {
	m.mu.Lock()
	if m.statusCalls == nil {
		m.statusCalls = make(map[string]int)
	}
	m.statusCalls[taskID]++
	m.mu.Unlock()
	return m.StatusFn(ctx, taskID)
}

// Translate calls TranslateFn.
func (m *MockJobClient) Translate(ctx context.Context, taskID string, lang domain.TargetLanguage) (*domain.Result, error) {
	return m.TranslateFn(ctx, taskID, lang)
}

// StatusCalls returns how many status requests were made for taskID.
func (m *MockJobClient) StatusCalls(taskID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls[taskID]
}
