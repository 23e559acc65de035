package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/events"
	"github.com/phrazzld/lecgen/internal/jobsvc"
)

// Translator requests translated copies of completed results.
type Translator interface {
	Translate(ctx context.Context, taskID, lang string) (*domain.Result, error)
}

// HistoryLister lists completed jobs known to the job service.
type HistoryLister interface {
	History(ctx context.Context) ([]jobsvc.HistoryEntry, error)
}

// ResultBook tracks the result currently displayed for each completed task.
type ResultBook struct {
	translator Translator
	history    HistoryLister
	logger     *slog.Logger

	mu      sync.RWMutex
	results map[string]*domain.Result
}

var _ events.EventHandler = (*ResultBook)(nil)

// NewResultBook creates an empty book. history may be nil, in which case
// only results observed through events or Put are known.
func NewResultBook(translator Translator, history HistoryLister, logger *slog.Logger) *ResultBook {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultBook{
		translator: translator,
		history:    history,
		logger:     logger.With("component", "result_book"),
		results:    make(map[string]*domain.Result),
	}
}

// HandleEvent records the result carried by a completion event.
func (b *ResultBook) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	if event.Type != events.EventTaskCompleted {
		return nil
	}
	if event.Result == nil {
		b.logger.Warn("completion event without result", "task_id", event.TaskID)
		return nil
	}

	b.Put(event.TaskID, event.Result)
	b.logger.Debug("result recorded", "task_id", event.TaskID, "quiz_items", len(event.Result.Quiz))
	return nil
}

// Put sets the displayed result for a task.
func (b *ResultBook) Put(taskID string, result *domain.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[taskID] = result.Clone()
}

// Forget drops the displayed result for a task.
func (b *ResultBook) Forget(taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.results, taskID)
}

// Get returns a copy of the displayed result for a task. Unknown tasks are
// looked up in the job service history; ErrResultNotFound is returned when
// neither has it.
func (b *ResultBook) Get(ctx context.Context, taskID string) (*domain.Result, error) {
	b.mu.RLock()
	result, ok := b.results[taskID]
	b.mu.RUnlock()
	if ok {
		return result.Clone(), nil
	}

	if b.history == nil {
		return nil, ErrResultNotFound
	}

	entries, err := b.history.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up task %s in history: %w", taskID, err)
	}
	for _, entry := range entries {
		if entry.ID != taskID || entry.Result == nil {
			continue
		}
		b.mu.Lock()
		if _, exists := b.results[taskID]; !exists {
			b.results[taskID] = entry.Result.Clone()
		}
		result = b.results[taskID]
		b.mu.Unlock()
		return result.Clone(), nil
	}

	return nil, ErrResultNotFound
}

// Translate replaces the displayed result with its translation into lang.
// On any failure the displayed result is left exactly as it was and the
// error is returned; translation failures are *jobsvc.TranslationError.
func (b *ResultBook) Translate(ctx context.Context, taskID, lang string) (*domain.Result, error) {
	if _, err := b.Get(ctx, taskID); err != nil {
		return nil, err
	}

	code, err := domain.ParseTargetLanguage(lang)
	if err != nil {
		return nil, &jobsvc.TranslationError{TaskID: taskID, Language: lang, Err: err}
	}

	translated, err := b.translator.Translate(ctx, taskID, string(code))
	if err != nil {
		return nil, err
	}
	if translated == nil {
		translated = &domain.Result{}
	}
	if translated.Language == "" {
		translated.Language = string(code)
	}

	b.mu.Lock()
	if _, exists := b.results[taskID]; exists {
		b.results[taskID] = translated.Clone()
	}
	b.mu.Unlock()

	b.logger.Info("result translated", "task_id", taskID, "language", code)
	return translated.Clone(), nil
}
