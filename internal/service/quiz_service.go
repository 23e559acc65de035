package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/domain/assessment"
	"github.com/phrazzld/lecgen/internal/store"
)

// ResultReader provides the displayed result a quiz is loaded from.
type ResultReader interface {
	Get(ctx context.Context, taskID string) (*domain.Result, error)
}

// QuestionView is the presentation of the question under the cursor. The
// correct answer and explanation are withheld until the question is revealed.
type QuestionView struct {
	Index         int                     `json:"index"`
	Type          assessment.QuestionType `json:"type"`
	Prompt        string                  `json:"prompt"`
	Options       []string                `json:"options,omitempty"`
	CorrectAnswer string                  `json:"correct_answer,omitempty"`
	Explanation   string                  `json:"explanation,omitempty"`
	Answer        *assessment.Answer      `json:"answer,omitempty"`
}

// QuizView is a snapshot of one quiz session.
type QuizView struct {
	ID       uuid.UUID         `json:"id"`
	TaskID   string            `json:"task_id"`
	Total    int               `json:"total"`
	Cursor   int               `json:"cursor"`
	Answered int               `json:"answered"`
	Progress float64           `json:"progress"`
	Revealed bool              `json:"revealed"`
	Finished bool              `json:"finished"`
	Current  QuestionView      `json:"current"`
	Score    *assessment.Score `json:"score,omitempty"`
}

type quizEntry struct {
	mu       sync.Mutex
	taskID   string
	session  *assessment.Session
	recorded bool
}

// QuizService manages the assessment sessions in progress.
type QuizService struct {
	results  ResultReader
	attempts store.AttemptStore
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*quizEntry
}

// NewQuizService creates a QuizService. It returns an error if a required
// dependency is nil.
func NewQuizService(
	results ResultReader,
	attempts store.AttemptStore,
	logger *slog.Logger,
) (*QuizService, error) {
	if results == nil {
		return nil, errors.New("results cannot be nil")
	}
	if attempts == nil {
		return nil, errors.New("attempts cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QuizService{
		results:  results,
		attempts: attempts,
		logger:   logger.With("component", "quiz_service"),
		sessions: make(map[uuid.UUID]*quizEntry),
	}, nil
}

// Start loads the quiz portion of a task's displayed result into a new
// session. A result without a usable quiz fails with an assessment.ErrInput
// error.
func (s *QuizService) Start(ctx context.Context, taskID string) (*QuizView, error) {
	result, err := s.results.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	session, err := assessment.NewSession(assessment.QuestionsFromQuiz(result.Quiz))
	if err != nil {
		s.logger.Warn("quiz could not be loaded", "task_id", taskID, "error", err)
		return nil, err
	}

	entry := &quizEntry{taskID: taskID, session: session}

	s.mu.Lock()
	s.sessions[session.ID()] = entry
	s.mu.Unlock()

	s.logger.Info("quiz started",
		"quiz_id", session.ID(),
		"task_id", taskID,
		"questions", session.Len(),
		"available", len(result.Quiz))

	return entry.view(), nil
}

// Get returns the current view of a session.
func (s *QuizService) Get(ctx context.Context, id uuid.UUID) (*QuizView, error) {
	return s.with(id, func(e *quizEntry) error { return nil })
}

// Answer selects an option for the question at index.
func (s *QuizService) Answer(ctx context.Context, id uuid.UUID, index int, option string) (*QuizView, error) {
	return s.with(id, func(e *quizEntry) error {
		return e.session.Answer(index, option)
	})
}

// Reveal shows the explanation of the current question.
func (s *QuizService) Reveal(ctx context.Context, id uuid.UUID) (*QuizView, error) {
	return s.with(id, func(e *quizEntry) error {
		return e.session.Reveal()
	})
}

// Advance moves to the next question. When the session finishes, its score
// is recorded as an attempt. A failed recording is retried on the next
// Advance of the finished session.
func (s *QuizService) Advance(ctx context.Context, id uuid.UUID) (*QuizView, error) {
	return s.with(id, func(e *quizEntry) error {
		if err := e.session.Advance(); err != nil {
			return err
		}
		if e.session.Finished() && !e.recorded {
			if err := s.record(ctx, e); err != nil {
				s.logger.Error("failed to record quiz attempt",
					"quiz_id", e.session.ID(),
					"task_id", e.taskID,
					"error", err)
				return nil
			}
			e.recorded = true
		}
		return nil
	})
}

// Retake restarts a session with the same questions.
func (s *QuizService) Retake(ctx context.Context, id uuid.UUID) (*QuizView, error) {
	return s.with(id, func(e *quizEntry) error {
		e.session.Retake()
		e.recorded = false
		return nil
	})
}

// Score returns the score of a session so far.
func (s *QuizService) Score(ctx context.Context, id uuid.UUID) (assessment.Score, error) {
	var score assessment.Score
	_, err := s.with(id, func(e *quizEntry) error {
		score = e.session.Score()
		return nil
	})
	return score, err
}

// End discards a session.
func (s *QuizService) End(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrQuizNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Attempts lists the recorded attempts for a task, oldest first.
func (s *QuizService) Attempts(ctx context.Context, taskID string) ([]*domain.QuizAttempt, error) {
	attempts, err := s.attempts.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts for task %s: %w", taskID, err)
	}
	return attempts, nil
}

// ForgetTask ends every session of a task and deletes its recorded attempts.
func (s *QuizService) ForgetTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	for id, e := range s.sessions {
		if e.taskID == taskID {
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	n, err := s.attempts.DeleteByTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete attempts for task %s: %w", taskID, err)
	}
	s.logger.Debug("task forgotten", "task_id", taskID, "attempts_deleted", n)
	return nil
}

// with runs fn on a session under its lock and returns the resulting view.
// The view is returned even when fn fails, with the error.
func (s *QuizService) with(id uuid.UUID, fn func(*quizEntry) error) (*QuizView, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrQuizNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := fn(entry); err != nil {
		return entry.view(), err
	}
	return entry.view(), nil
}

func (s *QuizService) record(ctx context.Context, e *quizEntry) error {
	score := e.session.Score()
	attempt, err := domain.NewQuizAttempt(
		e.session.ID(),
		e.taskID,
		score.CorrectCount,
		score.Total,
		score.Percentage,
		score.Passed(),
	)
	if err != nil {
		return err
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		return err
	}

	s.logger.Info("quiz attempt recorded",
		"quiz_id", e.session.ID(),
		"task_id", e.taskID,
		"attempt", attempt.Number,
		"percentage", score.Percentage,
		"verdict", score.Verdict)
	return nil
}

// view builds a snapshot. Callers hold e.mu.
func (e *quizEntry) view() *QuizView {
	sess := e.session
	cursor := sess.Cursor()
	q, _ := sess.Question(cursor)

	current := QuestionView{
		Index:   cursor,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Options: append([]string(nil), q.Options...),
	}
	if sess.ExplanationRevealed() {
		current.CorrectAnswer = q.CorrectAnswer
		current.Explanation = q.Explanation
	}
	if a, ok := sess.AnswerAt(cursor); ok {
		current.Answer = &a
	}

	v := &QuizView{
		ID:       sess.ID(),
		TaskID:   e.taskID,
		Total:    sess.Len(),
		Cursor:   cursor,
		Answered: len(sess.Ledger()),
		Progress: float64(cursor+1) / float64(sess.Len()),
		Revealed: sess.ExplanationRevealed(),
		Finished: sess.Finished(),
		Current:  current,
	}
	if v.Finished {
		score := sess.Score()
		v.Score = &score
	}
	return v
}
