package api

import (
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/domain/assessment"
)

// TranslateRequest is the payload of POST /api/jobs/{id}/translate.
type TranslateRequest struct {
	TargetLang string `json:"target_lang" validate:"required"`
}

// StartQuizRequest is the payload of POST /api/quizzes.
type StartQuizRequest struct {
	TaskID string `json:"task_id" validate:"required"`
}

// AnswerRequest is the payload of POST /api/quizzes/{id}/answer.
// Index is a pointer so that a missing index is distinguishable from 0.
type AnswerRequest struct {
	Index  *int   `json:"index"  validate:"required,min=0"`
	Option string `json:"option" validate:"required"`
}

// AttemptsResponse lists the recorded attempts of a task.
type AttemptsResponse struct {
	TaskID   string                `json:"task_id"`
	Attempts []*domain.QuizAttempt `json:"attempts"`
}

// ScoreResponse is the score of a quiz session.
type ScoreResponse struct {
	assessment.Score
	Passed bool `json:"passed"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	JobService string `json:"job_service"`
}
