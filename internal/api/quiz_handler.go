package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lecgen/internal/api/shared"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/domain/assessment"
	"github.com/phrazzld/lecgen/internal/service"
)

// QuizManager is the quiz surface used by QuizHandler.
type QuizManager interface {
	Start(ctx context.Context, taskID string) (*service.QuizView, error)
	Get(ctx context.Context, id uuid.UUID) (*service.QuizView, error)
	Answer(ctx context.Context, id uuid.UUID, index int, option string) (*service.QuizView, error)
	Reveal(ctx context.Context, id uuid.UUID) (*service.QuizView, error)
	Advance(ctx context.Context, id uuid.UUID) (*service.QuizView, error)
	Retake(ctx context.Context, id uuid.UUID) (*service.QuizView, error)
	Score(ctx context.Context, id uuid.UUID) (assessment.Score, error)
	End(ctx context.Context, id uuid.UUID) error
	Attempts(ctx context.Context, taskID string) ([]*domain.QuizAttempt, error)
}

var _ QuizManager = (*service.QuizService)(nil)

// QuizHandler serves the quiz endpoints.
type QuizHandler struct {
	quizzes QuizManager
	logger  *slog.Logger
}

// NewQuizHandler creates a QuizHandler.
func NewQuizHandler(quizzes QuizManager, logger *slog.Logger) *QuizHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizHandler{
		quizzes: quizzes,
		logger:  logger.With("component", "quiz_handler"),
	}
}

// StartQuiz handles POST /api/quizzes.
func (h *QuizHandler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	var req StartQuizRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.quizzes.Start(r.Context(), req.TaskID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, view)
}

// GetQuiz handles GET /api/quizzes/{id}.
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.quizzes.Get)
}

// AnswerQuestion handles POST /api/quizzes/{id}/answer.
func (h *QuizHandler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.quizzes.Answer(r.Context(), id, *req.Index, req.Option)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// RevealAnswer handles POST /api/quizzes/{id}/reveal.
func (h *QuizHandler) RevealAnswer(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.quizzes.Reveal)
}

// AdvanceQuiz handles POST /api/quizzes/{id}/advance.
func (h *QuizHandler) AdvanceQuiz(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.quizzes.Advance)
}

// RetakeQuiz handles POST /api/quizzes/{id}/retake.
func (h *QuizHandler) RetakeQuiz(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.quizzes.Retake)
}

// GetScore handles GET /api/quizzes/{id}/score.
func (h *QuizHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	score, err := h.quizzes.Score(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ScoreResponse{Score: score, Passed: score.Passed()})
}

// EndQuiz handles DELETE /api/quizzes/{id}.
func (h *QuizHandler) EndQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.quizzes.End(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAttempts handles GET /api/jobs/{id}/attempts.
func (h *QuizHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	attempts, err := h.quizzes.Attempts(r.Context(), taskID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AttemptsResponse{TaskID: taskID, Attempts: attempts})
}

// step runs a body-less session operation and writes the resulting view.
func (h *QuizHandler) step(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id uuid.UUID) (*service.QuizView, error),
) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := op(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}
