package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/lecgen/internal/api/shared"
	"github.com/phrazzld/lecgen/internal/jobsvc"
)

// HistoryClient is the job service history surface.
type HistoryClient interface {
	History(ctx context.Context) ([]jobsvc.HistoryEntry, error)
	DeleteHistory(ctx context.Context, id string) error
	DownloadHistory(ctx context.Context, id string) (*jobsvc.Download, error)
}

// ResultForgetter drops a displayed result.
type ResultForgetter interface {
	Forget(taskID string)
}

// TaskForgetter drops everything recorded locally for a task.
type TaskForgetter interface {
	ForgetTask(ctx context.Context, taskID string) error
}

// HistoryHandler serves the history endpoints.
type HistoryHandler struct {
	history HistoryClient
	results ResultForgetter
	quizzes TaskForgetter
	logger  *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(
	history HistoryClient,
	results ResultForgetter,
	quizzes TaskForgetter,
	logger *slog.Logger,
) *HistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryHandler{
		history: history,
		results: results,
		quizzes: quizzes,
		logger:  logger.With("component", "history_handler"),
	}
}

// ListHistory handles GET /api/history.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.History(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// DeleteHistory handles DELETE /api/history/{id}. Local state for the task
// is dropped only after the job service confirms the deletion.
func (h *HistoryHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.history.DeleteHistory(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	h.results.Forget(id)
	if err := h.quizzes.ForgetTask(r.Context(), id); err != nil {
		h.logger.Error("failed to forget quiz data for deleted task", "task_id", id, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadHistory handles GET /api/history/{id}/download.
func (h *HistoryHandler) DownloadHistory(w http.ResponseWriter, r *http.Request) {
	dl, err := h.history.DownloadHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(dl.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(dl.Data); err != nil {
		h.logger.Debug("failed to write download", "error", err)
	}
}
