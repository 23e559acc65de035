package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/lecgen/internal/api/shared"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/task"
)

// MaxUploadBytes bounds the size of a submission request body.
const MaxUploadBytes int64 = 512 << 20

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// JobTracker is the tracker surface used by JobHandler.
type JobTracker interface {
	Submit(ctx context.Context, in domain.SubmissionInput) (*domain.Task, error)
	Cancel()
	Snapshot() task.Snapshot
}

// ResultService provides displayed results and their translation.
type ResultService interface {
	Get(ctx context.Context, taskID string) (*domain.Result, error)
	Translate(ctx context.Context, taskID, lang string) (*domain.Result, error)
}

// JobHandler serves the job endpoints.
type JobHandler struct {
	tracker JobTracker
	results ResultService
	logger  *slog.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(tracker JobTracker, results ResultService, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{
		tracker: tracker,
		results: results,
		logger:  logger.With("component", "job_handler"),
	}
}

// SubmitJob handles POST /api/jobs/{kind}. The payload is the form field
// named after the kind: url, text or file.
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseSourceKind(chi.URLParam(r, "kind"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown source kind")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	in, err := readSubmission(r, kind)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if _, err := h.tracker.Submit(r.Context(), in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, h.tracker.Snapshot())
}

// GetCurrentJob handles GET /api/jobs/current.
func (h *JobHandler) GetCurrentJob(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.tracker.Snapshot())
}

// CancelJob handles DELETE /api/jobs/current.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	h.tracker.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// GetResult handles GET /api/jobs/{id}/result.
func (h *JobHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.results.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// TranslateResult handles POST /api/jobs/{id}/translate. On failure the
// displayed result is unchanged.
func (h *JobHandler) TranslateResult(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.results.Translate(r.Context(), chi.URLParam(r, "id"), req.TargetLang)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

func readSubmission(r *http.Request, kind domain.SourceKind) (domain.SubmissionInput, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return domain.SubmissionInput{}, fmt.Errorf("failed to parse form: %w", err)
	}

	switch kind {
	case domain.SourceKindYouTube:
		return domain.NewYouTubeInput(r.FormValue("url")), nil
	case domain.SourceKindText:
		return domain.NewTextInput(r.FormValue("text")), nil
	default:
		file, header, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return domain.NewFileInput("", nil), nil
		}
		if err != nil {
			return domain.SubmissionInput{}, fmt.Errorf("failed to read upload: %w", err)
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			return domain.SubmissionInput{}, fmt.Errorf("failed to read upload: %w", err)
		}
		return domain.NewFileInput(header.Filename, data), nil
	}
}
