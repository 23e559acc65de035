package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/phrazzld/lecgen/internal/api/shared"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/jobsvc"
)

// PYQAnalyzer runs past-paper analysis on the job service.
type PYQAnalyzer interface {
	AnalyzePYQ(ctx context.Context, req domain.PYQRequest) (*jobsvc.PYQReport, error)
}

// PYQHandler serves past-paper analysis.
type PYQHandler struct {
	analyzer PYQAnalyzer
	logger   *slog.Logger
}

// NewPYQHandler creates a PYQHandler.
func NewPYQHandler(analyzer PYQAnalyzer, logger *slog.Logger) *PYQHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PYQHandler{
		analyzer: analyzer,
		logger:   logger.With("component", "pyq_handler"),
	}
}

// AnalyzePYQ handles POST /api/pyq/analyze. The multipart body carries any
// number of "files" parts and an optional "drive_link" field.
func (h *PYQHandler) AnalyzePYQ(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	req, err := readPYQRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	report, err := h.analyzer.AnalyzePYQ(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	h.logger.Info("pyq analysis served",
		"files", len(req.Files),
		"topics", report.TopicsFound)
	shared.RespondWithJSON(w, r, http.StatusOK, report)
}

func readPYQRequest(r *http.Request) (domain.PYQRequest, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return domain.PYQRequest{}, fmt.Errorf("failed to parse form: %w", err)
	}

	req := domain.PYQRequest{DriveLink: r.FormValue("drive_link")}
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			return domain.PYQRequest{}, fmt.Errorf("failed to read upload: %w", err)
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return domain.PYQRequest{}, fmt.Errorf("failed to read upload: %w", err)
		}
		req.Files = append(req.Files, domain.PYQFile{Filename: header.Filename, Data: data})
	}
	return req, nil
}
