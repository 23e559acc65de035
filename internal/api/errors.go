package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/lecgen/internal/api/shared"
	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/domain/assessment"
	"github.com/phrazzld/lecgen/internal/jobsvc"
	"github.com/phrazzld/lecgen/internal/service"
	"github.com/phrazzld/lecgen/internal/store"
	"github.com/phrazzld/lecgen/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	var (
		subErr *jobsvc.SubmissionError
		trErr  *jobsvc.TranslationError
		reqErr *jobsvc.RequestError
	)

	switch {
	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnsupportedLanguage),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Quiz cannot be built from the result
	case errors.Is(err, assessment.ErrInput):
		return http.StatusUnprocessableEntity

	// Operation not allowed in the current state
	case errors.Is(err, assessment.ErrSequence),
		errors.Is(err, task.ErrSuperseded):
		return http.StatusConflict

	// Not found errors
	case errors.Is(err, service.ErrResultNotFound),
		errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, jobsvc.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, task.ErrClosed):
		return http.StatusServiceUnavailable

	// Job service rejected the request itself
	case errors.As(err, &reqErr) &&
		(reqErr.StatusCode == http.StatusBadRequest || reqErr.StatusCode == http.StatusUnprocessableEntity):
		return http.StatusBadRequest

	// Job service failures
	case errors.As(err, &subErr),
		errors.As(err, &trErr),
		errors.As(err, &reqErr),
		errors.Is(err, jobsvc.ErrTransient):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the message shown to the client for err.
// Details provided by the job service are passed through unchanged;
// everything else maps to a fixed message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		subErr *jobsvc.SubmissionError
		trErr  *jobsvc.TranslationError
		reqErr *jobsvc.RequestError
	)

	switch {
	case errors.Is(err, domain.ErrUnsupportedLanguage):
		return "Unsupported target language"
	case errors.As(err, &subErr):
		return subErr.Message()
	case errors.As(err, &trErr):
		return trErr.Message()
	case errors.As(err, &reqErr) && reqErr.Detail != "":
		return reqErr.Detail
	case errors.Is(err, domain.ErrInvalidSubmission):
		return "Invalid submission: provide exactly one non-empty url, text or file"
	case errors.Is(err, domain.ErrInvalidPYQ):
		return "Upload PDF, DOCX, TXT or CSV files or provide a Google Drive link"
	case errors.Is(err, service.ErrInvalidPreferences):
		return "Invalid preferences"
	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, assessment.ErrEmptyInput):
		return "This result has no quiz questions"
	case errors.Is(err, assessment.ErrInvalidQuestion):
		return "This result contains a malformed quiz question"
	case errors.Is(err, assessment.ErrNotReady):
		return "Answer or reveal the current question first"
	case errors.Is(err, assessment.ErrOutOfOrder):
		return "Only the current question can be answered"
	case errors.Is(err, assessment.ErrNotMultipleChoice):
		return "Free-response questions are revealed, not answered"

	case errors.Is(err, service.ErrResultNotFound):
		return "Result not found"
	case errors.Is(err, service.ErrQuizNotFound):
		return "Quiz not found"
	case errors.Is(err, jobsvc.ErrNotFound):
		return "Item not found"

	case errors.Is(err, task.ErrSuperseded):
		return "Submission was superseded by a newer one"
	case errors.Is(err, task.ErrClosed):
		return "Service is shutting down"

	case errors.As(err, &reqErr), errors.Is(err, jobsvc.ErrTransient):
		return jobsvc.GenericFailureMessage

	case errors.Is(err, store.ErrInternal):
		return "Quiz attempts are temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a short message
// naming the failing field.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// "Key: 'AnswerRequest.Option' Error:Field validation for 'Option' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(fieldParts[3]))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too small"
	case "max":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// respondWithServiceError maps err and writes the error response.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
