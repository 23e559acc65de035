package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidSubmission is returned when a submission input is malformed:
	// unknown source kind, missing payload, or more than one payload.
	ErrInvalidSubmission = fmt.Errorf("%w: invalid submission", ErrValidation)

	// ErrInvalidTaskStatus is returned when a status string is not part of
	// the lifecycle vocabulary.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrUnsupportedLanguage is returned when a translation target is not one
	// of the supported language codes.
	ErrUnsupportedLanguage = errors.New("unsupported target language")
)
