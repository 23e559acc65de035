package jobsvc

import (
	"errors"
	"fmt"
)

// GenericFailureMessage is shown when the job service gives no usable detail.
const GenericFailureMessage = "The AI engine is currently unavailable. Please ensure the backend is running."

// Sentinel errors
var (
	// ErrTransient marks a status request that failed in a way that may
	// succeed on the next poll: network errors, non-2xx responses, and
	// undecodable or unrecognized bodies.
	ErrTransient = errors.New("transient job service error")

	// ErrNotFound is returned when the job service reports an unknown id.
	ErrNotFound = errors.New("not found in job service")

	// ErrMalformedResponse is returned when a 2xx response body cannot be used.
	ErrMalformedResponse = errors.New("malformed job service response")
)

// SubmissionError is returned when the job service refuses or cannot be
// reached for a new job. It is fatal to that attempt.
type SubmissionError struct {
	// StatusCode is the HTTP status, or 0 when no response was received
	StatusCode int
	// Detail is the service-provided message, if any
	Detail string
	// Err is the underlying cause
	Err error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("submission rejected (status %d): %s", e.StatusCode, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("submission failed: %v", e.Err)
	default:
		return fmt.Sprintf("submission rejected (status %d)", e.StatusCode)
	}
}

// Unwrap returns the underlying cause.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Message returns the text to show the user: the service detail when
// present, otherwise GenericFailureMessage.
func (e *SubmissionError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return GenericFailureMessage
}

// TranslationError is returned when a translation request fails. The
// previously displayed result stays valid.
type TranslationError struct {
	TaskID     string
	Language   string
	StatusCode int
	Detail     string
	Err        error
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	msg := fmt.Sprintf("translation of task %s to %q failed", e.TaskID, e.Language)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *TranslationError) Unwrap() error {
	return e.Err
}

// Message returns the text to show the user.
func (e *TranslationError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "Translation failed. Please try again."
}

// RequestError is returned by history operations.
type RequestError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}
