package service

import "errors"

// Sentinel errors returned by the services in this package. The API layer
// maps both to HTTP 404 Not Found.
var (
	// ErrResultNotFound indicates that no completed result is known for a task.
	ErrResultNotFound = errors.New("result not found")

	// ErrQuizNotFound indicates that a quiz session does not exist or has
	// already ended.
	ErrQuizNotFound = errors.New("quiz session not found")
)
