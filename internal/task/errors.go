package task

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is returned by Submit when a newer submission or a
	// cancellation happened while the job service call was in flight.
	ErrSuperseded = errors.New("submission superseded")

	// ErrClosed is returned when submitting to a closed tracker.
	ErrClosed = errors.New("tracker is closed")
)

// JobFailure is the terminal error of a job the service reported as failed.
type JobFailure struct {
	TaskID  string
	Message string
}

// Error implements the error interface.
func (e *JobFailure) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.TaskID, e.Message)
}
