package assessment

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors wrap one of these so callers can branch
// on the category with errors.Is.
var (
	// ErrInput is returned when a session cannot be built from the input.
	ErrInput = errors.New("invalid assessment input")

	// ErrSequence is returned when an operation is not allowed at the
	// current position of the session.
	ErrSequence = errors.New("assessment sequence violation")
)

// Specific errors
var (
	// ErrEmptyInput is returned when a session is loaded with no questions.
	ErrEmptyInput = fmt.Errorf("%w: question list is empty", ErrInput)

	// ErrInvalidQuestion is returned when a loaded question is malformed.
	ErrInvalidQuestion = fmt.Errorf("%w: malformed question", ErrInput)

	// ErrNotReady is returned when advancing past a question that has been
	// neither answered nor revealed.
	ErrNotReady = fmt.Errorf("%w: current question is not complete", ErrSequence)

	// ErrOutOfOrder is returned when answering a question other than the
	// one under the cursor.
	ErrOutOfOrder = fmt.Errorf("%w: answer does not target the current question", ErrSequence)

	// ErrNotMultipleChoice is returned when answering a free-response question.
	ErrNotMultipleChoice = fmt.Errorf("%w: question is not multiple choice", ErrSequence)
)
