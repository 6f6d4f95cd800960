package schedule

import (
	"errors"
	"fmt"
)

// Common scheduling errors.
var (
	// ErrEditInProgress indicates a task already has an unresolved edit.
	ErrEditInProgress = errors.New("edit already in progress")

	// ErrTaskNotFound indicates the task does not exist (locally or server-side).
	ErrTaskNotFound = errors.New("task not found")

	// ErrNoPendingEdit indicates confirm/rollback was called without an
	// active edit for the task.
	ErrNoPendingEdit = errors.New("no pending edit")
)

// ValidationError reports a locally-rejected proposal. It never reaches the
// backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation checks if an error is a local validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsEditInProgress checks if an error is a re-entrant edit rejection.
func IsEditInProgress(err error) bool {
	return errors.Is(err, ErrEditInProgress)
}

// IsNotFound checks if an error is a missing-task error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}
