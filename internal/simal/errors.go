package simal

import (
	"errors"
	"fmt"
)

// NetworkError indicates a transient failure reaching the backend: timeout,
// connectivity, or an unexpected server-side status. The caller rolls back
// any optimistic change and the operator may retry the same edit.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ConflictRejectedError indicates the backend refused the proposed placement.
// Message carries the backend-supplied reason verbatim.
type ConflictRejectedError struct {
	Message string
}

func (e *ConflictRejectedError) Error() string {
	return e.Message
}

// IsNetwork checks if an error is a transient network failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsConflictRejected checks if an error is a backend placement rejection.
func IsConflictRejected(err error) bool {
	var ce *ConflictRejectedError
	return errors.As(err, &ce)
}
