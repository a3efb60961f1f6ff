package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a job id does not exist in the store.
	ErrNotFound = errors.New("job not found")

	// ErrUnauthorized is returned when a presented release token does not
	// match the job's stored token on fetch or release.
	ErrUnauthorized = errors.New("invalid release token")

	// ErrInvalidState is returned when a transition is illegal for the
	// job's current status. The job record is left unchanged.
	ErrInvalidState = errors.New("illegal state transition")
)

// ValidationError rejects malformed input before it touches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError surfaces a persistence failure as-is; the core never
// retries, callers decide.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
