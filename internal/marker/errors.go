package marker

import (
	"errors"
	"fmt"
)

// Business-rule violations reported by the lifecycle manager. The HTTP layer
// maps each to a distinct response; the manager itself is transport-agnostic.
var (
	// ErrQuotaExceeded means the owner already has the maximum number of
	// active markers.
	ErrQuotaExceeded = errors.New("active marker quota exceeded")

	// ErrForbidden means the requester is neither the owner nor an admin.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means no such marker or user exists.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStatus means the target status is not one of active/inactive.
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidationError wraps a missing/malformed-field failure on an input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError wraps a persistence failure. The manager never retries;
// transient storage errors are the caller's concern.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
