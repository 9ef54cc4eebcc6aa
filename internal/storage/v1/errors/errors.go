// Package errors provides storage-level error types.
package errors

import (
	"fmt"
)

type (
	NotFoundError struct {
		Entity string
		ID     string
	}
	AlreadyExistsError struct {
		Err    error
		Entity string
		ID     string
	}
	// ConflictError reports that a concurrent unit invalidated the caller's
	// view of a record. The caller must re-read and retry.
	ConflictError struct {
		Err error
	}
	// UnavailableError reports a transient infrastructure fault.
	UnavailableError struct {
		Err error
	}
	// CommitUnknownError reports a commit whose outcome could not be
	// observed. The unit may have been applied and must not be rerun.
	CommitUnknownError struct {
		Err error
	}
	ContextTimeoutExceededError struct {
		Err error
	}
	ScanningError struct {
		Err error
	}
)

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.Entity, e.ID)
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s: already exists", e.Entity, e.ID)
}

func (e *AlreadyExistsError) Unwrap() error {
	return e.Err
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: concurrent update conflict", e.Err.Error())
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: storage unavailable", e.Err.Error())
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *CommitUnknownError) Error() string {
	return fmt.Sprintf("%s: commit outcome unknown", e.Err.Error())
}

func (e *CommitUnknownError) Unwrap() error {
	return e.Err
}

func (e *ContextTimeoutExceededError) Error() string {
	return fmt.Sprintf("%s: context timeout exceeded", e.Err.Error())
}

func (e *ContextTimeoutExceededError) Unwrap() error {
	return e.Err
}

func (e *ScanningError) Error() string {
	return fmt.Sprintf("%s: could not scan", e.Err.Error())
}

func (e *ScanningError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps a statement failure that fits no other category.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: could not execute", e.Err.Error())
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
