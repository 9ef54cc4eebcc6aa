// Package errors provides error types shared by the ledger services.
package errors

import (
	"context"
	"errors"
	"fmt"

	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/shopspring/decimal"
)

// ConflictReason tells which state precondition a request violated.
type ConflictReason string

const (
	ReasonDuplicatePending ConflictReason = "duplicate_pending"
	ReasonAlreadyReviewed  ConflictReason = "already_reviewed"
	ReasonAlreadyFinalized ConflictReason = "already_finalized"
)

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	InvalidArgumentError struct {
		Msg string
	}
	NotFoundError struct {
		Entity string
		ID     string
	}
	ConflictError struct {
		Reason ConflictReason
		ID     string
	}
	InsufficientBalanceError struct {
		Available decimal.Decimal
		Requested decimal.Decimal
	}
	BelowMinimumError struct {
		Minimum   decimal.Decimal
		Requested decimal.Decimal
	}
	ForbiddenError struct {
		Msg string
	}
	UnauthorizedError struct {
		Msg string
	}
	UnavailableError struct {
		Err error
	}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *InvalidArgumentError) Error() string {
	return e.Msg
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.ID, e.Reason)
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s", e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("withdrawal %s is below the minimum of %s", e.Requested.StringFixed(2), e.Minimum.StringFixed(2))
}

func (e *ForbiddenError) Error() string {
	return e.Msg
}

func (e *UnauthorizedError) Error() string {
	return e.Msg
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %s", e.Err.Error())
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// FromStorage translates storage failures into service errors. Errors that are
// already service errors and context timeouts pass through unchanged.
func FromStorage(err error) error {
	if err == nil {
		return nil
	}
	var notFoundError *storageErrors.NotFoundError
	var unavailableError *storageErrors.UnavailableError
	var conflictError *storageErrors.ConflictError
	var commitUnknownError *storageErrors.CommitUnknownError
	switch {
	case errors.As(err, &notFoundError):
		return &NotFoundError{Entity: notFoundError.Entity, ID: notFoundError.ID}
	case errors.As(err, &unavailableError), errors.As(err, &conflictError), errors.As(err, &commitUnknownError):
		return &UnavailableError{Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	return err
}
