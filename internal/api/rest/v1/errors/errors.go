package errors

import (
	"context"
	"errors"
	"net/http"

	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
)

type (
	HandlersFoundNilArgument struct {
		Msg string
	}
)

func (e *HandlersFoundNilArgument) Error() string {
	return e.Msg
}

// Status maps an error to the HTTP status and machine-readable reason sent
// to the client.
func Status(err error) (int, string) {
	var (
		notFoundError         *serviceErrors.NotFoundError
		invalidArgumentError  *serviceErrors.InvalidArgumentError
		conflictError         *serviceErrors.ConflictError
		insufficientError     *serviceErrors.InsufficientBalanceError
		belowMinimumError     *serviceErrors.BelowMinimumError
		forbiddenError        *serviceErrors.ForbiddenError
		unauthorizedError     *serviceErrors.UnauthorizedError
		unavailableError      *serviceErrors.UnavailableError
		alreadyExistsError    *storageErrors.AlreadyExistsError
		contextTimeoutError   *storageErrors.ContextTimeoutExceededError
		storageNotFoundError  *storageErrors.NotFoundError
		storageUnavailableErr *storageErrors.UnavailableError
	)
	switch {
	case errors.As(err, &notFoundError), errors.As(err, &storageNotFoundError):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &invalidArgumentError):
		return http.StatusBadRequest, "invalid_argument"
	case errors.As(err, &conflictError):
		return http.StatusConflict, string(conflictError.Reason)
	case errors.As(err, &alreadyExistsError):
		return http.StatusConflict, "already_exists"
	case errors.As(err, &insufficientError):
		return http.StatusUnprocessableEntity, "insufficient_balance"
	case errors.As(err, &belowMinimumError):
		return http.StatusUnprocessableEntity, "below_minimum"
	case errors.As(err, &forbiddenError):
		return http.StatusForbidden, "forbidden"
	case errors.As(err, &unauthorizedError):
		return http.StatusUnauthorized, "unauthorized"
	case errors.As(err, &unavailableError), errors.As(err, &storageUnavailableErr):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.As(err, &contextTimeoutError), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, ""
}
