package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error carrying an HTTP status code and a client-safe message.
// The wrapped cause is never serialized into responses.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with an explicit status code and cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message, Err: ErrValidation}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message, Err: ErrDuplicate}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: message, Err: ErrUnauthorized}
}

func NewInternalServerError(message string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message}
}

func NewGatewayTimeoutError(message string) *AppError {
	return &AppError{Code: http.StatusGatewayTimeout, Message: message, Err: ErrProviderUnavailable}
}

// FromError maps a service error to an AppError with a stable status code.
// Unknown errors become a generic 500 so that internal details never leak.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NewNotFoundError("resource not found")
	case errors.Is(err, ErrValidation):
		return NewBadRequestError(err.Error())
	case errors.Is(err, ErrDuplicate):
		return NewConflictError("resource already exists")
	case errors.Is(err, ErrUnauthorized):
		return NewUnauthorizedError("unauthorized")
	case errors.Is(err, ErrDecryptionFailed):
		return NewBadRequestError("credential could not be decrypted")
	case errors.Is(err, ErrCredentialUnavailable):
		return NewBadRequestError("no usable credential for this connection")
	case errors.Is(err, ErrProviderUnavailable):
		return NewGatewayTimeoutError("payment provider unavailable")
	default:
		return NewInternalServerError("internal server error")
	}
}
