package errors

import (
	"errors"
	"fmt"
)

// Domain errors - Sentinel errors for use with errors.Is()
var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource already exists")
	ErrValidation = errors.New("validation error")
	ErrProvider   = errors.New("storage provider error")
)

// Custom error type with context
type AppError struct {
	Code    string
	Message string
	Err     error
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

// Constructors
func NotFound(msg string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: msg, Err: ErrNotFound}
}

func InternalServer(msg string, err error) *AppError {
	return &AppError{Code: "INTERNAL_SERVER_ERROR", Message: msg, Err: err}
}

// Validation reports a client input error. err should wrap ErrValidation so
// callers can match either the rule or the category.
func Validation(msg string, err error) *AppError {
	if err == nil {
		err = ErrValidation
	}
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Err: err}
}

// Provider carries a message reported by the storage provider. The message is
// meant to be shown to the caller verbatim.
func Provider(msg string, err error) *AppError {
	if err == nil {
		return &AppError{Code: "PROVIDER_ERROR", Message: msg, Err: ErrProvider}
	}
	return &AppError{Code: "PROVIDER_ERROR", Message: msg, Err: fmt.Errorf("%w: %w", ErrProvider, err)}
}

// PublicMessage returns the message of the first AppError in err's chain.
func PublicMessage(err error) (string, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message, true
	}
	return "", false
}
