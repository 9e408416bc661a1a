package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("conflict")
	ErrValidation          = errors.New("validation error")
	ErrInternal            = errors.New("internal error")
	ErrChannelUnconfigured = errors.New("notification channel not configured")
)

// AppError wraps an error with the failed operation and a readable message
type AppError struct {
	Err     error  // Original error (for logging)
	Message string // Human readable message
	Op      string // Operation that failed, e.g. "product.get"
	Field   string // Optional field name for validation errors
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for common errors

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %d not found", resource, id),
	}
}

func ValidationError(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

func Unconfigured(channel string) *AppError {
	return &AppError{
		Err:     ErrChannelUnconfigured,
		Message: fmt.Sprintf("%s channel is not configured", channel),
	}
}

func Wrap(err error, op, message string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Op:      op,
	}
}

// IsNotFound reports whether err is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is or wraps ErrConflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnconfigured reports whether err is or wraps ErrChannelUnconfigured
func IsUnconfigured(err error) bool {
	return errors.Is(err, ErrChannelUnconfigured)
}

// GetMessage extracts the readable message from err
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
