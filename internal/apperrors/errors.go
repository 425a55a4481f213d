// Package apperrors defines the error kinds shared by services and handlers
// and the single place where they are mapped onto HTTP status codes.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrAuth        = errors.New("authentication error")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("persistence error")
	ErrStorage     = errors.New("storage error")
)

// Error carries a kind, a user-facing message and the underlying cause.
// Message is safe to return to clients; Cause is only logged.
type Error struct {
	Kind    error
	Message string
	Details string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *Error) Is(target error) bool {
	return e != nil && e.Kind == target
}

func Validation(message string) *Error {
	return &Error{Kind: ErrValidation, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func Auth(message string, cause error) *Error {
	e := &Error{Kind: ErrAuth, Message: message, Cause: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func Conflict(message string, cause error) *Error {
	return &Error{Kind: ErrConflict, Message: message, Cause: cause}
}

func Persistence(cause error) *Error {
	return &Error{Kind: ErrPersistence, Message: "Database error", Cause: cause}
}

func Storage(cause error) *Error {
	return &Error{Kind: ErrStorage, Message: "File storage error", Cause: cause}
}

// HTTPStatus maps an error onto a response code. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrAuth):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that may be shown to clients.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Internal server error"
}
