// Package apperror defines the error taxonomy shared by the gateway, the
// services, and the page handlers.
//
// Every failure a user action can hit is normalized into one of four
// categories before it reaches a handler:
//
//	ErrNetwork    the request to the remote API never completed
//	ErrRemote     the remote API answered with a non-2xx status
//	ErrMalformed  a 2xx response whose body is missing expected fields
//	ErrValidation a client-side precondition failed before any request
//
// Handlers convert these into a rendered error region plus a flash banner;
// nothing propagates past the handler that triggered the action.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNetwork    = errors.New("network failure")
	ErrRemote     = errors.New("remote api error")
	ErrMalformed  = errors.New("malformed response")
	ErrValidation = errors.New("validation failure")
)

// AppError carries the category sentinel plus the human-readable message
// shown to the user. Status is the remote HTTP status for ErrRemote errors
// and zero otherwise. Field names the offending form field for validation
// errors, when one applies.
type AppError struct {
	Err     error
	Message string
	Field   string
	Status  int
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Network wraps a transport-level failure (DNS, refused connection, closed
// body). The underlying error stays in the chain for logging; the message
// shown to users is generic.
func Network(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrNetwork, err),
		Message: "Could not reach the auction service. Please try again.",
	}
}

// Remote builds an error from a non-2xx remote response. The remote message
// is surfaced verbatim when present, else a generic fallback.
func Remote(status int, message string) *AppError {
	if message == "" {
		message = "An error occurred"
	}
	return &AppError{
		Err:     ErrRemote,
		Message: message,
		Status:  status,
	}
}

// Malformed reports a 2xx response that could not be used as-is.
func Malformed(detail string) *AppError {
	return &AppError{
		Err:     ErrMalformed,
		Message: "The auction service returned an unexpected response.",
		Field:   detail,
	}
}

// ValidationFailed reports a client-side precondition failure.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// IsUnauthorized reports whether err is a remote rejection of the caller's
// credentials, which the handlers treat as "session went stale".
func IsUnauthorized(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Status == http.StatusUnauthorized || appErr.Status == http.StatusForbidden
}

// Message extracts the user-facing message from any error. Unrecognized
// errors get a generic fallback so internal details never leak into a page.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An unexpected error occurred. Please try again."
}
