// Package apperror defines the error kinds shared by the dashboard services.
//
// Every service error is an *Error carrying one of the sentinel kinds below,
// a user-facing message and, optionally, the underlying cause. Callers branch
// with errors.Is(err, apperror.ErrNotFound) and show err.Error() to users.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrPersistence      = errors.New("persistence error")
)

type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationFields reports per-field messages, e.g. from struct validation.
func ValidationFields(fields map[string]string) error {
	return &Error{Kind: ErrValidation, Message: "Validation failed", Fields: fields}
}

func PermissionDenied(message string) error {
	return &Error{Kind: ErrPermissionDenied, Message: message}
}

func NotFound(resource string) error {
	return &Error{Kind: ErrNotFound, Message: resource + " not found"}
}

func Conflict(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func Persistence(message string, cause error) error {
	return &Error{Kind: ErrPersistence, Message: message, Cause: cause}
}

// Message returns the user-facing text for err. Errors that did not come
// from this package are reported generically so internals do not leak.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong, please try again later"
}
