package apperr

import (
	"errors"
	"fmt"
)

// Error is a structured, request-local failure.
type Error struct {
	Code    Code   `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Kind so callers can compare against the sentinels below
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(code Code, kind Kind, message string) error {
	return &Error{Code: code, Kind: kind, Message: message}
}

func Wrap(code Code, kind Kind, message string, cause error) error {
	return &Error{Code: code, Kind: kind, Message: message, Cause: cause}
}

func Validation(msg string) error {
	return New(CodeInvalidArgument, KindValidation, msg)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, KindInternal, msg, cause)
}

// From extracts an *Error, or wraps err as an internal failure.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Code: CodeInternal, Kind: KindInternal, Message: "internal error", Cause: err}
}
