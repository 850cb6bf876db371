// Package errors provides coded application errors shared by the service's
// repositories, workflow engine and transport handlers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an error independent of its message.
type Code string

const (
	ErrCodeInternal     Code = "INTERNAL"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeConflict     Code = "CONFLICT"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	// Workflow engine codes.
	ErrCodeAlreadyResolved   Code = "ALREADY_RESOLVED"
	ErrCodeUnsupportedAction Code = "UNSUPPORTED_ACTION"
	ErrCodeMissingRemarks    Code = "MISSING_REMARKS"
	ErrCodeVersionConflict   Code = "VERSION_CONFLICT"
)

// Error is a coded error. Two errors match under errors.Is when their codes
// are equal, so sentinel values can be compared against wrapped instances.
type Error struct {
	Code    Code
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

// InvalidInput reports a validation failure on a single field.
func InvalidInput(field, message string) *Error {
	return &Error{Code: ErrCodeInvalidInput, Field: field, Message: message}
}

// CodeOf extracts the code of the first *Error in err's chain. Uncoded errors
// are reported as ErrCodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// Is is a convenience re-export of the standard library errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is a convenience re-export of the standard library errors.As.
func As(err error, target any) bool { return stderrors.As(err, target) }
