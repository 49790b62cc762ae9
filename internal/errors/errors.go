// Package errors provides standardized domain errors with codes for the audiobook toolkit.
//
// Usage:
//
//	// In the core packages - return typed errors
//	if a.Tracks != b.Tracks {
//	    return 0, errors.DifferentTracks("positions belong to different track lists")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrNoChapterFound) {
//	    logger.Error("TOC does not cover position", "error", err)
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeOutOfBounds:
//	        // clamp and retry
//	    case errors.CodeDifferentTracks:
//	        // programming error, surface it
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the toolkit.
const (
	// CodeDifferentTracks signals position arithmetic across unrelated track lists.
	CodeDifferentTracks Code = "DIFFERENT_TRACKS"
	// CodeOutOfBounds signals position arithmetic past the first or last track.
	CodeOutOfBounds Code = "OUT_OF_BOUNDS"
	// CodeNoChapterFound signals a TOC that fails to cover a valid position.
	// This is an invariant violation, not a routine outcome.
	CodeNoChapterFound Code = "NO_CHAPTER_FOUND"
	CodeNotFound       Code = "NOT_FOUND"
	CodeValidation     Code = "VALIDATION"
	CodeInternal       Code = "INTERNAL"
)

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrDifferentTracks = &Error{Code: CodeDifferentTracks, Message: "positions belong to different track lists"}
	ErrOutOfBounds     = &Error{Code: CodeOutOfBounds, Message: "position out of bounds"}
	ErrNoChapterFound  = &Error{Code: CodeNoChapterFound, Message: "no chapter found for position"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// DifferentTracks creates a different-tracks arithmetic error.
func DifferentTracks(msg string) *Error {
	return &Error{Code: CodeDifferentTracks, Message: msg}
}

// OutOfBounds creates an out of bounds error.
func OutOfBounds(msg string) *Error {
	return &Error{Code: CodeOutOfBounds, Message: msg}
}

// OutOfBoundsf creates an out of bounds error with formatted message.
func OutOfBoundsf(format string, args ...any) *Error {
	return &Error{Code: CodeOutOfBounds, Message: fmt.Sprintf(format, args...)}
}

// NoChapterFound creates a chapter resolution error.
func NoChapterFound(msg string) *Error {
	return &Error{Code: CodeNoChapterFound, Message: msg}
}

// NoChapterFoundf creates a chapter resolution error with formatted message.
func NoChapterFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNoChapterFound, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
