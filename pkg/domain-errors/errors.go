// Package domainerrors provides coded errors for workflow and transport layers.
//
// Services return these so handlers can map a Code to an HTTP status without
// string matching. Stores return pkg/platform/sentinel errors instead; the
// service layer translates.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and branching.
type Code string

const (
	// CodeValidation marks a missing or malformed required field. Surfaced
	// inline to the user, HTTP 422.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks a malformed identifier or enum value at a trust
	// boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally invalid request (bad JSON, missing
	// body).
	CodeBadRequest Code = "bad_request"
	// CodeConflict marks duplicate submissions and disallowed status
	// transitions.
	CodeConflict Code = "conflict"
	// CodeUnauthorized marks a missing or invalid session.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a non-admin calling an admin operation. Handlers
	// redirect without detail.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks operations on a missing application or profile.
	CodeNotFound Code = "not_found"
	// CodeUnavailable marks an external collaborator failure (object storage,
	// database) where the operation was aborted cleanly.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks states that should be unreachable, such as
	// an application type outside the known kinds.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal is the catch-all; its description is never shown to users.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or empty when the error
// carries none.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
