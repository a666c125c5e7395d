// Package domainerrors provides coded errors that cross the service boundary.
//
// Services translate infrastructure sentinels (pkg/platform/sentinel) into
// coded errors here; the HTTP layer maps codes onto status codes without
// inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and branching.
type Code string

const (
	CodeBadRequest  Code = "bad_request"
	CodeValidation  Code = "validation"
	CodeNotFound    Code = "not_found"
	CodeConflict    Code = "conflict"
	CodeTimeout     Code = "timeout"
	CodeUnavailable Code = "unavailable"
	CodeInternal    Code = "internal"
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
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// Has reports whether err (or anything it wraps) carries the given code.
func Has(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for Has, matching call sites that read better as a predicate.
func Is(err error, code Code) bool { return Has(err, code) }

// HTTPStatus maps a code onto an HTTP status. Unknown codes map to 500.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
