// Package domainerrors defines the coded error type shared by services, the
// onboarding core, and the HTTP layer.
//
// Services return *Error values (optionally wrapping an infrastructure cause).
// Transport code maps the Code to a status via ToHTTPStatus and never inspects
// messages. Infrastructure facts live in pkg/platform/sentinel and are
// translated into coded errors at the service boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine readable error classification.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTooManyRequests    Code = "too_many_requests"
	CodeUnavailable        Code = "unavailable"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error.
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

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf returns the code of the outermost coded error in the chain,
// or CodeInternal if the chain carries none.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return CodeValidation
	}
	return CodeInternal
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var coded *Error
		if !errors.As(err, &coded) {
			break
		}
		if coded.Code == code {
			return true
		}
		err = coded.cause
	}
	var verr *ValidationError
	return code == CodeValidation && errors.As(err, &verr)
}

// Is reports whether the outermost coded error in the chain carries code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// ValidationError reports one or more violations of input rules. Violations
// are human readable and ordered; FieldErrors, when present, are keyed by the
// field path reported by the upstream validator.
type ValidationError struct {
	Message     string
	Violations  []string
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%s: %s", CodeValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s (%d violations)", CodeValidation, e.Message, len(e.Violations))
}

// NewValidation builds a ValidationError from an ordered violation list.
func NewValidation(message string, violations []string) *ValidationError {
	return &ValidationError{Message: message, Violations: violations}
}

// AsValidation extracts a ValidationError from the chain.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// ToHTTPStatus maps an error code to the HTTP status used by handlers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
