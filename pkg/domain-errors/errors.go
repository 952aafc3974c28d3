// Package domainerrors defines the coded errors services return to callers.
//
// Stores report infrastructure facts through pkg/platform/sentinel; services
// translate those into a Code here so transports can map them without
// inspecting messages.
package domainerrors

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeBadRequest          Code = "bad_request"
	CodeInvalidInput        Code = "invalid_input"
	CodeValidation          Code = "validation_error"
	CodeUnauthenticated     Code = "unauthenticated"
	CodeUnauthorized        Code = "unauthorized"
	CodeNotFound            Code = "not_found"
	CodeCertificateNotFound Code = "certificate_not_found"
	CodeAlreadyInitialized  Code = "already_initialized"
	CodeInvalidLevel        Code = "invalid_level"
	CodeInvalidScore        Code = "invalid_score"
	CodeOverflow            Code = "overflow"
	CodeConflict            Code = "conflict"
	CodeTimeout             Code = "timeout"
	CodeInternal            Code = "internal_error"
)

// Error carries a stable code, a caller-facing message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code and message, so tests can use
// errors.Is against a freshly built expectation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation, CodeInvalidLevel, CodeInvalidScore:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound, CodeCertificateNotFound:
		return http.StatusNotFound
	case CodeAlreadyInitialized, CodeOverflow, CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
