// Package errors provides the coded error taxonomy shared by the sync pipeline.
//
// Usage:
//
//	// In lower layers - wrap with a code at the boundary that knows the failure kind
//	if err != nil {
//	    return nil, errors.Wrap(err, errors.CodeTransport, "fetch listing")
//	}
//
//	// In callers - check with errors.Is against the sentinels
//	if errors.Is(err, errors.ErrInvalidData) {
//	    // keep showing local content
//	}
//
//	// Or switch on the Code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeTransport:
//	    case errors.CodeStorage:
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the pipeline.
const (
	// CodeTransport covers network, timeout and non-2xx HTTP failures.
	CodeTransport Code = "TRANSPORT"
	// CodeInvalidData means the listing payload was malformed or wholly unparsable.
	CodeInvalidData Code = "INVALID_DATA"
	// CodeStorage is a durability failure on read, write or commit.
	CodeStorage Code = "STORAGE"
	// CodeDecode means image bytes were fetched but are not a valid image.
	CodeDecode     Code = "DECODE"
	CodeNotFound   Code = "NOT_FOUND"
	CodeValidation Code = "VALIDATION"
	// CodeClosed is returned for work submitted after shutdown.
	CodeClosed   Code = "CLOSED"
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeTransport, CodeInvalidData, CodeDecode:
		return http.StatusBadGateway
	case CodeClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
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

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrTransport   = &Error{Code: CodeTransport, Message: "transport error"}
	ErrInvalidData = &Error{Code: CodeInvalidData, Message: "invalid data"}
	ErrStorage     = &Error{Code: CodeStorage, Message: "storage error"}
	ErrDecode      = &Error{Code: CodeDecode, Message: "image decode error"}
	ErrNotFound    = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation error"}
	ErrClosed      = &Error{Code: CodeClosed, Message: "closed"}
	ErrInternal    = &Error{Code: CodeInternal, Message: "internal error"}
)

// CodeOf returns the code carried by err, or CodeInternal when err is not coded.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Transportf creates a transport error with formatted message.
func Transportf(format string, args ...any) *Error {
	return &Error{Code: CodeTransport, Message: fmt.Sprintf(format, args...)}
}

// InvalidData creates an invalid data error.
func InvalidData(msg string) *Error {
	return &Error{Code: CodeInvalidData, Message: msg}
}

// InvalidDataf creates an invalid data error with formatted message.
func InvalidDataf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidData, Message: fmt.Sprintf(format, args...)}
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

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Closed creates a closed error.
func Closed(msg string) *Error {
	return &Error{Code: CodeClosed, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// Recode wraps err with code unless it already carries one, in which case it is
// returned unchanged so inner classifications survive.
func Recode(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(err, code, msg)
}
