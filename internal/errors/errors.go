// Package errors provides coded domain errors for the Tabsverse server.
//
// Services return *Error values built with the constructors below. The API
// layer inspects the Code to choose an HTTP status:
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    status := domainErr.HTTPStatus()
//	    ...
//	}
//
// Errors compare by code, so errors.Is(err, errors.ErrUploadFailed) holds for
// any upload failure regardless of its message.
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
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeInvalidURL    Code = "INVALID_URL"
	CodeConflict      Code = "CONFLICT"
	CodeRateLimited   Code = "RATE_LIMITED"
	CodeInternal      Code = "INTERNAL_ERROR"

	// Image pipeline.
	CodeDecode               Code = "DECODE_ERROR"
	CodeEnvironment          Code = "ENVIRONMENT_ERROR"
	CodeCompressionFailed    Code = "COMPRESSION_FAILED"
	CodeUploadFailed         Code = "UPLOAD_FAILED"
	CodeDatabaseUpdateFailed Code = "DATABASE_UPDATE_FAILED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation, CodeInvalidURL:
		return http.StatusBadRequest
	case CodeDecode, CodeCompressionFailed:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUploadFailed:
		return http.StatusBadGateway
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
	ErrNotFound             = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists        = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized         = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden            = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation           = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInvalidURL           = &Error{Code: CodeInvalidURL, Message: "invalid url"}
	ErrConflict             = &Error{Code: CodeConflict, Message: "conflict"}
	ErrRateLimited          = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrInternal             = &Error{Code: CodeInternal, Message: "internal error"}
	ErrDecode               = &Error{Code: CodeDecode, Message: "image could not be decoded"}
	ErrEnvironment          = &Error{Code: CodeEnvironment, Message: "image environment unavailable"}
	ErrCompressionFailed    = &Error{Code: CodeCompressionFailed, Message: "compression failed"}
	ErrUploadFailed         = &Error{Code: CodeUploadFailed, Message: "upload failed"}
	ErrDatabaseUpdateFailed = &Error{Code: CodeDatabaseUpdateFailed, Message: "database update failed"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
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

// InvalidURL creates an invalid URL error for raw.
func InvalidURL(raw string, cause error) *Error {
	return &Error{Code: CodeInvalidURL, Message: fmt.Sprintf("invalid url %q", raw), cause: cause}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Decode reports an image that could not be read.
func Decode(cause error) *Error {
	return &Error{Code: CodeDecode, Message: "image could not be decoded", cause: cause}
}

// Environment reports a missing image runtime capability.
func Environment(msg string, cause error) *Error {
	return &Error{Code: CodeEnvironment, Message: msg, cause: cause}
}

// CompressionFailed wraps a failure of the compression step.
func CompressionFailed(msg string, cause error) *Error {
	return &Error{Code: CodeCompressionFailed, Message: msg, cause: cause}
}

// UploadFailed wraps a failure of the storage upload step.
func UploadFailed(msg string, cause error) *Error {
	return &Error{Code: CodeUploadFailed, Message: msg, cause: cause}
}

// DatabaseUpdateFailed wraps a failure to persist a new cover.
func DatabaseUpdateFailed(msg string, cause error) *Error {
	return &Error{Code: CodeDatabaseUpdateFailed, Message: msg, cause: cause}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
