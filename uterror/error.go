// Package uterror defines the tagged error type used across the SDK.
// Every failure a caller can observe is an *Error with a Code from a closed
// set; the HTTP layer maps the code to a status and serializes the wire
// shape. Match with errors.As or the Is helper, never by message.
package uterror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies one failure class. The set is closed: user code must not
// invent new codes, and unknown codes map to HTTP 500.
type Code string

const (
	CodeBadRequest          Code = "BAD_REQUEST"
	CodeNotFound            Code = "NOT_FOUND"
	CodeForbidden           Code = "FORBIDDEN"
	CodeInternal            Code = "INTERNAL_SERVER_ERROR"
	CodeInvalidServerConfig Code = "INVALID_SERVER_CONFIG"
	CodeUploadFailed        Code = "UPLOAD_FAILED"
	CodeURLGenerationFailed Code = "URL_GENERATION_FAILED"
	CodeFileLimitExceeded   Code = "FILE_LIMIT_EXCEEDED"
	CodeTooLarge            Code = "TOO_LARGE"
)

var statusByCode = map[Code]int{
	CodeBadRequest:          http.StatusBadRequest,
	CodeNotFound:            http.StatusNotFound,
	CodeForbidden:           http.StatusForbidden,
	CodeInternal:            http.StatusInternalServerError,
	CodeInvalidServerConfig: http.StatusInternalServerError,
	CodeUploadFailed:        http.StatusInternalServerError,
	CodeURLGenerationFailed: http.StatusInternalServerError,
	CodeFileLimitExceeded:   http.StatusBadRequest,
	CodeTooLarge:            http.StatusRequestEntityTooLarge,
}

// Error is the single error shape crossing component boundaries.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a diagnostic cause. The cause is never shown to clients
// unless the deployment opts in via config.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// From returns err unchanged if it already is (or wraps) an *Error, so
// errors raised by user middleware in a recognized shape pass through
// verbatim. Anything else becomes INTERNAL_SERVER_ERROR with err as cause.
func From(err error) *Error {
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	return &Error{Code: CodeInternal, Message: "unexpected error", Cause: err}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Code == code
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Status returns the HTTP status for the error's code. Codes outside the
// closed set fall back to 500.
func (e *Error) Status() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WireError is the JSON body written for every failed request.
type WireError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// Wire converts the error to its client-visible form. The cause is included
// only when exposeCause is set (dev deployments, typically).
func (e *Error) Wire(exposeCause bool) WireError {
	w := WireError{Code: e.Code, Message: e.Message}
	if exposeCause && e.Cause != nil {
		w.Cause = e.Cause.Error()
	}
	return w
}
