// Package domainerrors provides coded errors for the service layer. Stores
// return sentinel errors (pkg/platform/sentinel); services translate them into
// coded errors here, and the HTTP layer maps codes to status codes. Keeping the
// code on the error (rather than on the transport) lets workers and the sweeper
// share the same taxonomy.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error. The set mirrors the verification failure
// taxonomy: business-rule failures are never retried automatically, transport
// failures may be.
type Code string

const (
	CodeNotFound       Code = "not_found"
	CodeInvalidInput   Code = "invalid_input"
	CodeConflict       Code = "conflict"
	CodeExpired        Code = "expired"
	CodeLocked         Code = "locked"
	CodeMismatch       Code = "mismatch"
	CodeAlreadyUsed    Code = "already_used"
	CodeDeliveryFailed Code = "delivery_failed"
	CodeUnauthorized   Code = "unauthorized"
	CodeUnavailable    Code = "upstream_unavailable"
	CodeInternal       Code = "internal"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. A nil err returns nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from err, walking the wrap chain.
// Returns CodeInternal for nil-safe unknown errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ToHTTPStatus maps a domain code to an HTTP status. Business-rule failures
// that require a fresh verification session map to 410 Gone so clients can
// distinguish "re-issue" from "retry".
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeExpired, CodeLocked, CodeAlreadyUsed:
		return http.StatusGone
	case CodeMismatch:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeDeliveryFailed:
		return http.StatusBadGateway
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
