package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable codes surfaced to callers.
const (
	CodeUnauthorized      = "unauthorized"
	CodeSessionTerminated = "session_terminated"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeDuplicate         = "duplicate"
	CodeValidation        = "validation_error"
	CodeUpstream          = "upstream_failure"
	CodeInternal          = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, err)
}

// SessionTerminated marks a credential superseded by a newer login. Kept
// distinct from Unauthorized so clients can show "logged in elsewhere".
func SessionTerminated() *Error {
	return New(http.StatusUnauthorized, CodeSessionTerminated, errors.New("session terminated by a newer login"))
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, CodeConflict, err)
}

func Duplicate(err error) *Error {
	return New(http.StatusConflict, CodeDuplicate, err)
}

func Validation(err error) *Error {
	return New(http.StatusUnprocessableEntity, CodeValidation, err)
}

func Upstream(err error) *Error {
	return New(http.StatusBadGateway, CodeUpstream, err)
}

// From normalizes any error into an *Error, wrapping unknown errors as
// internal so handlers never leak raw failure detail by accident.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}

func IsCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
