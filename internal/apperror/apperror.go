// Package apperror carries the error taxonomy shared by every domain package.
// Domain code declares sentinel errors with New; the HTTP layer maps the Code
// to a status.
package apperror

import "errors"

type Code int

const (
	Internal Code = iota
	BadRequest
	Unauthorized
	Forbidden
	NotFound
	Conflict
	BadGateway
)

func (c Code) String() string {
	switch c {
	case BadRequest:
		return "bad_request"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case BadGateway:
		return "bad_gateway"
	default:
		return "internal"
	}
}

// Error is a domain error with a machine-readable code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two domain errors by code and message, so wrapped sentinels
// still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Invalid is shorthand for a BadRequest error built from a validation message.
func Invalid(message string) *Error {
	return New(BadRequest, message)
}

// CodeOf returns the code of the first *Error in err's chain, or Internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// MessageOf returns the public message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
