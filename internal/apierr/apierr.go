package apierr

import (
	"errors"
	"fmt"
)

// Code is the wire error code shared with every API consumer. The numeric
// values are part of the public contract and must not be reordered.
type Code int

const (
	CodeNotFound Code = iota
	CodeNotAuthenticated
	CodeNotAuthorized
	CodeInvalidField
	CodeServerError
)

func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "NotFound"
	case CodeNotAuthenticated:
		return "NotAuthenticated"
	case CodeNotAuthorized:
		return "NotAuthorized"
	case CodeInvalidField:
		return "InvalidField"
	case CodeServerError:
		return "ServerError"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

type Error struct {
	Code Code
	Info string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Info != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Info)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, info string) *Error {
	return &Error{Code: code, Info: info}
}

func NotFound() *Error         { return &Error{Code: CodeNotFound} }
func NotAuthenticated() *Error { return &Error{Code: CodeNotAuthenticated} }
func NotAuthorized() *Error    { return &Error{Code: CodeNotAuthorized} }

func InvalidField(info string) *Error {
	return &Error{Code: CodeInvalidField, Info: info}
}

// ServerError wraps an infrastructure fault. The underlying error is kept
// for logs but never serialized into the response info.
func ServerError(err error) *Error {
	return &Error{Code: CodeServerError, Err: err}
}

// From maps any error to its API representation. Errors that are not already
// an *Error are treated as unexpected persistence failures.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return ServerError(err)
}
