// Package apperror distinguishes operational failures (expected, safe to show
// the caller) from programming errors, which only ever surface as a generic
// 500 in production.
package apperror

import "errors"

type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// Wrap attaches a cause while keeping the outward-facing message safe.
func Wrap(statusCode int, message string, err error) *Error {
	return &Error{StatusCode: statusCode, Message: message, Err: err}
}

func BadRequest(message string) *Error   { return New(400, message) }
func Unauthorized(message string) *Error { return New(401, message) }
func Forbidden(message string) *Error    { return New(403, message) }
func NotFound(message string) *Error     { return New(404, message) }
func Internal(message string) *Error     { return New(500, message) }

// Operational extracts the operational error from err's chain, if any.
func Operational(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
