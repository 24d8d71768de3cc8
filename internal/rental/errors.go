package rental

import (
	"errors"
	"fmt"
)

// Code classifies a failed rental or handover operation. Handlers map codes
// to HTTP statuses; messages name the violated invariant.
type Code string

const (
	CodeForbidden Code = "FORBIDDEN"
	CodeNotFound  Code = "NOT_FOUND"
	CodeConflict  Code = "CONFLICT"
	CodeInvalid   Code = "INVALID"
	CodeInternal  Code = "INTERNAL"
)

type Error struct {
	code Code
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Code() Code    { return e.code }

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return newError(CodeForbidden, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return newError(CodeNotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return newError(CodeConflict, format, args...)
}

func Invalidf(format string, args ...interface{}) *Error {
	return newError(CodeInvalid, format, args...)
}

func Internalf(format string, args ...interface{}) *Error {
	return newError(CodeInternal, format, args...)
}

// CodeOf extracts the error code; unknown errors count as internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeInternal
}

// HTTPStatus maps an error to the status the REST surface reports.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeForbidden:
		return 403
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	case CodeInvalid:
		return 400
	default:
		return 500
	}
}

// errStaleRecord signals a lost optimistic-concurrency race between reading
// a record and writing it back. The service retries the whole
// read-validate-write cycle; callers never observe this error directly.
var errStaleRecord = errors.New("record version changed since read")
