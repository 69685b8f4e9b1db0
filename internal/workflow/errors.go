// errors.go defines the typed error taxonomy shared by the workflow core and the
// HTTP boundary. Every rejection carries a machine-checkable kind plus a
// human-readable message naming the violated rule; the boundary maps kinds to
// HTTP status codes. Unexpected faults are the only errors that map to 500, and
// they must never occur for a known business condition.
package workflow

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a rejection.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"     // malformed input -> 400
	KindAuthorization ErrorKind = "authorization"  // role lacks permission -> 403
	KindNotFound      ErrorKind = "not_found"      // absent or out of tenant scope -> 404
	KindConflict      ErrorKind = "conflict"       // illegal transition, already decided -> 409
	KindUpstream      ErrorKind = "upstream"       // scoring gateway failure -> 502
	KindInternal      ErrorKind = "internal"       // programming/infra fault -> 500
)

// Error is the typed error returned by every workflow operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the status code the boundary responds with for this kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Constructors. Messages are user-visible; they must name the specific rule.

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(err error) *Error {
	return &Error{Kind: KindAuthorization, Message: err.Error(), Err: err}
}

func Upstreamf(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internalf wraps an unexpected fault. The wrapped cause is logged server-side
// but never exposed to the caller.
func Internalf(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from any error; non-workflow errors are internal.
func KindOf(err error) ErrorKind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindInternal
}

// StatusOf maps any error to its HTTP status.
func StatusOf(err error) int {
	var we *Error
	if errors.As(err, &we) {
		return we.HTTPStatus()
	}
	return http.StatusInternalServerError
}
