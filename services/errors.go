package services

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies service errors for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindInvalidTransition
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidTransition:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error is the error type returned by the booking services.
// Path is set for line-item failures, e.g. "bookings.1.services.0".
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil && e.Kind == KindInternal {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrMalformedTimestamp = errors.New("scheduled_at is not a valid local date-time")
	ErrInvalidShiftType   = errors.New("invalid shift type")
	ErrWorkerNotFound     = errors.New("worker profile not found")
)

func NewValidationError(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "The given data was invalid.",
		Fields:  map[string]string{field: message},
	}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(from, to interface{}) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change booking status from %s to %s", from, to),
	}
}

// Precondition reports that the record's current state does not allow the
// operation. It shares the 400 response of an invalid status transition.
func Precondition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf classifies any error, translating gorm sentinel errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindConflict
	}
	return KindInternal
}

// atPath tags err with the failing line item. Field keys are prefixed too.
func atPath(err error, path string) error {
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Kind: KindOf(err), Message: "line item failed", Path: path, Err: err}
	}
	tagged := *e
	if tagged.Path != "" {
		tagged.Path = path + "." + tagged.Path
	} else {
		tagged.Path = path
	}
	if len(e.Fields) > 0 {
		tagged.Fields = make(map[string]string, len(e.Fields))
		for k, v := range e.Fields {
			tagged.Fields[path+"."+k] = v
		}
	}
	return &tagged
}
