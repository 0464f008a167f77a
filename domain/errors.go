package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownCommand = errors.New("unknown command")

// Kind classifies business failures so callers can act on them without parsing messages.
type Kind string

const (
	NotFound             = Kind("not-found")
	InvalidState         = Kind("invalid-state")
	InvalidPrice         = Kind("invalid-price")
	AttemptsExceeded     = Kind("attempts-exceeded")
	ResponseTimeExceeded = Kind("response-time-exceeded")
	Conflict             = Kind("conflict")
	Validation           = Kind("validation")
)

// Error is a business failure of a known Kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound             = &Error{Kind: NotFound, Message: "not found"}
	ErrInvalidState         = &Error{Kind: InvalidState, Message: "invalid state"}
	ErrInvalidPrice         = &Error{Kind: InvalidPrice, Message: "invalid price"}
	ErrAttemptsExceeded     = &Error{Kind: AttemptsExceeded, Message: "attempts exceeded"}
	ErrResponseTimeExceeded = &Error{Kind: ResponseTimeExceeded, Message: "response time exceeded"}
	ErrConflict             = &Error{Kind: Conflict, Message: "conflict"}
	ErrValidation           = &Error{Kind: Validation, Message: "validation failed"}
)

// Errorf creates an *Error of the given kind.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
