// Package errors holds the error kinds raised by the matchmaking core.
//
// User-facing kinds (validation, domain state, not found) implement
// KnownError so the interaction layer can turn them into messages.
// Developer errors such as ErrNoConnection deliberately do not.
package errors

import (
	"errors"
	"fmt"
)

// KnownError marks errors that are safe to show to end users.
type KnownError interface {
	error
	Known()
}

type knownError struct {
	msg    string
	parent error
}

func (e *knownError) Error() string { return e.msg }
func (e *knownError) Known()        {}
func (e *knownError) Unwrap() error { return e.parent }

var (
	// ErrDomainState is the parent of the expected "nothing to search" conditions.
	ErrDomainState = errors.New("domain state")

	ErrNoVotes   KnownError = &knownError{msg: "user has no votes", parent: ErrDomainState}
	ErrNoCovotes KnownError = &knownError{msg: "user has no covotes", parent: ErrDomainState}
	ErrNotFound  KnownError = &knownError{msg: "not found"}

	// ErrNoConnection is returned when a caller forgets to pass a session handle.
	ErrNoConnection = errors.New("developer error: connection is required")
)

// ValidationError reports a rejected field assignment or malformed input.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Known()        {}
func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UnexpectedTypeError is raised at dispatch boundaries that meet a post or
// vote kind they do not know how to handle.
type UnexpectedTypeError struct {
	Op   string
	Type string
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("%s: unexpected type %s", e.Op, e.Type)
}

// Unexpected builds an UnexpectedTypeError describing v's dynamic type.
func Unexpected(op string, v any) error {
	return &UnexpectedTypeError{Op: op, Type: fmt.Sprintf("%T", v)}
}

// NotFound wraps ErrNotFound with the missing entity.
func NotFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
}

// IsKnown reports whether err belongs to the user-facing family.
func IsKnown(err error) bool {
	var known KnownError
	return errors.As(err, &known)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
