package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrCooldown        = errors.New("cooldown")
)

// Error is a domain failure. Kind is one of the sentinels above, so callers
// branch with errors.Is and still get the descriptive Message.
type Error struct {
	Kind        error
	Message     string
	AvailableAt *time.Time
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

func forbiddenf(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}

func notFoundf(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

func conflictf(format string, args ...any) *Error {
	return newError(ErrConflict, format, args...)
}

func cooldownUntil(at time.Time) *Error {
	return &Error{
		Kind:        ErrCooldown,
		Message:     fmt.Sprintf("chore is cooling down until %s", at.UTC().Format(time.RFC3339)),
		AvailableAt: &at,
	}
}
