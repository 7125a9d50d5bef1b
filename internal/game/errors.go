package game

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable error classification. Kinds are the only
// error detail callers should branch on; messages are for humans.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindInvalidState Kind = "INVALID_STATE"
	KindConflict     Kind = "CONFLICT"
	KindNoData       Kind = "NO_DATA"
	KindValidation   Kind = "VALIDATION_ERROR"
)

// Error is a structured failure returned across the core boundary. Storage
// internals never leak through it.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a missing game, participant or round.
func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// Forbiddenf reports a caller acting on an identity it does not own.
func Forbiddenf(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

// InvalidStatef reports an operation that is illegal in the game's stage.
func InvalidStatef(format string, args ...any) *Error {
	return newError(KindInvalidState, format, args...)
}

// Conflictf reports capacity or duplicate-action collisions.
func Conflictf(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// NoDataf reports a resolution attempt with nothing to resolve.
func NoDataf(format string, args ...any) *Error {
	return newError(KindNoData, format, args...)
}

// Validationf reports malformed input: bad choice values, self-targeting,
// unknown targets.
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// KindOf extracts the Kind from err, or "" when err is not a core Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
