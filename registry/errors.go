package registry

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind rather than matching error strings.
//
// NOTE: Error() strings are kept human-readable and compatible with the
// registry's historical surface; they may evolve. Use errors.As to extract
// *Error for structured handling.
type Kind string

const (
	// KindUnauthorized: the caller lacks the required role or relationship.
	KindUnauthorized Kind = "Unauthorized"
	// KindInvalidArgument: a zero or empty value where a non-zero value is required.
	KindInvalidArgument Kind = "InvalidArgument"
	// KindConflict: creation of something that already exists.
	KindConflict Kind = "Conflict"
	// KindNotFound: reference to something that does not exist.
	KindNotFound Kind = "NotFound"
	// KindInvalidState: operation incompatible with the current lifecycle state.
	KindInvalidState Kind = "InvalidState"
)

// Error is the registry's structured error type.
//
// Every failed operation returns exactly one *Error naming the first
// violated precondition; no state is changed on failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
