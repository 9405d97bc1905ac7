// Package errs provides the typed error kinds shared by every component, and
// the transport mapping tables that turn them into HTTP statuses and gRPC
// codes at the API boundary.
package errs

import (
	"errors"
	"fmt"
)

// Kind represents the category of an error raised by a core component.
type Kind int

const (
	// Internal is the catch-all for unexpected failures.
	Internal Kind = iota

	// ValidationError indicates input failed schema/constraint checks.
	ValidationError

	// AuthError indicates a missing, invalid, expired, or insufficient token.
	AuthError

	// NotFound indicates a referenced entity is absent.
	NotFound

	// Conflict indicates a CAS loser: state already advanced, or a duplicate
	// key collision the caller's intent cannot tolerate.
	Conflict

	// DependencyUnavailable indicates a DB/cache/blob backend error.
	DependencyUnavailable

	// IntegrityError indicates a reassembled hash did not match the
	// declared hash.
	IntegrityError
)

// String returns the wire-stable name of the kind.
func (k Kind) String() string {
	switch k {
	case ValidationError:
		return "ValidationError"
	case AuthError:
		return "AuthError"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	case DependencyUnavailable:
		return "DependencyUnavailable"
	case IntegrityError:
		return "IntegrityError"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Error is a typed error value carrying a Kind, a human-readable message, a
// field path (for ValidationError), and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Cause   error

	// Forbidden distinguishes an AuthError caused by an authenticated but
	// insufficiently privileged caller (403/PERMISSION_DENIED) from one
	// caused by a missing/invalid/expired token (401/UNAUTHENTICATED).
	Forbidden bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Kind, e.Message, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any, so errors.Is/As work through it.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation constructs a field-scoped ValidationError.
func Validation(field, message string) *Error {
	return &Error{Kind: ValidationError, Message: message, Field: field}
}

// Auth constructs an AuthError for a missing/invalid/expired token.
func Auth(message string) *Error {
	return &Error{Kind: AuthError, Message: message}
}

// Forbidden constructs an AuthError for an authenticated caller lacking the
// required capability.
func Forbidden(message string) *Error {
	return &Error{Kind: AuthError, Message: message, Forbidden: true}
}

// NotFoundf constructs a NotFound error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf constructs a Conflict error.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: Conflict, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a dependency failure (DB, cache, blob store).
func Unavailable(component string, cause error) *Error {
	return &Error{Kind: DependencyUnavailable, Message: component + " unavailable", Cause: cause}
}

// Integrity constructs an IntegrityError.
func Integrity(message string) *Error {
	return &Error{Kind: IntegrityError, Message: message}
}

// KindOf extracts the Kind from err, defaulting to Internal for untyped
// errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// AsError coerces any error into an *Error, wrapping untyped errors as
// Internal so transport mapping always has a Kind to work from.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Internal, Message: err.Error(), Cause: err}
}
