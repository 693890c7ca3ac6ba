// Package apperr defines the typed error kinds shared by all domain
// services. Handlers translate kinds into HTTP statuses in one place so a
// storage outage can never surface as a domain failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and the HTTP layer.
type Kind uint8

// Error kinds surfaced to callers.
const (
	KindUnknown    Kind = iota // Unclassified internal failure.
	KindValidation             // Malformed or missing input.
	KindConflict               // Uniqueness or state conflict.
	KindNotFound               // Unknown id or code.
	KindCapacity               // Slot exhaustion.
	KindState                  // Illegal lifecycle transition.
	KindPermission             // Caller lacks the required role.
	KindUnauthenticated        // Missing or failed credentials.
	KindTransport              // Backend connectivity failure, retryable.
)

// String returns a stable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindCapacity:
		return "capacity"
	case KindState:
		return "state"
	case KindPermission:
		return "permission"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a kinded error with an optional wrapped cause.
type Error struct {
	Kind    Kind   // Classification used for HTTP mapping.
	Message string // User-visible message.
	cause   error  // Underlying error, if any.
}

// Error returns the user-visible message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a kinded error. The cause is not part of the
// user-visible message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Capacity builds a KindCapacity error.
func Capacity(format string, args ...any) *Error {
	return New(KindCapacity, format, args...)
}

// State builds a KindState error.
func State(format string, args ...any) *Error {
	return New(KindState, format, args...)
}

// Permission builds a KindPermission error.
func Permission(format string, args ...any) *Error {
	return New(KindPermission, format, args...)
}

// Unauthenticated builds a KindUnauthenticated error.
func Unauthenticated(format string, args ...any) *Error {
	return New(KindUnauthenticated, format, args...)
}

// Transport wraps a backend failure as retryable.
func Transport(cause error, format string, args ...any) *Error {
	return Wrap(KindTransport, cause, format, args...)
}

// KindOf extracts the kind from an error chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var kinded *Error
	if errors.As(err, &kinded) {
		return kinded.Kind
	}
	return KindUnknown
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the response status for its kind.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindCapacity, KindState:
		return http.StatusConflict
	case KindPermission:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
