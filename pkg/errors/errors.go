package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the failure categories the API
// translates to client-facing responses.
type Kind string

const (
	// KindValidation covers malformed input: empty content, missing ids.
	KindValidation Kind = "validation"
	// KindAuthentication covers bad or missing credentials.
	KindAuthentication Kind = "authentication"
	// KindAuthorization covers authenticated callers acting outside their
	// participant/owner/admin rights.
	KindAuthorization Kind = "authorization"
	// KindNotFound covers absent entities, including conversations malformed
	// beyond repair (wrong participant count).
	KindNotFound Kind = "not_found"
	// KindSelfReference covers self-message and self-conversation attempts.
	KindSelfReference Kind = "self_reference"
	// KindConfiguration covers missing or invalid infrastructure settings.
	KindConfiguration Kind = "configuration"
	// KindConnection covers transient store connectivity failures.
	KindConnection Kind = "connection"
	// KindQuery covers permanent query failures reported by the store.
	KindQuery Kind = "query"
	// KindPersistence covers writes that did not return a confirmation row.
	KindPersistence Kind = "persistence"
	// KindInternal covers everything unclassified.
	KindInternal Kind = "internal"
)

// Error is the kinded error carried across the service. The kind decides the
// HTTP status once, at the API boundary; retry decisions are made before
// translation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a kinded error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a kinded error wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Newf creates a kinded error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, unwrapping as needed. Errors that never
// passed through this package report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether the operation that produced err may be retried.
// Only transient connectivity failures qualify; everything else surfaces
// immediately.
func Retryable(err error) bool {
	return IsKind(err, KindConnection)
}

// HTTPStatus maps an error kind to its client-facing status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindSelfReference:
		return http.StatusUnprocessableEntity
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
