package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable classification surfaced to
// callers alongside a human-readable message.
type ErrorKind string

const (
	KindAuthenticationRequired ErrorKind = "authentication_required"
	KindAuthenticationFailed   ErrorKind = "authentication_failed"
	KindAuthorizationDenied    ErrorKind = "authorization_denied"
	KindNotFound               ErrorKind = "resource_not_found"
	KindInvalidInput           ErrorKind = "invalid_input"
	KindOperationFailed        ErrorKind = "operation_failed"
)

// ErrAlreadyExists signals a unique-constraint collision to callers that
// want to fall back to a re-read.
var ErrAlreadyExists = errors.New("already exists")

// Error carries an ErrorKind so transport adapters can map failures to
// wire codes without inspecting error chains.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a kinded error with a plain message.
func E(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Ef builds a kinded error with a formatted message.
func Ef(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
