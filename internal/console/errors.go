package console

import (
	"errors"
	"fmt"
)

// Kind classifies a console operation failure so each view can decide
// what the operator does next.
type Kind string

const (
	// KindValidation is bad local input; the request never left the console
	KindValidation Kind = "VALIDATION"
	// KindPreconditionFailed means the entity changed underneath the operator
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	// KindAuthFailed means the session is invalid and a re-login is required
	KindAuthFailed Kind = "AUTH_FAILED"
	// KindTransport is a network failure or an unexpected non-2xx status
	KindTransport Kind = "TRANSPORT"
	// KindMalformedResponse is an undecodable body from a trusted endpoint
	KindMalformedResponse Kind = "MALFORMED_RESPONSE"
)

// Error is the console operation error. Code and HTTPStatus are set only
// when the backing API answered with an error envelope.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a console Error of the given kind
func IsKind(err error, kind Kind) bool {
	var consoleErr *Error
	return errors.As(err, &consoleErr) && consoleErr.Kind == kind
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func transportError(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

func malformedError(message string, err error) *Error {
	return &Error{Kind: KindMalformedResponse, Message: message, Err: err}
}
