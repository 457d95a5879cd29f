// Package errors defines the error taxonomy shared by services and transports.
// Every error a service returns is either one of the domain kinds below, with
// a message safe to show to clients, or an Internal error that hides its cause.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// InternalMessage is the only message clients ever see for unexpected failures.
const InternalMessage = "Internal Server Error"

// ErrAliasGenerationFailed is returned when no free alias was found within
// the configured number of attempts.
var ErrAliasGenerationFailed = errors.New("failed to generate unique alias")

// ErrEncodingFailed is returned when the QR encoder rejects its input.
var ErrEncodingFailed = errors.New("failed to encode QR code")

// Error carries a Kind, a status-like Code for transports and the message
// returned to the caller. Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: http.StatusNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Code: http.StatusConflict, Message: msg}
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Code: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: http.StatusUnauthorized, Message: msg}
}

// Internal wraps an unexpected collaborator failure. The cause is kept for
// logs and errors.Is, the message stays generic.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: http.StatusInternalServerError, Message: InternalMessage, Err: err}
}

// KindOf reports the Kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsDomain reports whether err is an expected domain error rather than an
// unexpected failure.
func IsDomain(err error) bool {
	return err != nil && KindOf(err) != KindInternal
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsInvalidInput(err error) bool { return KindOf(err) == KindInvalidInput }

// From returns err as an *Error, wrapping unknown errors as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
