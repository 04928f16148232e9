package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the type of error
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrInvalidInput
	// ErrBusy means another mutating action holds the loading flag.
	ErrBusy
	// ErrTransport covers connection failures, timeouts and unreadable bodies.
	ErrTransport
	// ErrBackend means the ledger answered but rejected the request.
	ErrBackend
)

func (k Kind) String() string {
	switch k {
	case ErrNotFound:
		return "not_found"
	case ErrValidation:
		return "validation"
	case ErrConflict:
		return "conflict"
	case ErrInvalidInput:
		return "invalid_input"
	case ErrBusy:
		return "busy"
	case ErrTransport:
		return "transport"
	case ErrBackend:
		return "backend"
	default:
		return "internal"
	}
}

// Error is an application-level error with a kind for classification
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying error
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

// Is reports kind equality so sentinel errors match wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// Constructor functions for common error types

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func Busy(msg string) *Error {
	return &Error{Kind: ErrBusy, Message: msg}
}

func Transport(err error) *Error {
	return &Error{Kind: ErrTransport, Message: "ledger unreachable", Err: err}
}

// Backend records a rejection by the ledger. msg is the server-provided
// message and may be empty.
func Backend(msg string, err error) *Error {
	return &Error{Kind: ErrBackend, Message: msg, Err: err}
}

func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or ErrInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// ServerMessage is implemented by errors that carry a message the backend
// wants shown to the operator verbatim.
type ServerMessage interface {
	ServerMessage() string
}

// UserMessage picks the text an operator should see for err: a message from
// the backend when one is present, else fallback.
func UserMessage(err error, fallback string) string {
	var sm ServerMessage
	if stderrors.As(err, &sm) && sm.ServerMessage() != "" {
		return sm.ServerMessage()
	}
	var appErr *Error
	if stderrors.As(err, &appErr) && appErr.Kind == ErrBackend && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
