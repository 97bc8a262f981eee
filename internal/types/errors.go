package types

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures reported by the engine and its collaborators.
type ErrorKind string

const (
	KindImageDecodeFailed  ErrorKind = "image_decode_failed"
	KindInvalidInput       ErrorKind = "invalid_input"
	KindQuotaExceeded      ErrorKind = "quota_exceeded"
	KindServiceUnavailable ErrorKind = "service_unavailable"
)

// Sentinels for errors.Is. They compare by kind only.
var (
	ErrImageDecodeFailed  = &Error{Kind: KindImageDecodeFailed}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrQuotaExceeded      = &Error{Kind: KindQuotaExceeded}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
)

// Error is a typed domain error.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
