package booking

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindInvalidState  ErrorKind = "invalid_state"
	KindInvalidCode   ErrorKind = "invalid_code"
	KindPaymentFailed ErrorKind = "payment_failed"
)

// BookingError is a caller-facing failure. Nothing was mutated when one is
// returned.
type BookingError struct {
	Kind    ErrorKind
	Message string
}

func (e *BookingError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any BookingError of the same kind, so errors.Is(err, ErrNotFound)
// works for every not-found message.
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation    = &BookingError{Kind: KindValidation}
	ErrNotFound      = &BookingError{Kind: KindNotFound}
	ErrUnauthorized  = &BookingError{Kind: KindUnauthorized}
	ErrInvalidState  = &BookingError{Kind: KindInvalidState}
	ErrInvalidCode   = &BookingError{Kind: KindInvalidCode}
	ErrPaymentFailed = &BookingError{Kind: KindPaymentFailed}
)

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &BookingError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a BookingError in err's chain, or "" for
// infrastructure errors.
func KindOf(err error) ErrorKind {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}
