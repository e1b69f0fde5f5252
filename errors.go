package sagakit

import (
	"errors"
	"fmt"
)

// Kind is a stable discriminant carried alongside an error message so that
// callers branch on the kind rather than on parsed text.
type Kind string

const (
	KindUnknown           Kind = "UNKNOWN"
	KindNotFound          Kind = "NOT_FOUND"
	KindValidation        Kind = "VALIDATION"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindPaymentDeclined   Kind = "PAYMENT_DECLINED"
	KindShipmentRejected  Kind = "SHIPMENT_REJECTED"
)

// Error is the tagged error type produced by saga collaborators.
// Message is surfaced verbatim in saga results and failure events.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError constructs a tagged error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf constructs a tagged error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError tags an existing error without losing its chain.
func WrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from an error chain.
// Untagged errors report KindUnknown.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindUnknown
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
