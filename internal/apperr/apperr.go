package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so the transport boundary can map it to a
// status code without inspecting individual error values.
type Kind string

const (
	KindBadRequest        Kind = "BAD_REQUEST"
	KindNotFound          Kind = "NOT_FOUND"
	KindOutOfStock        Kind = "OUT_OF_STOCK"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindConflict          Kind = "CONFLICT"
	KindForbidden         Kind = "FORBIDDEN"
	KindExpired           Kind = "EXPIRED"
	KindInternal          Kind = "INTERNAL"
)

// Error carries a stable machine-readable code plus a human message.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Set for KindInsufficientStock only.
	Requested int
	Available int

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

func BadRequest(code, message string) *Error {
	return New(KindBadRequest, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func Forbidden(code, message string) *Error {
	return New(KindForbidden, code, message)
}

func Expired(code, message string) *Error {
	return New(KindExpired, code, message)
}

func OutOfStock(code, message string) *Error {
	return New(KindOutOfStock, code, message)
}

// InsufficientStock carries both the requested and the available quantity.
func InsufficientStock(code string, requested, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Code:      code,
		Message:   fmt.Sprintf("requested %d but only %d available", requested, available),
		Requested: requested,
		Available: available,
	}
}

// KindOf extracts the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// From returns the *Error inside err, or nil when err is unclassified.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
