// Package apperr carries the error kinds the storefront distinguishes at its
// HTTP boundary, with optional structured details for business rejections.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	InvalidInput       Kind = "invalid_input"
	NotFound           Kind = "not_found"
	Forbidden          Kind = "forbidden"
	InsufficientStock  Kind = "insufficient_stock"
	InsufficientCodes  Kind = "insufficient_codes"
	InsufficientBudget Kind = "insufficient_budget"
	Conflict           Kind = "conflict"
	InvalidState       Kind = "invalid_state"
)

type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WithDetails(kind Kind, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
