package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the domain and the application layer
// wraps exactly one of them; match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
)

// Error is a classified domain error with a message safe to show to callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a referenced entity that does not exist.
func NotFoundf(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// InvalidArgumentf reports malformed or out-of-range input.
func InvalidArgumentf(format string, args ...any) error {
	return newError(ErrInvalidArgument, format, args...)
}

// InvalidStatef reports an operation not allowed in the current lifecycle state.
func InvalidStatef(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

// InsufficientStockf reports a request larger than the sellable stock.
func InsufficientStockf(format string, args ...any) error {
	return newError(ErrInsufficientStock, format, args...)
}

// Conflictf reports a concurrent change that invalidated a plan. Callers
// retry the whole operation.
func Conflictf(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}
