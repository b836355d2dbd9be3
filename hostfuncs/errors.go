package hostfuncs

import (
	"errors"
	"fmt"
)

// Error kinds carried by HostError.
const (
	KindNotFound   = "NOT_FOUND"
	KindValidation = "VALIDATION_ERROR"
	KindInternal   = "INTERNAL_ERROR"
	KindPanic      = "PANIC"
)

var (
	// ErrNotFound is wrapped when a module or function is not registered.
	ErrNotFound = errors.New("builtin not found")

	// ErrRequestTooLarge is wrapped when a guest string exceeds the read limit.
	ErrRequestTooLarge = errors.New("request too large")

	// ErrResultTooLarge is returned when a result cannot be described by a
	// 32-bit wide pointer.
	ErrResultTooLarge = errors.New("result too large")
)

// HostError describes a failed builtin invocation. The runtime embedding
// turns it into a trap in the guest call that triggered it.
type HostError struct {
	Err      error
	Kind     string
	Module   string
	Function string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s %s.%s: %v", e.Kind, e.Module, e.Function, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports an unknown module or function.
func NewNotFoundError(module, function string) *HostError {
	return &HostError{Kind: KindNotFound, Module: module, Function: function, Err: ErrNotFound}
}

// NewValidationError reports arguments that could not be decoded.
func NewValidationError(module, function string, err error) *HostError {
	return &HostError{Kind: KindValidation, Module: module, Function: function, Err: err}
}

// NewPanicError converts a recovered panic value into a HostError.
func NewPanicError(module, function string, panicValue any) *HostError {
	var err error
	switch v := panicValue.(type) {
	case error:
		err = fmt.Errorf("panic: %w", v)
	case string:
		err = fmt.Errorf("panic: %s", v)
	default:
		err = errors.New("panic recovered")
	}
	return &HostError{Kind: KindPanic, Module: module, Function: function, Err: err}
}
