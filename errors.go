package sluice

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates use of a closed handle or stopped portal. No
	// network contact is made when an operation fails with this error.
	ErrClosed = errors.New(`sluice: closed`)

	// ErrNotStarted indicates a submission to a portal that was never
	// started.
	ErrNotStarted = errors.New(`sluice: portal not started`)

	// ErrAlreadyStarted indicates a second call to Portal.Start.
	ErrAlreadyStarted = errors.New(`sluice: portal already started`)

	errNilStream = errors.New(`sluice: factory returned a nil stream`)
)

// PanicError wraps a panic recovered from a unit of work executed on a
// portal's worker goroutine, and is returned to the submitting goroutine.
// The worker itself survives the panic.
type PanicError struct {
	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf(`sluice: panic in submitted work: %v`, e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type,
// enabling use with [errors.Is] and [errors.As] through the cause chain.
// If the panic value is not an error, returns nil.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
