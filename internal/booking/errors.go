package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedInput marks an event with no rule in the current state.
	ErrUnrecognizedInput = errors.New("booking: unrecognized input")
	// ErrMalformedEvent marks input that could not be normalized.
	ErrMalformedEvent = errors.New("booking: malformed event")
	// ErrTransitionPanic marks a transition that panicked.
	ErrTransitionPanic = errors.New("booking: transition panic")
	// ErrClosed is returned after the dispatcher was closed.
	ErrClosed = errors.New("booking: dispatcher closed")
)

// TransitionPanicError carries a recovered panic. The session it hit is ended.
type TransitionPanicError struct {
	Value any
	Stack []byte
}

func (e *TransitionPanicError) Error() string {
	return fmt.Sprintf("booking: transition panic: %v", e.Value)
}

func (e *TransitionPanicError) Unwrap() error {
	return ErrTransitionPanic
}
