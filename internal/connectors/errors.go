package connectors

import (
	"errors"
	"fmt"
)

// TransientError wraps a connector failure that is worth retrying:
// timeouts, rate limits, 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient relay failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// TerminalError wraps a permanent rejection, e.g. the entity was deleted
// upstream. The engine dead-letters these without retrying.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal relay failure: %v", e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Terminal wraps err as a permanent rejection.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &TerminalError{Err: err}
}

// IsTransient reports whether err is (or wraps) a transient failure.
// Unclassified errors are treated as transient: retrying an operation
// that would have succeeded is safe, dead-lettering one that would have
// is not.
func IsTransient(err error) bool {
	var terminal *TerminalError
	if errors.As(err, &terminal) {
		return false
	}
	return true
}

// IsTerminal reports whether err is (or wraps) a permanent rejection.
func IsTerminal(err error) bool {
	var terminal *TerminalError
	return errors.As(err, &terminal)
}
