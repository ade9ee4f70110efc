package orchestrator

import (
	"errors"
	"fmt"
)

// ErrUnknownPlatform indicates an inbound event named a platform the
// engine has not enumerated.
var ErrUnknownPlatform = errors.New("unknown source platform")

// ErrUnknownAction indicates an inbound event carried an unrecognised
// action kind.
var ErrUnknownAction = errors.New("unknown action type")

// ErrAlreadyReplayed indicates a replay was requested for a dead letter
// that has already been replayed successfully.
var ErrAlreadyReplayed = errors.New("dead letter already replayed")

// PersistenceError wraps a storage failure that prevented the engine
// from durably recording an outcome. The event is left unprocessed and
// the caller must retry delivery; nothing past the failing write has
// happened.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
