package supervisor

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Run when a render is already in flight.
var ErrBusy = errors.New("render already in progress")

// ErrCancelled is returned by Run when the subprocess was stopped via
// Cancel or context cancellation.
var ErrCancelled = errors.New("render cancelled")

// StartError indicates the subprocess could not be spawned at all
// (missing binary, pipe setup failure).
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start process: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ExitCodeError indicates the subprocess exited with a nonzero code.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}
