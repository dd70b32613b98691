package engine

import (
	"fmt"

	"github.com/dividr/rendernode/internal/supervisor"
)

// Sentinel errors shared with the supervisor so callers only need one
// package to classify outcomes.
var (
	ErrBusy      = supervisor.ErrBusy
	ErrCancelled = supervisor.ErrCancelled
)

// SpawnError indicates ffmpeg could not be started.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn render process: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// RuntimeError indicates the render process exited with a nonzero code.
// Logs carries the accumulated output lines for diagnostics.
type RuntimeError struct {
	ExitCode int
	Logs     []string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("render failed with exit code %d", e.ExitCode)
}
