package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/supervisor"
)

// Re-exported so callers need not import the supervisor package.
var (
	ErrBusy      = supervisor.ErrBusy
	ErrCancelled = supervisor.ErrCancelled
)

// RunError is a tools-binary run that exited non-zero. Message carries
// the binary's own ERROR| diagnostic when one was emitted.
type RunError struct {
	Message  string
	ExitCode int
	Logs     []string
}

func (e *RunError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tools run failed with exit code %d: %s", e.ExitCode, e.Message)
	}
	return fmt.Sprintf("tools run failed with exit code %d", e.ExitCode)
}

// Outcome describes a successful tools run.
type Outcome struct {
	// SavedPath is the output file reported by RESULT_SAVED|, empty
	// when the result rode stdout.
	SavedPath string
	// Result is the raw JSON payload of a RESULT| line, nil when the
	// binary wrote to a file instead.
	Result json.RawMessage
	// Logs holds every output line the run emitted.
	Logs []string
}

// Runner supervises the companion tools binary, one run at a time.
type Runner struct {
	sup    *supervisor.Supervisor
	logger logging.Logger
}

// NewRunner creates a runner resolving the tools binary via PATH.
func NewRunner(logger logging.Logger) *Runner {
	return &Runner{
		sup:    supervisor.NewForBinary(Binary, nil, logger),
		logger: logger,
	}
}

// CommandLine returns the full argv a run would execute.
func (r *Runner) CommandLine(args []string) []string {
	return r.sup.CommandLine(args)
}

// Cancel stops the in-flight run. Returns false when idle.
func (r *Runner) Cancel() bool {
	return r.sup.Cancel()
}

// Running reports whether a run is in flight.
func (r *Runner) Running() bool {
	return r.sup.Running()
}

// Transcribe runs the transcribe subcommand and blocks until it
// finishes. onProgress may be nil.
func (r *Runner) Transcribe(ctx context.Context, req TranscribeRequest, onProgress func(ProgressUpdate)) (Outcome, error) {
	return r.run(ctx, TranscribeArgs(req), onProgress)
}

// NoiseReduce runs the noise-reduce subcommand and blocks until it
// finishes. onProgress may be nil.
func (r *Runner) NoiseReduce(ctx context.Context, req NoiseReduceRequest, onProgress func(ProgressUpdate)) (Outcome, error) {
	return r.run(ctx, NoiseReduceArgs(req), onProgress)
}

func (r *Runner) run(ctx context.Context, args []string, onProgress func(ProgressUpdate)) (Outcome, error) {
	var mu sync.Mutex
	var outcome Outcome
	var toolError string

	// Both stream goroutines feed OnLog, so captures are guarded.
	listener := supervisor.Listener{
		OnLog: func(source, line string) {
			mu.Lock()
			defer mu.Unlock()
			// ERROR| rides stderr from the dispatcher and stdout from
			// the pipeline stages, so both streams are checked.
			if msg, ok := ParseErrorLine(line); ok {
				toolError = msg
				return
			}
			if source != "stdout" {
				return
			}
			if update, ok := ParseProgress(line); ok {
				if onProgress != nil {
					onProgress(update)
				}
				return
			}
			if payload, ok := ParseResult(line); ok {
				outcome.Result = payload
				return
			}
			if path, ok := ParseSavedPath(line); ok {
				outcome.SavedPath = path
			}
		},
	}

	res, err := r.sup.Run(ctx, args, listener)
	outcome.Logs = res.Logs
	if err != nil {
		var exitErr *supervisor.ExitCodeError
		if errors.As(err, &exitErr) {
			return outcome, &RunError{Message: toolError, ExitCode: exitErr.Code, Logs: res.Logs}
		}
		return outcome, err
	}
	return outcome, nil
}
