package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dividr/rendernode/internal/compile"
	"github.com/dividr/rendernode/internal/events"
	"github.com/dividr/rendernode/internal/job"
	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/metrics"
	"github.com/dividr/rendernode/internal/progress"
	"github.com/dividr/rendernode/internal/supervisor"
)

// Runner abstracts the process supervisor.
type Runner interface {
	Run(ctx context.Context, args []string, l supervisor.Listener) (supervisor.Result, error)
	Cancel() bool
	Running() bool
	CommandLine(args []string) []string
}

// Callbacks receives render events for in-process embedders. Any field
// may be nil; bus events are published regardless.
type Callbacks struct {
	OnProgress func(rec progress.Record)
	OnStatus   func(status string)
	OnLog      func(source, line string)
}

// Result describes a completed render.
type Result struct {
	// Command is the full argv that was executed, binary included.
	Command []string
	// Logs holds every output line the process emitted.
	Logs []string
}

// Status is a point-in-time snapshot of the engine.
type Status struct {
	Running bool     `json:"running" doc:"Whether a render is in flight"`
	JobID   string   `json:"job_id,omitempty" doc:"Identifier of the active render"`
	Command []string `json:"command,omitempty" doc:"Argv of the active render"`
}

// Engine compiles edit jobs and supervises their renders.
type Engine struct {
	assembler compile.Assembler
	runner    Runner
	bus       *events.Bus
	logger    logging.Logger

	mu      sync.Mutex
	jobID   string
	command []string
}

// New creates an engine rendering into outputDir.
func New(outputDir string, runner Runner, bus *events.Bus, logger logging.Logger) *Engine {
	return &Engine{
		assembler: compile.Assembler{OutputDir: outputDir},
		runner:    runner,
		bus:       bus,
		logger:    logger,
	}
}

// Compile resolves a job into the full command line without running it.
func (e *Engine) Compile(j *job.EditJob) ([]string, error) {
	args, err := e.assembler.Assemble(j)
	if err != nil {
		return nil, fmt.Errorf("compile job: %w", err)
	}
	return e.runner.CommandLine(args), nil
}

// Status returns a snapshot of the active render, if any.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.jobID == "" {
		return Status{}
	}
	return Status{Running: true, JobID: e.jobID, Command: e.command}
}

// Cancel stops the in-flight render. Returns false when idle.
func (e *Engine) Cancel() bool {
	return e.runner.Cancel()
}

// Run compiles the job and blocks until the render finishes. Only one
// render may run at a time; concurrent calls fail with ErrBusy. The
// compiled command and accumulated logs are returned even on failure.
func (e *Engine) Run(ctx context.Context, jobID string, j *job.EditJob, cb Callbacks) (Result, error) {
	args, err := e.assembler.Assemble(j)
	if err != nil {
		return Result{}, fmt.Errorf("compile job: %w", err)
	}
	command := e.runner.CommandLine(args)

	if err := e.reserve(jobID, command); err != nil {
		return Result{}, err
	}
	return e.execute(ctx, jobID, j.Output, args, command, cb)
}

// Start compiles the job, reserves the render slot, and runs the render
// in the background. Compile errors and ErrBusy surface immediately; the
// outcome arrives as a RenderFinishedEvent. Returns the full command line.
func (e *Engine) Start(jobID string, j *job.EditJob) ([]string, error) {
	args, err := e.assembler.Assemble(j)
	if err != nil {
		return nil, fmt.Errorf("compile job: %w", err)
	}
	command := e.runner.CommandLine(args)

	if err := e.reserve(jobID, command); err != nil {
		return nil, err
	}
	go func() {
		_, _ = e.execute(context.Background(), jobID, j.Output, args, command, Callbacks{})
	}()
	return command, nil
}

// reserve claims the single render slot.
func (e *Engine) reserve(jobID string, command []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.jobID != "" {
		return ErrBusy
	}
	e.jobID = jobID
	e.command = command
	return nil
}

// execute runs a reserved render to completion and releases the slot.
func (e *Engine) execute(ctx context.Context, jobID, output string, args, command []string, cb Callbacks) (Result, error) {
	defer func() {
		e.mu.Lock()
		e.jobID = ""
		e.command = nil
		e.mu.Unlock()
		metrics.DeleteRenderMetrics(jobID)
	}()

	e.logger.Info("Render starting", "job_id", jobID, "output", output)
	e.bus.Publish(events.RenderStartedEvent{
		JobID:     jobID,
		Command:   command,
		Output:    output,
		Timestamp: timestamp(),
	})

	listener := supervisor.Listener{
		OnProgress: func(rec progress.Record) {
			metrics.ObserveProgress(jobID, rec)
			e.bus.Publish(events.RenderProgressEvent{
				JobID:     jobID,
				Record:    rec,
				Timestamp: timestamp(),
			})
			if cb.OnProgress != nil {
				cb.OnProgress(rec)
			}
		},
		OnStatus: func(status string) {
			e.bus.Publish(events.RenderStatusEvent{
				JobID:     jobID,
				Status:    status,
				Timestamp: timestamp(),
			})
			if cb.OnStatus != nil {
				cb.OnStatus(status)
			}
		},
		OnLog: func(source, line string) {
			e.bus.Publish(events.RenderLogEvent{
				JobID:     jobID,
				Source:    source,
				Line:      line,
				Timestamp: timestamp(),
			})
			if cb.OnLog != nil {
				cb.OnLog(source, line)
			}
		},
	}

	res, runErr := e.runner.Run(ctx, args, listener)
	result := Result{Command: command, Logs: res.Logs}

	outcome, finalErr := classify(res, runErr)
	metrics.CountRender(outcome)

	finished := events.RenderFinishedEvent{
		JobID:     jobID,
		Outcome:   outcome,
		ExitCode:  res.ExitCode,
		Timestamp: timestamp(),
	}
	if finalErr != nil && outcome == "failure" {
		finished.Error = finalErr.Error()
	}
	e.bus.Publish(finished)

	switch outcome {
	case "success":
		e.logger.Info("Render finished", "job_id", jobID, "exit_code", res.ExitCode)
	case "cancelled":
		e.logger.Info("Render cancelled", "job_id", jobID, "exit_code", res.ExitCode)
	default:
		e.logger.Error("Render failed", "job_id", jobID, "exit_code", res.ExitCode, "error", finalErr)
	}

	return result, finalErr
}

// classify maps a supervisor outcome onto the engine error taxonomy.
func classify(res supervisor.Result, runErr error) (string, error) {
	switch {
	case runErr == nil:
		return "success", nil
	case errors.Is(runErr, ErrCancelled):
		return "cancelled", ErrCancelled
	default:
		var startErr *supervisor.StartError
		if errors.As(runErr, &startErr) {
			return "failure", &SpawnError{Err: startErr.Err}
		}
		var exitErr *supervisor.ExitCodeError
		if errors.As(runErr, &exitErr) {
			return "failure", &RuntimeError{ExitCode: exitErr.Code, Logs: res.Logs}
		}
		return "failure", runErr
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
