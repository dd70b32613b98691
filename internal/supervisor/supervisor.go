package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/progress"
)

// Listener receives output from a running render. Any field may be nil.
type Listener struct {
	// OnProgress receives each non-empty parsed progress record.
	OnProgress func(rec progress.Record)
	// OnStatus receives a human-readable status whenever the progress
	// marker changes ("Processing: continue", "Processing complete").
	OnStatus func(status string)
	// OnLog receives every raw output line with its source stream
	// ("stdout" or "stderr").
	OnLog func(source, line string)
}

// Result describes a finished render attempt.
type Result struct {
	ExitCode  int
	Logs      []string
	Cancelled bool
}

// Supervisor manages a single ffmpeg subprocess at a time.
type Supervisor struct {
	binary          string
	controlArgs     []string
	logger          logging.Logger
	gracefulTimeout time.Duration // timeout for graceful shutdown before force kill
	killTimeout     time.Duration // timeout after Kill() before giving up

	mu       sync.Mutex
	running  bool
	cmd      *exec.Cmd
	cancelCh chan struct{}
}

// New creates a supervisor that invokes ffmpeg with progress reporting
// on stdout and overwrite enabled.
func New(logger logging.Logger) *Supervisor {
	return NewForBinary("ffmpeg", []string{"-progress", "pipe:1", "-y"}, logger)
}

// NewForBinary creates a supervisor for an arbitrary binary. Every run
// gets the control args prefixed to its argv; pass nil for none.
func NewForBinary(binary string, controlArgs []string, logger logging.Logger) *Supervisor {
	return &Supervisor{
		binary:          binary,
		controlArgs:     controlArgs,
		logger:          logger,
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
	}
}

// CommandLine returns the full argv Run would execute for the given
// render args, including the binary and control args.
func (s *Supervisor) CommandLine(args []string) []string {
	argv := make([]string, 0, 1+len(s.controlArgs)+len(args))
	argv = append(argv, s.binary)
	argv = append(argv, s.controlArgs...)
	argv = append(argv, args...)
	return argv
}

// Running reports whether a render is currently in flight.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Cancel requests that the in-flight render stop. Returns false when no
// render is running. The blocked Run call observes the cancellation,
// signals the subprocess, and returns ErrCancelled.
func (s *Supervisor) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	select {
	case <-s.cancelCh:
		// already cancelled
	default:
		close(s.cancelCh)
	}
	return true
}

// Run starts the subprocess with the given args (prefixed by the control
// args) and blocks until it exits. Only one render may run at a time;
// concurrent calls return ErrBusy without waiting.
func (s *Supervisor) Run(ctx context.Context, args []string, l Listener) (Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Result{}, ErrBusy
	}
	s.running = true
	s.cancelCh = make(chan struct{})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.cmd = nil
		s.mu.Unlock()
	}()

	argv := make([]string, 0, len(s.controlArgs)+len(args))
	argv = append(argv, s.controlArgs...)
	argv = append(argv, args...)

	cmd := exec.Command(s.binary, argv...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.logger.Error("Failed to create stdout pipe", "error", err)
		return Result{}, &StartError{Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.logger.Error("Failed to create stderr pipe", "error", err)
		return Result{}, &StartError{Err: err}
	}

	if err := cmd.Start(); err != nil {
		s.logger.Error("Failed to start process", "binary", s.binary, "error", err)
		return Result{}, &StartError{Err: err}
	}

	s.mu.Lock()
	s.cmd = cmd
	cancelCh := s.cancelCh
	s.mu.Unlock()

	s.logger.Info("Process started", "pid", cmd.Process.Pid, "binary", s.binary)

	var logMu sync.Mutex
	var logs []string
	record := func(source, line string) {
		logMu.Lock()
		logs = append(logs, line)
		logMu.Unlock()
		if l.OnLog != nil {
			l.OnLog(source, line)
		}
	}

	// Drain both streams before Wait so the pipes are fully read.
	outputDone := make(chan struct{}, 2)
	go func() {
		s.streamStdout(stdout, l, record)
		outputDone <- struct{}{}
	}()
	go func() {
		s.streamStderr(stderr, record)
		outputDone <- struct{}{}
	}()

	processDone := make(chan error, 1)
	go func() {
		<-outputDone
		<-outputDone
		processDone <- cmd.Wait()
	}()

	var waitErr error
	cancelled := false

	select {
	case waitErr = <-processDone:
	case <-cancelCh:
		s.logger.Info("Cancellation requested, stopping process")
		cancelled = true
		s.sendStopSignal(cmd)
		waitErr = s.waitForExit(cmd, processDone)
	case <-ctx.Done():
		s.logger.Info("Context cancelled, stopping process")
		cancelled = true
		s.sendStopSignal(cmd)
		waitErr = s.waitForExit(cmd, processDone)
	}

	logMu.Lock()
	res := Result{
		ExitCode:  exitCodeFromError(waitErr),
		Logs:      logs,
		Cancelled: cancelled,
	}
	logMu.Unlock()

	if cancelled {
		s.logger.Info("Process cancelled", "exit_code", res.ExitCode)
		return res, ErrCancelled
	}
	if res.ExitCode != 0 {
		s.logger.Error("Process exited with error", "exit_code", res.ExitCode)
		return res, &ExitCodeError{Code: res.ExitCode}
	}
	s.logger.Info("Process finished", "exit_code", res.ExitCode)
	return res, nil
}

// sendStopSignal sends SIGINT to the subprocess without waiting.
func (s *Supervisor) sendStopSignal(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	s.logger.Info("Sending SIGINT to process", "pid", cmd.Process.Pid)
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		s.logger.Warn("Failed to send SIGINT", "error", err)
	}
}

// waitForExit waits for the process to exit, force-killing after the
// graceful timeout elapses.
func (s *Supervisor) waitForExit(cmd *exec.Cmd, processDone <-chan error) error {
	select {
	case err := <-processDone:
		return err
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Graceful shutdown timeout, forcing kill", "timeout", s.gracefulTimeout)
		if cmd.Process != nil {
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				s.logger.Error("Failed to kill process", "error", err)
			}
		}
		select {
		case err := <-processDone:
			return err
		case <-time.After(s.killTimeout):
			s.logger.Error("Process did not exit after kill signal")
			return fmt.Errorf("process did not exit after kill signal")
		}
	}
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// streamStdout reads progress output line by line. Every line is
// recorded verbatim; lines that decode to a progress record additionally
// fan out to OnProgress and OnStatus.
func (s *Supervisor) streamStdout(reader io.Reader, l Listener, record func(source, line string)) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		record("stdout", line)

		rec := progress.Parse(line)
		if rec.IsZero() {
			continue
		}
		if l.OnProgress != nil {
			l.OnProgress(rec)
		}
		if rec.Progress != "" && l.OnStatus != nil {
			if rec.Done() {
				l.OnStatus("Processing complete")
			} else {
				l.OnStatus("Processing: " + rec.Progress)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("Error reading output", "source", "stdout", "error", err)
	}
}

func (s *Supervisor) streamStderr(reader io.Reader, record func(source, line string)) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		record("stderr", scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("Error reading output", "source", "stderr", "error", err)
	}
}
