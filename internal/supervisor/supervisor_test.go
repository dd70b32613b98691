package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/dividr/rendernode/internal/progress"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSupervisor swaps ffmpeg for sh and drops the control args so
// fixtures can be plain shell scripts.
func newTestSupervisor() *Supervisor {
	s := New(testLogger())
	s.binary = "sh"
	s.controlArgs = nil
	s.gracefulTimeout = 100 * time.Millisecond
	s.killTimeout = 100 * time.Millisecond
	return s
}

type runOutcome struct {
	res Result
	err error
}

// runAsync starts Run in a goroutine and returns its outcome channel.
func runAsync(s *Supervisor, args []string, l Listener) <-chan runOutcome {
	done := make(chan runOutcome, 1)
	go func() {
		res, err := s.Run(context.Background(), args, l)
		done <- runOutcome{res: res, err: err}
	}()
	return done
}

// waitRunning polls until a render is in flight, failing the test on timeout.
func waitRunning(t *testing.T, s *Supervisor) {
	t.Helper()
	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if s.Running() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timeout waiting for render to start")
}

func waitOutcome(t *testing.T, done <-chan runOutcome, timeout time.Duration) runOutcome {
	t.Helper()
	select {
	case out := <-done:
		return out
	case <-time.After(timeout):
		t.Fatal("timeout waiting for Run to return")
		return runOutcome{}
	}
}

func TestRunCollectsOutputAndProgress(t *testing.T) {
	s := newTestSupervisor()

	var records []progress.Record
	var statuses []string
	var stderrLines []string
	l := Listener{
		OnProgress: func(rec progress.Record) { records = append(records, rec) },
		OnStatus:   func(status string) { statuses = append(statuses, status) },
		OnLog: func(source, line string) {
			if source == "stderr" {
				stderrLines = append(stderrLines, line)
			}
		},
	}

	res, err := s.Run(context.Background(), []string{"-c",
		"echo frame=10; echo progress=continue; echo progress=end; echo 'some noise' >&2"}, l)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 0 || res.Cancelled {
		t.Errorf("Result = %+v, want exit 0 not cancelled", res)
	}

	if len(records) != 3 {
		t.Fatalf("got %d progress records, want 3", len(records))
	}
	if records[0].Frame == nil || *records[0].Frame != 10 {
		t.Errorf("first record Frame = %v, want 10", records[0].Frame)
	}
	if !records[2].Done() {
		t.Errorf("last record should be terminal: %+v", records[2])
	}

	want := []string{"Processing: continue", "Processing complete"}
	if !slices.Equal(statuses, want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}

	if !slices.Contains(stderrLines, "some noise") {
		t.Errorf("stderr lines = %v, want to contain 'some noise'", stderrLines)
	}
	if !slices.Contains(res.Logs, "some noise") || !slices.Contains(res.Logs, "frame=10") {
		t.Errorf("Result.Logs = %v, missing expected lines", res.Logs)
	}
}

func TestRunRejectsConcurrent(t *testing.T) {
	s := newTestSupervisor()

	done := runAsync(s, []string{"-c", "trap 'exit 0' INT TERM; while :; do sleep 0.1; done"}, Listener{})
	waitRunning(t, s)

	if _, err := s.Run(context.Background(), []string{"-c", "true"}, Listener{}); !errors.Is(err, ErrBusy) {
		t.Errorf("second Run() error = %v, want ErrBusy", err)
	}

	s.Cancel()
	waitOutcome(t, done, 2*time.Second)
}

func TestCancelGraceful(t *testing.T) {
	s := newTestSupervisor()
	s.gracefulTimeout = 500 * time.Millisecond

	done := runAsync(s, []string{"-c", "trap 'exit 0' INT TERM; while :; do sleep 0.1; done"}, Listener{})
	waitRunning(t, s)

	if !s.Cancel() {
		t.Fatal("Cancel() = false with a render in flight")
	}

	out := waitOutcome(t, done, 2*time.Second)
	if !errors.Is(out.err, ErrCancelled) {
		t.Errorf("Run() error = %v, want ErrCancelled", out.err)
	}
	if !out.res.Cancelled {
		t.Errorf("Result.Cancelled = false, want true")
	}

	// Slot must be free again.
	if res, err := s.Run(context.Background(), []string{"-c", "true"}, Listener{}); err != nil || res.ExitCode != 0 {
		t.Errorf("Run() after cancel: res = %+v, err = %v", res, err)
	}
}

func TestCancelForceKillOnTimeout(t *testing.T) {
	// Fixture ignores SIGINT, so the supervisor has to escalate.
	s := newTestSupervisor()
	s.gracefulTimeout = 50 * time.Millisecond

	done := runAsync(s, []string{"-c", "trap '' INT; sleep 10"}, Listener{})
	waitRunning(t, s)
	time.Sleep(50 * time.Millisecond)

	if !s.Cancel() {
		t.Fatal("Cancel() = false with a render in flight")
	}

	out := waitOutcome(t, done, 2*time.Second)
	if !errors.Is(out.err, ErrCancelled) {
		t.Errorf("Run() error = %v, want ErrCancelled", out.err)
	}
	// 128 + 9 for SIGKILL
	if out.res.ExitCode != 137 {
		t.Errorf("ExitCode = %d, want 137", out.res.ExitCode)
	}
}

func TestCancelWithoutRender(t *testing.T) {
	s := newTestSupervisor()
	if s.Cancel() {
		t.Error("Cancel() = true with no render in flight")
	}
}

func TestContextCancellation(t *testing.T) {
	s := newTestSupervisor()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan runOutcome, 1)
	go func() {
		res, err := s.Run(ctx, []string{"-c", "trap 'exit 0' INT TERM; while :; do sleep 0.1; done"}, Listener{})
		done <- runOutcome{res: res, err: err}
	}()
	waitRunning(t, s)

	cancel()
	out := waitOutcome(t, done, 2*time.Second)
	if !errors.Is(out.err, ErrCancelled) {
		t.Errorf("Run() error = %v, want ErrCancelled", out.err)
	}
}

func TestNonzeroExit(t *testing.T) {
	s := newTestSupervisor()

	res, err := s.Run(context.Background(), []string{"-c", "echo boom >&2; exit 42"}, Listener{})

	var exitErr *ExitCodeError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitCodeError", err)
	}
	if exitErr.Code != 42 || res.ExitCode != 42 {
		t.Errorf("exit code = %d/%d, want 42", exitErr.Code, res.ExitCode)
	}
	if !slices.Contains(res.Logs, "boom") {
		t.Errorf("Result.Logs = %v, want to contain 'boom'", res.Logs)
	}
}

func TestStartErrorReleasesSlot(t *testing.T) {
	s := newTestSupervisor()
	s.binary = "/nonexistent/binary/that/does/not/exist"

	_, err := s.Run(context.Background(), []string{"-c", "true"}, Listener{})
	var startErr *StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("Run() error = %v, want *StartError", err)
	}

	if s.Running() {
		t.Error("Running() = true after start failure")
	}

	s.binary = "sh"
	if _, err := s.Run(context.Background(), []string{"-c", "true"}, Listener{}); err != nil {
		t.Errorf("Run() after start failure: %v", err)
	}
}

func TestControlArgsPrefixed(t *testing.T) {
	// With sh as the binary, "-c" supplied via control args means the
	// render args are the script itself.
	s := newTestSupervisor()
	s.controlArgs = []string{"-c"}

	var gotLine string
	l := Listener{OnLog: func(source, line string) {
		if source == "stdout" {
			gotLine = line
		}
	}}
	if _, err := s.Run(context.Background(), []string{"echo hello"}, l); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gotLine != "hello" {
		t.Errorf("stdout line = %q, want %q", gotLine, "hello")
	}
}
