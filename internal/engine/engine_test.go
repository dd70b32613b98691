package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dividr/rendernode/internal/events"
	"github.com/dividr/rendernode/internal/job"
	"github.com/dividr/rendernode/internal/progress"
	"github.com/dividr/rendernode/internal/supervisor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRunner scripts supervisor behavior without spawning processes.
type fakeRunner struct {
	mu      sync.Mutex
	running bool

	script func(l supervisor.Listener) // invoked before returning
	block  chan struct{}               // when non-nil, Run waits until closed
	res    supervisor.Result
	err    error

	cancelCalls int
}

func (f *fakeRunner) Run(_ context.Context, _ []string, l supervisor.Listener) (supervisor.Result, error) {
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.running = false
		f.mu.Unlock()
	}()

	if f.script != nil {
		f.script(l)
	}
	if f.block != nil {
		<-f.block
	}
	return f.res, f.err
}

func (f *fakeRunner) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return f.running
}

func (f *fakeRunner) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeRunner) CommandLine(args []string) []string {
	return append([]string{"ffmpeg", "-progress", "pipe:1", "-y"}, args...)
}

func singleInputJob() *job.EditJob {
	return &job.EditJob{
		Inputs: []job.InputSpec{{Path: "clip.mp4"}},
		Output: "out.mp4",
	}
}

func waitEvent[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
		var zero T
		return zero
	}
}

func TestRunSuccessPublishesEvents(t *testing.T) {
	bus := events.New()
	frame := 10
	runner := &fakeRunner{
		script: func(l supervisor.Listener) {
			l.OnLog("stdout", "frame=10")
			l.OnProgress(progress.Record{Frame: &frame})
			l.OnStatus("Processing complete")
		},
		res: supervisor.Result{ExitCode: 0, Logs: []string{"frame=10"}},
	}
	e := New("/renders", runner, bus, testLogger())

	started := make(chan events.RenderStartedEvent, 1)
	progressed := make(chan events.RenderProgressEvent, 1)
	finished := make(chan events.RenderFinishedEvent, 1)
	defer bus.Subscribe(func(e events.RenderStartedEvent) { started <- e })()
	defer bus.Subscribe(func(e events.RenderProgressEvent) { progressed <- e })()
	defer bus.Subscribe(func(e events.RenderFinishedEvent) { finished <- e })()

	var statuses []string
	res, err := e.Run(context.Background(), "job-1", singleInputJob(), Callbacks{
		OnStatus: func(s string) { statuses = append(statuses, s) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantCmd := []string{"ffmpeg", "-progress", "pipe:1", "-y", "-i", "clip.mp4", "/renders/out.mp4"}
	if !slices.Equal(res.Command, wantCmd) {
		t.Errorf("Command = %v, want %v", res.Command, wantCmd)
	}
	if !slices.Equal(res.Logs, []string{"frame=10"}) {
		t.Errorf("Logs = %v", res.Logs)
	}
	if !slices.Equal(statuses, []string{"Processing complete"}) {
		t.Errorf("statuses = %v", statuses)
	}

	if ev := waitEvent(t, started); ev.JobID != "job-1" || ev.Output != "out.mp4" {
		t.Errorf("started event = %+v", ev)
	}
	if ev := waitEvent(t, progressed); ev.Record.Frame == nil || *ev.Record.Frame != 10 {
		t.Errorf("progress event = %+v", ev)
	}
	if ev := waitEvent(t, finished); ev.Outcome != "success" || ev.ExitCode != 0 {
		t.Errorf("finished event = %+v", ev)
	}
}

func TestRunRejectsConcurrent(t *testing.T) {
	bus := events.New()
	runner := &fakeRunner{block: make(chan struct{})}
	e := New("", runner, bus, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := e.Run(context.Background(), "job-1", singleInputJob(), Callbacks{})
		done <- err
	}()

	// Wait until the first render holds the slot.
	deadline := time.Now().Add(1 * time.Second)
	for !e.Status().Running {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for render to start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := e.Run(context.Background(), "job-2", singleInputJob(), Callbacks{}); !errors.Is(err, ErrBusy) {
		t.Errorf("second Run() error = %v, want ErrBusy", err)
	}

	close(runner.block)
	if err := <-done; err != nil {
		t.Errorf("first Run() error = %v", err)
	}
	if st := e.Status(); st.Running {
		t.Errorf("Status still running after completion: %+v", st)
	}
}

func TestStatusReflectsActiveRender(t *testing.T) {
	bus := events.New()
	runner := &fakeRunner{block: make(chan struct{})}
	e := New("", runner, bus, testLogger())

	if st := e.Status(); st.Running {
		t.Errorf("idle engine reports running: %+v", st)
	}

	done := make(chan struct{})
	go func() {
		_, _ = e.Run(context.Background(), "job-9", singleInputJob(), Callbacks{})
		close(done)
	}()

	deadline := time.Now().Add(1 * time.Second)
	for !e.Status().Running {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for render to start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	st := e.Status()
	if st.JobID != "job-9" || len(st.Command) == 0 {
		t.Errorf("Status = %+v", st)
	}

	close(runner.block)
	<-done
}

func TestRunExitErrorBecomesRuntimeError(t *testing.T) {
	bus := events.New()
	runner := &fakeRunner{
		res: supervisor.Result{ExitCode: 1, Logs: []string{"No such file or directory"}},
		err: &supervisor.ExitCodeError{Code: 1},
	}
	e := New("", runner, bus, testLogger())

	finished := make(chan events.RenderFinishedEvent, 1)
	defer bus.Subscribe(func(e events.RenderFinishedEvent) { finished <- e })()

	res, err := e.Run(context.Background(), "job-1", singleInputJob(), Callbacks{})

	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("Run() error = %v, want *RuntimeError", err)
	}
	if rtErr.ExitCode != 1 || !slices.Contains(rtErr.Logs, "No such file or directory") {
		t.Errorf("RuntimeError = %+v", rtErr)
	}
	if !slices.Contains(res.Logs, "No such file or directory") {
		t.Errorf("Result.Logs = %v", res.Logs)
	}

	if ev := waitEvent(t, finished); ev.Outcome != "failure" || ev.Error == "" {
		t.Errorf("finished event = %+v", ev)
	}
}

func TestRunSpawnError(t *testing.T) {
	bus := events.New()
	runner := &fakeRunner{
		err: &supervisor.StartError{Err: errors.New("no such binary")},
	}
	e := New("", runner, bus, testLogger())

	_, err := e.Run(context.Background(), "job-1", singleInputJob(), Callbacks{})
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Run() error = %v, want *SpawnError", err)
	}
}

func TestRunCancelled(t *testing.T) {
	bus := events.New()
	runner := &fakeRunner{
		res: supervisor.Result{ExitCode: 137, Cancelled: true},
		err: supervisor.ErrCancelled,
	}
	e := New("", runner, bus, testLogger())

	finished := make(chan events.RenderFinishedEvent, 1)
	defer bus.Subscribe(func(e events.RenderFinishedEvent) { finished <- e })()

	_, err := e.Run(context.Background(), "job-1", singleInputJob(), Callbacks{})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}

	ev := waitEvent(t, finished)
	if ev.Outcome != "cancelled" || ev.Error != "" {
		t.Errorf("finished event = %+v", ev)
	}
}

func TestStartRunsInBackground(t *testing.T) {
	bus := events.New()
	runner := &fakeRunner{block: make(chan struct{})}
	e := New("", runner, bus, testLogger())

	finished := make(chan events.RenderFinishedEvent, 1)
	defer bus.Subscribe(func(e events.RenderFinishedEvent) { finished <- e })()

	cmd, err := e.Start("job-3", singleInputJob())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(cmd) == 0 || cmd[0] != "ffmpeg" {
		t.Errorf("command = %v", cmd)
	}

	// Slot is reserved synchronously.
	if _, err := e.Start("job-4", singleInputJob()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start() error = %v, want ErrBusy", err)
	}

	close(runner.block)
	if ev := waitEvent(t, finished); ev.JobID != "job-3" || ev.Outcome != "success" {
		t.Errorf("finished event = %+v", ev)
	}
}

func TestCancelDelegatesToRunner(t *testing.T) {
	bus := events.New()
	runner := &fakeRunner{}
	e := New("", runner, bus, testLogger())

	if e.Cancel() {
		t.Error("Cancel() = true with no render in flight")
	}
	if runner.cancelCalls != 1 {
		t.Errorf("cancelCalls = %d, want 1", runner.cancelCalls)
	}
}

func TestCompileDryRun(t *testing.T) {
	bus := events.New()
	e := New("/renders", &fakeRunner{}, bus, testLogger())

	cmd, err := e.Compile(singleInputJob())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	want := []string{"ffmpeg", "-progress", "pipe:1", "-y", "-i", "clip.mp4", "/renders/out.mp4"}
	if !slices.Equal(cmd, want) {
		t.Errorf("Compile() = %v, want %v", cmd, want)
	}
}

func TestCompileInvalidJob(t *testing.T) {
	bus := events.New()
	e := New("", &fakeRunner{}, bus, testLogger())

	if _, err := e.Compile(&job.EditJob{Output: "out.mp4"}); err == nil {
		t.Error("Compile() with no inputs should fail")
	}
}
