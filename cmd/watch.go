package cmd

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dividr/rendernode/internal/engine"
	"github.com/dividr/rendernode/internal/events"
	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/supervisor"
)

// settleDelay gives whoever dropped the file time to finish writing it.
const settleDelay = 500 * time.Millisecond

// CreateWatchCmd creates the watch command.
func CreateWatchCmd() *cobra.Command {
	var outputDir string
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Render job files dropped into a directory",
		Long: `Watches the given directory and renders every .json edit job dropped ` +
			`into it. Jobs arriving while a render is in flight are rejected, not ` +
			`queued; resubmit the file once the active render finishes.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			initCommandLogging(logJSON)
			logger := logging.GetLogger("watch").With("dir", args[0])

			bus := events.New()
			eng := engine.New(outputDir, supervisor.New(logging.GetLogger("ffmpeg")), bus, logger)

			unsubscribe := bus.Subscribe(func(e events.RenderFinishedEvent) {
				switch e.Outcome {
				case "success":
					logger.Info("Render finished", "job_id", e.JobID)
				case "cancelled":
					logger.Info("Render cancelled", "job_id", e.JobID)
				default:
					logger.Error("Render failed", "job_id", e.JobID, "exit_code", e.ExitCode, "error", e.Error)
				}
			})
			defer unsubscribe()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				logger.Error("Failed to create directory watcher", "error", err)
				os.Exit(1)
			}
			defer watcher.Close()

			if err := watcher.Add(args[0]); err != nil {
				logger.Error("Failed to watch directory", "error", err)
				os.Exit(1)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			logger.Info("Watching for job files")

			// One settle timer per path so a half-written file isn't parsed.
			var mu sync.Mutex
			timers := make(map[string]*time.Timer)

			for {
				select {
				case <-sigCh:
					logger.Info("Signal received, shutting down")
					eng.Cancel()
					return

				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					if !strings.HasSuffix(event.Name, ".json") {
						continue
					}
					path := event.Name
					mu.Lock()
					if t, exists := timers[path]; exists {
						t.Stop()
					}
					timers[path] = time.AfterFunc(settleDelay, func() {
						mu.Lock()
						delete(timers, path)
						mu.Unlock()
						submitJobFile(eng, logger, path)
					})
					mu.Unlock()

				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					logger.Warn("Directory watcher error", "error", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for relative output paths")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

// submitJobFile parses a dropped job file and starts its render.
func submitJobFile(eng *engine.Engine, logger *slog.Logger, path string) {
	jobID := strings.TrimSuffix(filepath.Base(path), ".json")
	logger = logger.With("job_id", jobID)

	j, err := loadJobFile(path)
	if err != nil {
		logger.Error("Skipping unreadable job file", "path", path, "error", err)
		return
	}

	command, err := eng.Start(jobID, j)
	switch {
	case err == nil:
		logger.Info("Render started", "command", strings.Join(command, " "))
	case errors.Is(err, engine.ErrBusy):
		logger.Warn("Render already in progress, job rejected", "path", path)
	default:
		logger.Error("Failed to start render", "path", path, "error", err)
	}
}
