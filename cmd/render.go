package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dividr/rendernode/internal/engine"
	"github.com/dividr/rendernode/internal/events"
	"github.com/dividr/rendernode/internal/job"
	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/progress"
	"github.com/dividr/rendernode/internal/supervisor"
)

// CreateRenderCmd creates the render command.
func CreateRenderCmd() *cobra.Command {
	var outputDir string
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "render [job-file]",
		Short: "Render an edit job to completion",
		Long: `Compiles the edit job described by the given JSON file into an FFmpeg ` +
			`command and runs it to completion, streaming progress to the log. ` +
			`Ctrl-C cancels the render gracefully.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			initCommandLogging(logJSON)
			logger := logging.GetLogger("render").With("job_file", args[0])

			j, err := loadJobFile(args[0])
			if err != nil {
				logger.Error("Failed to load job file", "error", err)
				os.Exit(1)
			}

			bus := events.New()
			eng := engine.New(outputDir, supervisor.New(logging.GetLogger("ffmpeg")), bus, logger)

			// Forward Ctrl-C to the render instead of dying mid-encode.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				<-sigCh
				logger.Info("Signal received, cancelling render")
				eng.Cancel()
			}()

			cb := engine.Callbacks{
				OnProgress: func(rec progress.Record) {
					logProgress(logger, rec)
				},
				OnStatus: func(status string) {
					logger.Info(status)
				},
			}

			res, err := eng.Run(context.Background(), "cli", j, cb)
			switch {
			case err == nil:
				logger.Info("Render complete", "output", j.Output)
			case errors.Is(err, engine.ErrCancelled):
				logger.Info("Render cancelled")
				os.Exit(130)
			default:
				logger.Error("Render failed", "error", err)
				var runtimeErr *engine.RuntimeError
				if errors.As(err, &runtimeErr) {
					for _, line := range tailLines(res.Logs, 20) {
						fmt.Fprintln(os.Stderr, line)
					}
					os.Exit(runtimeErr.ExitCode)
				}
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for relative output paths")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

// loadJobFile reads and parses an edit job description from disk.
func loadJobFile(path string) (*job.EditJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var j job.EditJob
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse job file: %w", err)
	}
	return &j, nil
}

// initCommandLogging sets up minimal logging for standalone commands.
func initCommandLogging(logJSON bool) {
	format := "text"
	if logJSON {
		format = "json"
	}
	logging.Initialize(logging.Config{Level: "info", Format: format})
}

func logProgress(logger logging.Logger, rec progress.Record) {
	attrs := make([]any, 0, 8)
	if rec.Frame != nil {
		attrs = append(attrs, "frame", *rec.Frame)
	}
	if rec.FPS != nil {
		attrs = append(attrs, "fps", *rec.FPS)
	}
	if rec.OutTime != "" {
		attrs = append(attrs, "time", rec.OutTime)
	}
	if rec.Speed != "" {
		attrs = append(attrs, "speed", rec.Speed)
	}
	if len(attrs) == 0 {
		return
	}
	logger.Info("Render progress", attrs...)
}

func tailLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
