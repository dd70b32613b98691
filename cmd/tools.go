package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/tools"
)

// CreateToolsCmd creates the tools command with its subcommands.
func CreateToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Run the companion media-processing binary",
		Long: `Drives the dividr-tools companion binary. Transcripts feed the ` +
			`subtitles operation and cleaned audio feeds replaceAudio.`,
	}
	cmd.AddCommand(createTranscribeCmd())
	cmd.AddCommand(createNoiseReduceCmd())
	return cmd
}

func createTranscribeCmd() *cobra.Command {
	var req tools.TranscribeRequest
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "transcribe [input-file]",
		Short: "Transcribe an audio/video file",
		Long: `Transcribes the given file with word-level timestamps. The JSON ` +
			`transcript is written to --output, or printed on stdout when ` +
			`--output is -.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			initCommandLogging(logJSON)
			logger := logging.GetLogger("tools").With("input", args[0])

			req.Input = args[0]
			runner := tools.NewRunner(logging.GetLogger("tools"))

			outcome, err := runTool(logger, runner, func(ctx context.Context) (tools.Outcome, error) {
				return runner.Transcribe(ctx, req, func(u tools.ProgressUpdate) {
					logger.Info(u.Message, "stage", u.Stage, "progress", u.Progress)
				})
			})
			if err != nil {
				exitToolError(logger, err)
			}

			if outcome.Result != nil {
				fmt.Println(string(outcome.Result))
			} else {
				logger.Info("Transcript saved", "path", outcome.SavedPath)
			}
		},
	}

	cmd.Flags().StringVar(&req.Output, "output", "-", "Transcript path, or - for stdout")
	cmd.Flags().StringVar(&req.Model, "model", tools.DefaultModel, "Whisper model size")
	cmd.Flags().StringVar(&req.Language, "language", "", "Language code, auto-detect when empty")
	cmd.Flags().BoolVar(&req.Translate, "translate", false, "Translate the transcript to English")
	cmd.Flags().StringVar(&req.Device, "device", tools.DefaultDevice, "Inference device (cpu or cuda)")
	cmd.Flags().StringVar(&req.ComputeType, "compute-type", tools.DefaultComputeType, "Model compute type")
	cmd.Flags().IntVar(&req.BeamSize, "beam-size", tools.DefaultBeamSize, "Beam size for decoding")
	cmd.Flags().BoolVar(&req.NoVAD, "no-vad", false, "Disable voice activity detection")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

func createNoiseReduceCmd() *cobra.Command {
	var req tools.NoiseReduceRequest
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "noise-reduce [input-file] [output-file]",
		Short: "Reduce background noise in an audio file",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			initCommandLogging(logJSON)
			logger := logging.GetLogger("tools").With("input", args[0])

			req.Input = args[0]
			req.Output = args[1]
			runner := tools.NewRunner(logging.GetLogger("tools"))

			outcome, err := runTool(logger, runner, func(ctx context.Context) (tools.Outcome, error) {
				return runner.NoiseReduce(ctx, req, func(u tools.ProgressUpdate) {
					logger.Info(u.Message, "stage", u.Stage, "progress", u.Progress)
				})
			})
			if err != nil {
				exitToolError(logger, err)
			}

			logger.Info("Cleaned audio saved", "path", outcome.SavedPath)
		},
	}

	cmd.Flags().BoolVar(&req.NonStationary, "non-stationary", false, "Treat the noise profile as non-stationary")
	cmd.Flags().Float64Var(&req.PropDecrease, "prop-decrease", tools.DefaultPropDecrease, "Proportion of noise to remove (0.0-1.0)")
	cmd.Flags().IntVar(&req.FFTSize, "n-fft", tools.DefaultFFTSize, "FFT window size")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

// runTool executes one tools run with Ctrl-C forwarding to cancel.
func runTool(logger logging.Logger, runner *tools.Runner, run func(ctx context.Context) (tools.Outcome, error)) (tools.Outcome, error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("Signal received, cancelling")
		runner.Cancel()
	}()

	return run(context.Background())
}

func exitToolError(logger logging.Logger, err error) {
	if errors.Is(err, tools.ErrCancelled) {
		logger.Info("Run cancelled")
		os.Exit(130)
	}
	logger.Error("Tools run failed", "error", err)
	var runErr *tools.RunError
	if errors.As(err, &runErr) {
		os.Exit(runErr.ExitCode)
	}
	os.Exit(1)
}
