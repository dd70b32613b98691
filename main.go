package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dividr/rendernode/cmd"
	"github.com/dividr/rendernode/internal/api"
	"github.com/dividr/rendernode/internal/config"
	"github.com/dividr/rendernode/internal/engine"
	"github.com/dividr/rendernode/internal/events"
	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/supervisor"
	"github.com/dividr/rendernode/internal/updater"
	"github.com/dividr/rendernode/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Render settings
	OutputDir string `help:"Directory for relative render output paths" default:"" toml:"render.output_dir" env:"RENDER_OUTPUT_DIR"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Metrics settings
	MetricsEnabled bool `help:"Expose Prometheus metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Update settings
	UpdatesEnabled   bool   `help:"Enable the self-update endpoints" default:"true" toml:"updates.enabled" env:"UPDATES_ENABLED"`
	UpdateRepository string `help:"GitHub repository slug for updates" default:"dividr/rendernode" toml:"updates.repository" env:"UPDATES_REPOSITORY"`
	UpdatePrerelease bool   `help:"Include prerelease versions when updating" default:"false" toml:"updates.prerelease" env:"UPDATES_PRERELEASE"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingEngine  string `help:"Engine logging level" default:"info" toml:"logging.engine" env:"LOGGING_ENGINE"`
	LoggingFFmpeg  string `help:"FFmpeg process logging level" default:"info" toml:"logging.ffmpeg" env:"LOGGING_FFMPEG"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingUpdater string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
	LoggingConfig  string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

// rootCmd is captured after CLI construction so config loading can see
// which flags were explicitly set.
var rootCmd *cobra.Command

func main() {
	// Create Huma CLI
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, rootCmd); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"engine":  opts.LoggingEngine,
				"ffmpeg":  opts.LoggingFFmpeg,
				"api":     opts.LoggingAPI,
				"updater": opts.LoggingUpdater,
				"config":  opts.LoggingConfig,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")
		logger.Info("Starting rendernode", "version", version.String())

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Stream every log line to SSE clients via the bus
		var logSeq atomic.Uint64
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        logSeq.Add(1),
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Render engine on top of the single-flight process supervisor
		sup := supervisor.New(logging.GetLogger("ffmpeg"))
		eng := engine.New(opts.OutputDir, sup, eventBus, logging.GetLogger("engine"))

		// Self-update service (optional)
		var updateService updater.Service
		if opts.UpdatesEnabled {
			var err error
			updateService, err = updater.NewService(&updater.Options{
				Repository: opts.UpdateRepository,
				Prerelease: opts.UpdatePrerelease,
			})
			if err != nil {
				logger.Warn("Failed to create update service", "error", err)
			}
		}

		apiOpts := &api.Options{
			AuthUsername:  opts.AuthUsername,
			AuthPassword:  opts.AuthPassword,
			Engine:        eng,
			EventBus:      eventBus,
			UpdateService: updateService,
		}

		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = promhttp.Handler()
		}

		server := api.NewServer(apiOpts)

		// Hot-reload logging levels when the config file changes
		watcher := config.NewWatcher(opts.Config, func(path string) (logging.Config, error) {
			return config.LoadLoggingConfig(path), nil
		}, logging.GetLogger("config"))
		watcher.OnReload(func(cfg logging.Config) {
			logger.Info("Reloading logging configuration")
			logging.Initialize(cfg)
		})

		hooks.OnStart(func() {
			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", startErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Stop an in-flight render after the API stops taking requests
			if eng.Cancel() {
				logger.Info("Cancelled in-flight render")
			}

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Error("Error stopping config watcher", "error", stopErr)
			}
		})
	})

	rootCmd = cli.Root()
	rootCmd.Version = version.String()

	// Add one-shot render command
	renderCmd := cmd.CreateRenderCmd()
	rootCmd.AddCommand(renderCmd)

	// Add dry-run compile command
	compileCmd := cmd.CreateCompileCmd()
	rootCmd.AddCommand(compileCmd)

	// Add job-drop watch command
	watchCmd := cmd.CreateWatchCmd()
	rootCmd.AddCommand(watchCmd)

	// Add self-update command
	updateCmd := cmd.CreateUpdateCmd()
	rootCmd.AddCommand(updateCmd)

	// Add companion tools command
	toolsCmd := cmd.CreateToolsCmd()
	rootCmd.AddCommand(toolsCmd)

	// Run the CLI
	cli.Run()
}
