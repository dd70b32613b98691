package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultBufferSize = 1000

// Logger is a duck-typed interface satisfied by *slog.Logger. Packages
// that only emit logs should accept this instead of the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu            sync.RWMutex
	initialized   bool
	currentConfig Config
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevels  = make(map[string]*slog.LevelVar)
	buffer        *RingBuffer
	callback      LogCallback
)

// Initialize sets up the logging system. Calling it again re-applies
// levels and formats to all existing module loggers, which is how config
// hot-reload propagates.
func Initialize(config Config) {
	mu.Lock()
	defer mu.Unlock()

	currentConfig = config
	initialized = true

	if buffer == nil {
		buffer = NewRingBuffer(defaultBufferSize)
	}

	for module, levelVar := range moduleLevels {
		levelVar.Set(moduleLevel(config, module))
		moduleLoggers[module] = slog.New(newHandler(config.Format, levelVar)).With("module", module)
	}

	defaultLevel := &slog.LevelVar{}
	defaultLevel.Set(moduleLevel(config, ""))
	slog.SetDefault(slog.New(newHandler(config.Format, defaultLevel)))
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	if logger, ok := moduleLoggers[module]; ok {
		mu.RUnlock()
		return logger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(currentConfig, module))

	format := currentConfig.Format
	if !initialized {
		format = "text"
	}

	logger := slog.New(newHandler(format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevels[module] = levelVar
	return logger
}

// GetBuffer returns the log ring buffer for reading historical logs.
func GetBuffer() *RingBuffer {
	mu.RLock()
	defer mu.RUnlock()
	return buffer
}

// SetLogCallback sets a callback invoked for each new log entry. Used to
// publish log events to SSE clients without an import cycle.
func SetLogCallback(cb LogCallback) {
	mu.Lock()
	defer mu.Unlock()
	callback = cb
}

func activeBuffer() *RingBuffer {
	mu.RLock()
	defer mu.RUnlock()
	return buffer
}

func activeCallback() LogCallback {
	mu.RLock()
	defer mu.RUnlock()
	return callback
}

// moduleLevel resolves the effective level for a module from config,
// falling back to the global level and then to info.
func moduleLevel(config Config, module string) slog.Level {
	if module != "" {
		if s, ok := config.Modules[module]; ok {
			if l := parseLevel(s); l != nil {
				return *l
			}
		}
	}
	if l := parseLevel(config.Level); l != nil {
		return *l
	}
	return slog.LevelInfo
}

// newHandler builds the fan-out handler chain: stdout, journal when
// running under systemd, and the ring buffer.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	handlers := []slog.Handler{stdout}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewBufferHandler(level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}
