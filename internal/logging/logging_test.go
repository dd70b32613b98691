package logging

import (
	"context"
	"log/slog"
	"testing"
)

func resetState() {
	mu.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevels = make(map[string]*slog.LevelVar)
	buffer = nil
	callback = nil
	initialized = false
	mu.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"engine": "debug",
			"api":    "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"engine", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			if got := handler.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(context.Background(), slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestReinitializeUpdatesExistingLoggers(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info", Format: "text"})
	handler := GetLogger("supervisor").Handler()
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at info level")
	}

	Initialize(Config{Level: "info", Format: "text", Modules: map[string]string{"supervisor": "debug"}})
	if !handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after reinitialize with module override")
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		rb.Write(LogEntry{Message: msg})
	}

	if rb.Count() != 3 {
		t.Fatalf("count = %d, want 3", rb.Count())
	}

	entries := rb.ReadAll()
	want := []string{"b", "c", "d"}
	for i, w := range want {
		if entries[i].Message != w {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Message, w)
		}
	}
}

func TestBufferHandlerCapturesModuleAndAttrs(t *testing.T) {
	resetState()
	Initialize(Config{Level: "info", Format: "text"})

	var captured []LogEntry
	SetLogCallback(func(entry LogEntry) {
		captured = append(captured, entry)
	})

	GetLogger("compile").Info("graph built", "labels", 3)

	if len(captured) != 1 {
		t.Fatalf("captured %d entries, want 1", len(captured))
	}
	entry := captured[0]
	if entry.Module != "compile" {
		t.Errorf("module = %q, want compile", entry.Module)
	}
	if entry.Message != "graph built" {
		t.Errorf("message = %q", entry.Message)
	}
	if entry.Attributes["labels"] != int64(3) {
		t.Errorf("labels attr = %v, want 3", entry.Attributes["labels"])
	}
}
