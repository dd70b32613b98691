package logging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalHandler is a slog.Handler that sends logs to the systemd journal.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

// IsJournalAvailable checks if the systemd journal socket is reachable.
func IsJournalAvailable() bool {
	return journal.Enabled()
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends the log record to the journal.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	priority := levelToPriority(r.Level)

	fields := map[string]string{
		"PRIORITY":          fmt.Sprintf("%d", priority),
		"SYSLOG_IDENTIFIER": "rendernode",
	}
	for _, a := range h.attrs {
		journalField(fields, h.groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		journalField(fields, h.groups, a)
		return true
	})

	return journal.Send(r.Message, priority, fields)
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &JournalHandler{level: h.level, attrs: merged, groups: h.groups}
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &JournalHandler{level: h.level, attrs: h.attrs, groups: groups}
}

func levelToPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalField adds an attr as an upper-cased journal field, underscore
// joining group names per journal convention.
func journalField(fields map[string]string, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, "_") + "_" + key
	}
	key = strings.ToUpper(key)

	if a.Value.Kind() == slog.KindGroup {
		nested := append(slices.Clone(groups), a.Key)
		for _, ga := range a.Value.Group() {
			journalField(fields, nested, ga)
		}
		return
	}
	fields[key] = a.Value.String()
}
