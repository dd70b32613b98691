package events

import "github.com/dividr/rendernode/internal/progress"

// Event type constants for kelindar/event.
const (
	TypeRenderStarted uint32 = iota + 1
	TypeRenderProgress
	TypeRenderStatus
	TypeRenderLog
	TypeRenderFinished
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// RenderStartedEvent is published when a render job is accepted and its
// ffmpeg process has been spawned.
type RenderStartedEvent struct {
	JobID     string   `json:"job_id" example:"render-001" doc:"Render job identifier"`
	Command   []string `json:"command" doc:"Full ffmpeg argv for the render"`
	Output    string   `json:"output" example:"final.mp4" doc:"Output file name"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RenderStartedEvent.
func (e RenderStartedEvent) Type() uint32 { return TypeRenderStarted }

// RenderProgressEvent carries one decoded ffmpeg progress record.
type RenderProgressEvent struct {
	JobID     string          `json:"job_id" example:"render-001" doc:"Render job identifier"`
	Record    progress.Record `json:"record" doc:"Decoded progress fields"`
	Timestamp string          `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RenderProgressEvent.
func (e RenderProgressEvent) Type() uint32 { return TypeRenderProgress }

// RenderStatusEvent carries a human-readable status transition.
type RenderStatusEvent struct {
	JobID     string `json:"job_id" example:"render-001" doc:"Render job identifier"`
	Status    string `json:"status" example:"Processing complete" doc:"Status message"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RenderStatusEvent.
func (e RenderStatusEvent) Type() uint32 { return TypeRenderStatus }

// RenderLogEvent carries one raw output line from the render process.
type RenderLogEvent struct {
	JobID     string `json:"job_id" example:"render-001" doc:"Render job identifier"`
	Source    string `json:"source" example:"stderr" doc:"Output stream: stdout or stderr"`
	Line      string `json:"line" doc:"Raw output line"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RenderLogEvent.
func (e RenderLogEvent) Type() uint32 { return TypeRenderLog }

// RenderFinishedEvent is published when a render ends, whatever the outcome.
type RenderFinishedEvent struct {
	JobID     string `json:"job_id" example:"render-001" doc:"Render job identifier"`
	Outcome   string `json:"outcome" example:"success" doc:"Outcome: success, cancelled, failure"`
	ExitCode  int    `json:"exit_code" example:"0" doc:"Process exit code"`
	Error     string `json:"error,omitempty" doc:"Error description for failed renders"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RenderFinishedEvent.
func (e RenderFinishedEvent) Type() uint32 { return TypeRenderFinished }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
