package models

import (
	"time"

	"github.com/dividr/rendernode/internal/engine"
	"github.com/dividr/rendernode/internal/job"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Render models
type RenderRequestData struct {
	JobID string      `json:"job_id,omitempty" example:"render-001" doc:"Optional job identifier, generated when empty"`
	Job   job.EditJob `json:"job" doc:"Edit job to render"`
}

type RenderRequest struct {
	Body RenderRequestData
}

type RenderStartData struct {
	JobID   string   `json:"job_id" example:"render-001" doc:"Job identifier"`
	Command []string `json:"command" doc:"Full ffmpeg argv for the render"`
	Message string   `json:"message" example:"Render started" doc:"Status message"`
}

type RenderStartResponse struct {
	Status int
	Body   RenderStartData
}

type RenderStatusResponse struct {
	Body engine.Status
}

type RenderCancelData struct {
	Message string `json:"message" example:"Cancellation requested" doc:"Status message"`
}

type RenderCancelResponse struct {
	Body RenderCancelData
}

// Compile models
type CompileData struct {
	Command     []string `json:"command" doc:"Full ffmpeg argv the job compiles to"`
	CommandLine string   `json:"command_line" example:"ffmpeg -progress pipe:1 -y -i in.mp4 out.mp4" doc:"Space-joined command for display"`
}

type CompileResponse struct {
	Body CompileData
}

// Log models
type LogEntryData struct {
	Timestamp  time.Time      `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"engine" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

type LogsData struct {
	Entries []LogEntryData `json:"entries" doc:"Recent log entries, oldest first"`
	Count   int            `json:"count" example:"120" doc:"Number of entries"`
}

type LogsResponse struct {
	Body LogsData
}
