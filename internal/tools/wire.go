package tools

import (
	"encoding/json"
	"strings"
)

// Stdout line markers emitted by the tools binary.
const (
	progressMarker    = "PROGRESS|"
	resultMarker      = "RESULT|"
	resultSavedMarker = "RESULT_SAVED|"
	errorMarker       = "ERROR|"
)

// ProgressUpdate is one decoded PROGRESS| line. Progress runs 0-100
// across the stages loading, processing, saving, complete.
type ProgressUpdate struct {
	Stage    string  `json:"stage" example:"processing" doc:"Pipeline stage"`
	Progress float64 `json:"progress" example:"42.5" doc:"Completion percentage"`
	Message  string  `json:"message,omitempty" doc:"Human-readable detail"`
}

// ParseProgress decodes a PROGRESS| line. Returns false for lines that
// are not progress updates or carry malformed payloads.
func ParseProgress(line string) (ProgressUpdate, bool) {
	payload, ok := strings.CutPrefix(line, progressMarker)
	if !ok {
		return ProgressUpdate{}, false
	}
	var update ProgressUpdate
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		return ProgressUpdate{}, false
	}
	return update, true
}

// ParseResult extracts the JSON payload of a RESULT| line, emitted when
// the binary writes its result to stdout instead of a file.
func ParseResult(line string) (json.RawMessage, bool) {
	payload, ok := strings.CutPrefix(line, resultMarker)
	if !ok {
		return nil, false
	}
	return json.RawMessage(payload), true
}

// ParseSavedPath extracts the output path of a RESULT_SAVED| line.
func ParseSavedPath(line string) (string, bool) {
	return strings.CutPrefix(line, resultSavedMarker)
}

// ParseErrorLine extracts the message of an ERROR| line.
func ParseErrorLine(line string) (string, bool) {
	return strings.CutPrefix(line, errorMarker)
}
