// Package job defines the declarative edit request the render engine
// compiles: a list of media inputs plus a set of independent operations.
package job

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultFrameRate is used when frame-rate normalization is requested
// without an explicit target.
const DefaultFrameRate = 30

// InputSpec describes one media input. In JSON it is either a bare path
// string or an object with an optional per-input trim window. The trim is
// only honored inside concat jobs.
type InputSpec struct {
	Path      string `json:"path" doc:"Path to the media file"`
	StartTime string `json:"startTime,omitempty" doc:"Trim start in seconds or HH:MM:SS"`
	Duration  string `json:"duration,omitempty" doc:"Trim duration in seconds or HH:MM:SS"`
}

// UnmarshalJSON accepts both the bare-path and object forms.
func (in *InputSpec) UnmarshalJSON(data []byte) error {
	var path string
	if err := json.Unmarshal(data, &path); err == nil {
		in.Path = path
		in.StartTime = ""
		in.Duration = ""
		return nil
	}

	type inputSpec InputSpec
	var spec inputSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("input must be a path string or an object: %w", err)
	}
	*in = InputSpec(spec)
	return nil
}

// HasTrim reports whether the input carries a per-input trim window.
func (in InputSpec) HasTrim() bool {
	return in.StartTime != "" || in.Duration != ""
}

// TrimSpec is the global trim applied to the whole job. Duration wins
// over End when both are set; End without Start is ignored.
type TrimSpec struct {
	Start    string `json:"start,omitempty" doc:"Seek position in seconds or HH:MM:SS"`
	Duration string `json:"duration,omitempty" doc:"Output duration in seconds or HH:MM:SS"`
	End      string `json:"end,omitempty" doc:"End position, used with start when duration is unset"`
}

// CropSpec is a rectangular crop in pixels.
type CropSpec struct {
	Width  int `json:"width" doc:"Crop width in pixels"`
	Height int `json:"height" doc:"Crop height in pixels"`
	X      int `json:"x" doc:"Left offset in pixels"`
	Y      int `json:"y" doc:"Top offset in pixels"`
}

// Operations holds the requested edit operations. All fields are optional
// and independent; unset operations are skipped during compilation.
type Operations struct {
	Concat             bool      `json:"concat,omitempty" doc:"Concatenate all inputs into one stream"`
	Trim               *TrimSpec `json:"trim,omitempty" doc:"Global trim window"`
	Crop               *CropSpec `json:"crop,omitempty" doc:"Crop rectangle"`
	Subtitles          string    `json:"subtitles,omitempty" doc:"Subtitle file to burn in"`
	Aspect             string    `json:"aspect,omitempty" doc:"Display aspect ratio override, e.g. 16:9"`
	ReplaceAudio       string    `json:"replaceAudio,omitempty" doc:"Audio file replacing the original track"`
	NormalizeFrameRate bool      `json:"normalizeFrameRate,omitempty" doc:"Normalize all inputs to the target frame rate"`
	TargetFrameRate    int       `json:"targetFrameRate,omitempty" doc:"Target frame rate, default 30"`
}

// FrameRate returns the effective target frame rate.
func (o Operations) FrameRate() int {
	if o.TargetFrameRate > 0 {
		return o.TargetFrameRate
	}
	return DefaultFrameRate
}

// EditJob is the full declarative render request.
type EditJob struct {
	Inputs     []InputSpec `json:"inputs" doc:"Media inputs in order"`
	Operations Operations  `json:"operations" doc:"Requested edit operations"`
	Output     string      `json:"output" doc:"Output file name, joined with the configured output directory"`
}

// audioExtensions are the filename extensions classified as audio-only
// inputs during concat.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aac":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
}

// IsAudioPath classifies an input path as audio-only by its extension.
func IsAudioPath(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}
