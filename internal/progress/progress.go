// Package progress decodes the machine-readable progress stream the
// transcoding tool writes when launched with -progress pipe:1.
//
// The wire format is newline-delimited key=value tokens; each update is
// terminated by a line carrying progress=continue, or progress=end on
// the final update. A single line may carry any subset of keys, so every
// field is matched independently.
package progress

import (
	"regexp"
	"strconv"
)

// Record is one decoded progress snapshot. Numeric fields are pointers
// so an absent key is distinguishable from a zero value; string fields
// are empty when absent.
type Record struct {
	Frame     *int     `json:"frame,omitempty" doc:"Frames processed"`
	FPS       *float64 `json:"fps,omitempty" doc:"Current processing frame rate"`
	Bitrate   string   `json:"bitrate,omitempty" doc:"Current output bitrate, e.g. 1000kbits/s"`
	OutTime   string   `json:"outTime,omitempty" doc:"Output timestamp reached, e.g. 00:00:04.00"`
	TotalSize string   `json:"totalSize,omitempty" doc:"Output size so far, e.g. 256kB"`
	Speed     string   `json:"speed,omitempty" doc:"Processing speed multiplier, e.g. 1.0x"`
	Progress  string   `json:"progress,omitempty" doc:"Status tag: continue or end"`
}

// EndTag is the progress value signalling job completion at the
// protocol level.
const EndTag = "end"

// Pre-compiled per-field patterns. Each is matched independently so the
// parser handles both one-key-per-line pipe output and the combined
// stats line shape. The time= and size= patterns intentionally also
// match the out_time= and total_size= keys of the pipe format.
var (
	reFrame    = regexp.MustCompile(`frame=\s*(\d+)`)
	reFPS      = regexp.MustCompile(`fps=\s*([\d.]+)`)
	reBitrate  = regexp.MustCompile(`bitrate=\s*(\S+)`)
	reTime     = regexp.MustCompile(`time=\s*(\S+)`)
	reSize     = regexp.MustCompile(`size=\s*(\S+)`)
	reSpeed    = regexp.MustCompile(`speed=\s*(\S+)`)
	reProgress = regexp.MustCompile(`progress=\s*(\S+)`)
)

// Parse decodes one output line into a Record. Fields whose keys are not
// present stay unset; a line without any known key decodes to the zero
// Record.
func Parse(line string) Record {
	var rec Record

	if m := reFrame.FindStringSubmatch(line); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			rec.Frame = &v
		}
	}
	if m := reFPS.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			rec.FPS = &v
		}
	}
	if m := reBitrate.FindStringSubmatch(line); m != nil {
		rec.Bitrate = m[1]
	}
	if m := reTime.FindStringSubmatch(line); m != nil {
		rec.OutTime = m[1]
	}
	if m := reSize.FindStringSubmatch(line); m != nil {
		rec.TotalSize = m[1]
	}
	if m := reSpeed.FindStringSubmatch(line); m != nil {
		rec.Speed = m[1]
	}
	if m := reProgress.FindStringSubmatch(line); m != nil {
		rec.Progress = m[1]
	}

	return rec
}

// IsZero reports whether no field was decoded.
func (r Record) IsZero() bool {
	return r.Frame == nil && r.FPS == nil &&
		r.Bitrate == "" && r.OutTime == "" && r.TotalSize == "" &&
		r.Speed == "" && r.Progress == ""
}

// Done reports whether the record carries the completion tag.
func (r Record) Done() bool {
	return r.Progress == EndTag
}
