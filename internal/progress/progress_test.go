package progress

import "testing"

func TestParseCombinedStatsLine(t *testing.T) {
	line := "frame=120 fps=29.97 bitrate=1000kbits/s time=00:00:04.00 size=256kB speed=1.0x progress=continue"
	rec := Parse(line)

	if rec.Frame == nil || *rec.Frame != 120 {
		t.Errorf("Frame = %v, want 120", rec.Frame)
	}
	if rec.FPS == nil || *rec.FPS != 29.97 {
		t.Errorf("FPS = %v, want 29.97", rec.FPS)
	}
	if rec.Bitrate != "1000kbits/s" {
		t.Errorf("Bitrate = %q", rec.Bitrate)
	}
	if rec.OutTime != "00:00:04.00" {
		t.Errorf("OutTime = %q", rec.OutTime)
	}
	if rec.TotalSize != "256kB" {
		t.Errorf("TotalSize = %q", rec.TotalSize)
	}
	if rec.Speed != "1.0x" {
		t.Errorf("Speed = %q", rec.Speed)
	}
	if rec.Progress != "continue" || rec.Done() {
		t.Errorf("Progress = %q, Done = %v", rec.Progress, rec.Done())
	}
}

func TestParsePipeFormatLines(t *testing.T) {
	tests := []struct {
		line  string
		check func(t *testing.T, rec Record)
	}{
		{"frame=42", func(t *testing.T, rec Record) {
			if rec.Frame == nil || *rec.Frame != 42 {
				t.Errorf("Frame = %v", rec.Frame)
			}
		}},
		{"out_time=00:00:10.50", func(t *testing.T, rec Record) {
			if rec.OutTime != "00:00:10.50" {
				t.Errorf("OutTime = %q", rec.OutTime)
			}
		}},
		{"total_size=1048576", func(t *testing.T, rec Record) {
			if rec.TotalSize != "1048576" {
				t.Errorf("TotalSize = %q", rec.TotalSize)
			}
		}},
		{"speed=2.5x", func(t *testing.T, rec Record) {
			if rec.Speed != "2.5x" {
				t.Errorf("Speed = %q", rec.Speed)
			}
		}},
		{"progress=end", func(t *testing.T, rec Record) {
			if !rec.Done() {
				t.Errorf("Done() = false for %+v", rec)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tt.check(t, Parse(tt.line))
		})
	}
}

func TestParseOutTimeMicrosecondsNotMatched(t *testing.T) {
	rec := Parse("out_time_us=4000000")
	if rec.OutTime != "" {
		t.Errorf("OutTime = %q, want empty for out_time_us", rec.OutTime)
	}
}

func TestParseUnrelatedLineIsZero(t *testing.T) {
	for _, line := range []string{"", "Press [q] to stop", "stream_0_0_q=29.0"} {
		if rec := Parse(line); !rec.IsZero() {
			t.Errorf("Parse(%q) = %+v, want zero record", line, rec)
		}
	}
}

func TestAbsentFieldsStayUnset(t *testing.T) {
	rec := Parse("frame=0")
	if rec.Frame == nil || *rec.Frame != 0 {
		t.Errorf("Frame = %v, want explicit 0", rec.Frame)
	}
	if rec.FPS != nil || rec.Speed != "" || rec.Progress != "" {
		t.Errorf("unexpected fields set: %+v", rec)
	}
}
