package tools

import (
	"reflect"
	"testing"
)

func TestTranscribeArgsDefaults(t *testing.T) {
	args := TranscribeArgs(TranscribeRequest{
		Input:  "clip.mp4",
		Output: "transcript.json",
	})

	want := []string{
		"transcribe",
		"--input", "clip.mp4",
		"--output", "transcript.json",
		"--model", "large-v3",
		"--device", "cpu",
		"--compute-type", "int8",
		"--beam-size", "5",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestTranscribeArgsAllOptions(t *testing.T) {
	args := TranscribeArgs(TranscribeRequest{
		Input:       "clip.mp4",
		Output:      StdoutSentinel,
		Model:       "base",
		Language:    "es",
		Translate:   true,
		Device:      "cuda",
		ComputeType: "float16",
		BeamSize:    8,
		NoVAD:       true,
	})

	want := []string{
		"transcribe",
		"--input", "clip.mp4",
		"--output", "-",
		"--model", "base",
		"--device", "cuda",
		"--compute-type", "float16",
		"--beam-size", "8",
		"--language", "es",
		"--translate",
		"--no-vad",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestNoiseReduceArgsDefaults(t *testing.T) {
	args := NoiseReduceArgs(NoiseReduceRequest{
		Input:  "noisy.wav",
		Output: "clean.wav",
	})

	want := []string{
		"noise-reduce",
		"--input", "noisy.wav",
		"--output", "clean.wav",
		"--prop-decrease", "0.8",
		"--n-fft", "2048",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestNoiseReduceArgsNonStationary(t *testing.T) {
	args := NoiseReduceArgs(NoiseReduceRequest{
		Input:         "noisy.wav",
		Output:        "clean.wav",
		NonStationary: true,
		PropDecrease:  0.95,
		FFTSize:       1024,
	})

	want := []string{
		"noise-reduce",
		"--input", "noisy.wav",
		"--output", "clean.wav",
		"--prop-decrease", "0.95",
		"--n-fft", "1024",
		"--non-stationary",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestParseProgress(t *testing.T) {
	update, ok := ParseProgress(`PROGRESS|{"stage":"processing","progress":42.5,"message":"Processed 12 segments..."}`)
	if !ok {
		t.Fatal("ParseProgress() rejected a valid line")
	}
	if update.Stage != "processing" {
		t.Errorf("Stage = %q, want processing", update.Stage)
	}
	if update.Progress != 42.5 {
		t.Errorf("Progress = %v, want 42.5", update.Progress)
	}
	if update.Message != "Processed 12 segments..." {
		t.Errorf("Message = %q", update.Message)
	}
}

func TestParseProgressRejectsOtherLines(t *testing.T) {
	for _, line := range []string{
		"RESULT_SAVED|/tmp/out.json",
		"PROGRESS|not json",
		"frame=120 fps=29.97",
		"",
	} {
		if _, ok := ParseProgress(line); ok {
			t.Errorf("ParseProgress(%q) accepted", line)
		}
	}
}

func TestParseResultAndSavedPath(t *testing.T) {
	payload, ok := ParseResult(`RESULT|{"success":true,"text":"hello"}`)
	if !ok {
		t.Fatal("ParseResult() rejected a valid line")
	}
	if string(payload) != `{"success":true,"text":"hello"}` {
		t.Errorf("payload = %s", payload)
	}

	path, ok := ParseSavedPath("RESULT_SAVED|/tmp/transcript.json")
	if !ok || path != "/tmp/transcript.json" {
		t.Errorf("ParseSavedPath() = %q, %v", path, ok)
	}

	msg, ok := ParseErrorLine("ERROR|Transcription failed: out of memory")
	if !ok || msg != "Transcription failed: out of memory" {
		t.Errorf("ParseErrorLine() = %q, %v", msg, ok)
	}

	if _, ok := ParseResult("RESULT_SAVED|/tmp/out.json"); ok {
		t.Error("ParseResult() accepted a RESULT_SAVED line")
	}
}
