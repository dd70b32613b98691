// Package tools drives the dividr-tools companion binary, which bundles
// the transcription and noise-reduction pipelines behind CLI subcommands.
// Its outputs feed back into edit jobs: transcripts become subtitle
// sources and cleaned audio becomes replacement audio.
package tools

import (
	"strconv"
)

// Binary is the companion binary name, resolved via PATH.
const Binary = "dividr-tools"

// Transcription defaults, matching the binary's own.
const (
	DefaultModel       = "large-v3"
	DefaultDevice      = "cpu"
	DefaultComputeType = "int8"
	DefaultBeamSize    = 5
)

// Noise reduction defaults, matching the binary's own.
const (
	DefaultPropDecrease = 0.8
	DefaultFFTSize      = 2048
)

// StdoutSentinel as --output asks the binary to print the result on
// stdout instead of writing a file.
const StdoutSentinel = "-"

// TranscribeRequest describes one transcription run.
type TranscribeRequest struct {
	Input       string `json:"input" doc:"Path to the audio/video file to transcribe"`
	Output      string `json:"output" doc:"Path for the JSON transcript, or - for stdout"`
	Model       string `json:"model,omitempty" example:"large-v3" doc:"Whisper model size"`
	Language    string `json:"language,omitempty" example:"en" doc:"Language code, auto-detected when empty"`
	Translate   bool   `json:"translate,omitempty" doc:"Translate the transcript to English"`
	Device      string `json:"device,omitempty" example:"cpu" doc:"Inference device (cpu or cuda)"`
	ComputeType string `json:"compute_type,omitempty" example:"int8" doc:"Model compute type"`
	BeamSize    int    `json:"beam_size,omitempty" example:"5" doc:"Beam size for decoding"`
	NoVAD       bool   `json:"no_vad,omitempty" doc:"Disable voice activity detection"`
}

// NoiseReduceRequest describes one noise-reduction run.
type NoiseReduceRequest struct {
	Input         string  `json:"input" doc:"Path to the input audio file"`
	Output        string  `json:"output" doc:"Path for the cleaned audio file"`
	NonStationary bool    `json:"non_stationary,omitempty" doc:"Treat the noise profile as non-stationary"`
	PropDecrease  float64 `json:"prop_decrease,omitempty" example:"0.8" doc:"Proportion of noise to remove (0.0-1.0)"`
	FFTSize       int     `json:"n_fft,omitempty" example:"2048" doc:"FFT window size"`
}

// TranscribeArgs builds the subcommand argv for a transcription run.
// Unset optional fields fall back to the binary's defaults.
func TranscribeArgs(req TranscribeRequest) []string {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	device := req.Device
	if device == "" {
		device = DefaultDevice
	}
	computeType := req.ComputeType
	if computeType == "" {
		computeType = DefaultComputeType
	}
	beamSize := req.BeamSize
	if beamSize == 0 {
		beamSize = DefaultBeamSize
	}

	args := []string{
		"transcribe",
		"--input", req.Input,
		"--output", req.Output,
		"--model", model,
		"--device", device,
		"--compute-type", computeType,
		"--beam-size", strconv.Itoa(beamSize),
	}
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	if req.Translate {
		args = append(args, "--translate")
	}
	if req.NoVAD {
		args = append(args, "--no-vad")
	}
	return args
}

// NoiseReduceArgs builds the subcommand argv for a noise-reduction run.
func NoiseReduceArgs(req NoiseReduceRequest) []string {
	propDecrease := req.PropDecrease
	if propDecrease == 0 {
		propDecrease = DefaultPropDecrease
	}
	fftSize := req.FFTSize
	if fftSize == 0 {
		fftSize = DefaultFFTSize
	}

	args := []string{
		"noise-reduce",
		"--input", req.Input,
		"--output", req.Output,
		"--prop-decrease", strconv.FormatFloat(propDecrease, 'g', -1, 64),
		"--n-fft", strconv.Itoa(fftSize),
	}
	if req.NonStationary {
		args = append(args, "--non-stationary")
	}
	return args
}
