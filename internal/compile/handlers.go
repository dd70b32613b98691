package compile

import (
	"fmt"
	"strings"

	"github.com/dividr/rendernode/internal/job"
)

// Handler mutates the context for one operation. Handlers run in the
// fixed pipeline order and may not assume another handler ran first.
type Handler func(j *job.EditJob, ctx *Context) error

// pipeline is the fixed handler order. Input handling runs first because
// it establishes stream references; the rest are independent.
var pipeline = []Handler{
	handleInputs,
	handleTrim,
	handleCrop,
	handleSubtitles,
	handleAspect,
	handleReplaceAudio,
}

// handleInputs pushes -i flags and builds the filter graph for the
// input shape: concat over many inputs, a single trimmed input, or
// plain multi-input with no filters.
func handleInputs(j *job.EditJob, ctx *Context) error {
	if len(j.Inputs) == 0 {
		return fmt.Errorf("job has no inputs")
	}

	switch {
	case j.Operations.Concat && len(j.Inputs) > 1:
		buildConcatGraph(j, ctx)

	case len(j.Inputs) == 1:
		in := j.Inputs[0]
		ctx.PushArgs("-i", in.Path)
		if in.HasTrim() {
			ctx.Graph.Add(trimFilter("trim", in), []string{"0:v"}, "outv")
			ctx.Graph.Add(trimFilter("atrim", in), []string{"0:a"}, "outa")
			ctx.Maps = append(ctx.Maps, "outv", "outa")
		}

	default:
		// Multiple inputs combined only by later handlers (e.g. a base
		// video plus a replacement audio file).
		for _, in := range j.Inputs {
			ctx.PushArgs("-i", in.Path)
		}
	}
	return nil
}

// buildConcatGraph classifies inputs into video and audio buckets by
// extension, applies per-input trims and optional fps normalization to
// the video bucket, and wires a concat node.
func buildConcatGraph(j *job.EditJob, ctx *Context) {
	ops := j.Operations

	for _, in := range j.Inputs {
		ctx.PushArgs("-i", in.Path)
	}

	var videoIdx, audioIdx []int
	for i, in := range j.Inputs {
		if job.IsAudioPath(in.Path) {
			audioIdx = append(audioIdx, i)
		} else {
			videoIdx = append(videoIdx, i)
		}
	}

	videoRefs := make([]string, 0, len(videoIdx))
	for _, i := range videoIdx {
		in := j.Inputs[i]
		ref := fmt.Sprintf("%d:v", i)
		if in.HasTrim() {
			label := fmt.Sprintf("v%d_trimmed", i)
			ctx.Graph.Add(trimFilter("trim", in), []string{ref}, label)
			ref = label
		}
		if ops.NormalizeFrameRate {
			label := fmt.Sprintf("v%d_fps", i)
			ctx.Graph.Add(fmt.Sprintf("fps=%d", ops.FrameRate()), []string{ref}, label)
			ref = label
		}
		videoRefs = append(videoRefs, ref)
	}

	ctx.UsedConcat = true

	if len(audioIdx) > 0 {
		// Dedicated audio inputs: concat video only, then take the audio
		// track of the first audio input. Trims on additional audio
		// inputs are not applied.
		ctx.Graph.Add(fmt.Sprintf("concat=n=%d:v=1:a=0", len(videoRefs)), videoRefs, "outv")

		first := j.Inputs[audioIdx[0]]
		aref := fmt.Sprintf("%d:a", audioIdx[0])
		if first.HasTrim() {
			label := fmt.Sprintf("a%d_trimmed", audioIdx[0])
			ctx.Graph.Add(trimFilter("atrim", first), []string{aref}, label)
			aref = label
		}
		ctx.Maps = append(ctx.Maps, "outv", aref)

		// Concat with mismatched timestamps needs a clean re-encode and
		// normalized timestamps.
		ctx.OutputArgs = append(ctx.OutputArgs,
			"-c:v", "libx264", "-c:a", "aac",
			"-avoid_negative_ts", "make_zero",
		)
		return
	}

	// Every input is a video file with an embedded audio track: wire a
	// combined concat node over interleaved video/audio pairs.
	refs := make([]string, 0, len(videoIdx)*2)
	for k, i := range videoIdx {
		in := j.Inputs[i]
		refs = append(refs, videoRefs[k])

		aref := fmt.Sprintf("%d:a", i)
		if in.HasTrim() {
			label := fmt.Sprintf("a%d_trimmed", i)
			ctx.Graph.Add(trimFilter("atrim", in), []string{aref}, label)
			aref = label
		}
		refs = append(refs, aref)
	}

	n := len(videoIdx)
	v, a := 0, 0
	if n > 0 {
		v, a = 1, 1
	}
	ctx.Graph.Add(fmt.Sprintf("concat=n=%d:v=%d:a=%d", n, v, a), refs, "outv", "outa")
	ctx.Maps = append(ctx.Maps, "outv", "outa")
}

// handleTrim applies the global trim. The seek flag goes to the very
// front of argv so it is interpreted as an input seek on the first -i.
func handleTrim(j *job.EditJob, ctx *Context) error {
	trim := j.Operations.Trim
	if trim == nil {
		return nil
	}

	if trim.Start != "" {
		ctx.PrependArgs("-ss", trim.Start)
	}

	switch {
	case trim.Duration != "":
		ctx.PushArgs("-t", trim.Duration)
	case trim.End != "" && trim.Start != "":
		start, err := job.ParseSeconds(trim.Start)
		if err != nil {
			return err
		}
		end, err := job.ParseSeconds(trim.End)
		if err != nil {
			return err
		}
		ctx.PushArgs("-t", job.FormatSeconds(end-start))
	}
	// End without Start applies no trim at all.
	return nil
}

func handleCrop(j *job.EditJob, ctx *Context) error {
	if crop := j.Operations.Crop; crop != nil {
		ctx.Filters = append(ctx.Filters,
			fmt.Sprintf("crop=%d:%d:%d:%d", crop.Width, crop.Height, crop.X, crop.Y))
	}
	return nil
}

func handleSubtitles(j *job.EditJob, ctx *Context) error {
	if path := j.Operations.Subtitles; path != "" {
		ctx.Filters = append(ctx.Filters, "subtitles="+path)
	}
	return nil
}

func handleAspect(j *job.EditJob, ctx *Context) error {
	if aspect := j.Operations.Aspect; aspect != "" {
		ctx.PushArgs("-aspect", aspect)
	}
	return nil
}

// handleReplaceAudio appends the replacement file as an extra input and
// maps video from the first original input plus audio from the new one.
func handleReplaceAudio(j *job.EditJob, ctx *Context) error {
	path := j.Operations.ReplaceAudio
	if path == "" {
		return nil
	}
	ctx.PushArgs("-i", path)
	ctx.PushArgs("-map", "0:v", "-map", fmt.Sprintf("%d:a", len(j.Inputs)))
	return nil
}

// trimFilter renders a trim or atrim filter emitting only the clauses
// the input actually sets.
func trimFilter(name string, in job.InputSpec) string {
	clauses := make([]string, 0, 2)
	if in.StartTime != "" {
		clauses = append(clauses, "start="+in.StartTime)
	}
	if in.Duration != "" {
		clauses = append(clauses, "duration="+in.Duration)
	}
	return name + "=" + strings.Join(clauses, ":")
}
