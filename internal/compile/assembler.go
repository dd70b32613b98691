package compile

import (
	"strings"

	"github.com/dividr/rendernode/internal/job"
)

// Assembler runs the handler pipeline and produces the final argument
// vector. The tool binary name and control flags are prepended by the
// caller.
type Assembler struct {
	// OutputDir is joined with the job's output file name.
	OutputDir string
}

// Assemble compiles a job into its argument vector.
func (a Assembler) Assemble(j *job.EditJob) ([]string, error) {
	ctx := NewContext()
	for _, handler := range pipeline {
		if err := handler(j, ctx); err != nil {
			return nil, err
		}
	}

	if !ctx.Graph.Empty() {
		if err := ctx.Graph.Validate(); err != nil {
			return nil, err
		}
		ctx.PushArgs("-filter_complex", ctx.Graph.Render())
		for _, label := range ctx.Maps {
			ctx.PushArgs("-map", mapRef(label))
		}
	}

	ctx.PushArgs(ctx.OutputArgs...)

	// Simple filters collapse into one -vf chain unless the job built
	// its own concat graph, which owns the whole filter stage.
	if len(ctx.Filters) > 0 && !ctx.UsedConcat {
		ctx.PushArgs("-vf", strings.Join(ctx.Filters, ","))
	}

	ctx.PushArgs(JoinOutputPath(a.OutputDir, j.Output))
	return ctx.Args, nil
}

// mapRef renders a -map argument: produced labels are bracketed, direct
// stream references are passed as-is.
func mapRef(label string) string {
	if isStreamRef(label) {
		return label
	}
	return "[" + label + "]"
}

// JoinOutputPath joins the configured output directory and an output file
// name, inserting a separator only when the directory lacks a trailing one.
func JoinOutputPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir + name
}
