package compile

import (
	"strings"
	"testing"
)

func TestGraphRender(t *testing.T) {
	var g Graph
	g.Add("trim=start=2:duration=3", []string{"0:v"}, "outv")
	g.Add("atrim=start=2:duration=3", []string{"0:a"}, "outa")

	want := "[0:v]trim=start=2:duration=3[outv];[0:a]atrim=start=2:duration=3[outa]"
	if got := g.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestGraphRenderMultiInputChain(t *testing.T) {
	var g Graph
	g.Add("concat=n=2:v=1:a=1", []string{"0:v", "0:a", "1:v", "1:a"}, "outv", "outa")

	want := "[0:v][0:a][1:v][1:a]concat=n=2:v=1:a=1[outv][outa]"
	if got := g.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestGraphValidateDuplicateLabel(t *testing.T) {
	var g Graph
	g.Add("trim=start=1", []string{"0:v"}, "outv")
	g.Add("trim=start=2", []string{"1:v"}, "outv")

	err := g.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Validate() = %v, want duplicate label error", err)
	}
}

func TestGraphValidateUnproducedLabel(t *testing.T) {
	var g Graph
	g.Add("fps=30", []string{"v0_trimmed"}, "v0_fps")

	err := g.Validate()
	if err == nil || !strings.Contains(err.Error(), "before it is produced") {
		t.Errorf("Validate() = %v, want wiring error", err)
	}
}

func TestGraphValidateStreamRefsAreSources(t *testing.T) {
	var g Graph
	g.Add("trim=start=1", []string{"0:v"}, "v0_trimmed")
	g.Add("fps=30", []string{"v0_trimmed"}, "v0_fps")

	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
