package compile

import (
	"fmt"
	"strings"
)

// A label is either a source stream reference like "0:v" (contains a
// colon, produced by an -i input) or a named intermediate like
// "v0_trimmed" that must be produced by an earlier chain.

// Chain is one filter invocation: consumed labels, the filter text, and
// the labels it produces.
type Chain struct {
	Inputs  []string
	Filter  string
	Outputs []string
}

// Graph is an ordered set of filter chains forming a filter_complex
// expression.
type Graph struct {
	chains []Chain
}

// Add appends a chain to the graph.
func (g *Graph) Add(filter string, inputs []string, outputs ...string) {
	g.chains = append(g.chains, Chain{Inputs: inputs, Filter: filter, Outputs: outputs})
}

// Empty reports whether the graph has no chains.
func (g *Graph) Empty() bool {
	return len(g.chains) == 0
}

// Validate checks label wiring: every produced label is unique, and every
// consumed intermediate label was produced by an earlier chain.
func (g *Graph) Validate() error {
	produced := make(map[string]bool)
	for _, c := range g.chains {
		for _, in := range c.Inputs {
			if isStreamRef(in) {
				continue
			}
			if !produced[in] {
				return fmt.Errorf("filter %q consumes label %q before it is produced", c.Filter, in)
			}
		}
		for _, out := range c.Outputs {
			if produced[out] {
				return fmt.Errorf("filter %q produces duplicate label %q", c.Filter, out)
			}
			produced[out] = true
		}
	}
	return nil
}

// Render serializes the graph to filter_complex text, e.g.
// "[0:v]trim=start=2:duration=3[outv];[0:a]atrim=start=2:duration=3[outa]".
func (g *Graph) Render() string {
	var sb strings.Builder
	for i, c := range g.chains {
		if i > 0 {
			sb.WriteString(";")
		}
		for _, in := range c.Inputs {
			sb.WriteString("[" + in + "]")
		}
		sb.WriteString(c.Filter)
		for _, out := range c.Outputs {
			sb.WriteString("[" + out + "]")
		}
	}
	return sb.String()
}

// isStreamRef reports whether a label references an input stream directly
// ("0:v", "2:a") rather than a produced intermediate.
func isStreamRef(label string) bool {
	return strings.Contains(label, ":")
}
