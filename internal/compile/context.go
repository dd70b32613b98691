package compile

// Context is the mutable accumulator threaded through the handler
// pipeline. A fresh Context is created per compilation; it is never
// shared across concurrent compiles.
type Context struct {
	// Args collects input flags and plain argument pairs in order.
	Args []string
	// Graph collects filter chains rendered as -filter_complex.
	Graph Graph
	// Filters collects simple video filters rendered as one -vf chain.
	Filters []string
	// Maps collects output stream labels mapped after the graph.
	Maps []string
	// OutputArgs collects codec and muxer flags appended before the
	// output path.
	OutputArgs []string
	// UsedConcat marks that the job built a multi-input concat graph,
	// which suppresses the -vf chain.
	UsedConcat bool
}

// NewContext creates an empty compilation context.
func NewContext() *Context {
	return &Context{}
}

// PushArgs appends arguments.
func (c *Context) PushArgs(args ...string) {
	c.Args = append(c.Args, args...)
}

// PrependArgs inserts arguments at the very front of the argument list.
// Used for input-seek flags that must precede the first -i.
func (c *Context) PrependArgs(args ...string) {
	c.Args = append(append([]string{}, args...), c.Args...)
}
