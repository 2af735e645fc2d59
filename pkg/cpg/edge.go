package cpg

// EdgeKind identifies the overlay an edge belongs to.
type EdgeKind uint8

const (
	EdgeEOG EdgeKind = iota + 1
	EdgeDFG
	EdgeCDG
	EdgeInvoke
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeEOG:
		return "eog"
	case EdgeDFG:
		return "dfg"
	case EdgeCDG:
		return "cdg"
	case EdgeInvoke:
		return "invoke"
	}
	return "unknown"
}

// Edge is a directed overlay edge. Every edge is registered on both of its
// endpoints, so it appears in the start's "next" view and in the end's "prev"
// view.
type Edge interface {
	Start() *Node
	End() *Node
	Kind() EdgeKind
}

// EvaluationOrder is an EOG edge: end may be evaluated directly after start.
type EvaluationOrder struct {
	start, end *Node
	// Unreachable marks edges that static analysis proved dead.
	Unreachable bool
	// Branch is the branch outcome for edges leaving a condition, nil otherwise.
	Branch *bool
}

func (e *EvaluationOrder) Start() *Node   { return e.start }
func (e *EvaluationOrder) End() *Node     { return e.end }
func (e *EvaluationOrder) Kind() EdgeKind { return EdgeEOG }
func (e *EvaluationOrder) String() string { return edgeString(e) }

// Dataflow is a DFG edge: the value of start (or a part of it) flows to end.
type Dataflow struct {
	start, end  *Node
	Granularity Granularity
	// Context is set when the edge crosses a call boundary.
	Context *CallingContext
	// FunctionSummary marks edges that shortcut a callee using a summary
	// instead of entering its body.
	FunctionSummary bool
}

func (e *Dataflow) Start() *Node   { return e.start }
func (e *Dataflow) End() *Node     { return e.end }
func (e *Dataflow) Kind() EdgeKind { return EdgeDFG }
func (e *Dataflow) String() string { return edgeString(e) }

// ContextSensitive reports whether the edge carries a calling context.
func (e *Dataflow) ContextSensitive() bool { return e.Context != nil }

// ControlDependence is a CDG edge: whether end executes depends on start.
type ControlDependence struct {
	start, end *Node
}

func (e *ControlDependence) Start() *Node   { return e.start }
func (e *ControlDependence) End() *Node     { return e.end }
func (e *ControlDependence) Kind() EdgeKind { return EdgeCDG }
func (e *ControlDependence) String() string { return edgeString(e) }

// Invoke links a call site to a function it may invoke.
type Invoke struct {
	start, end *Node
}

func (e *Invoke) Start() *Node   { return e.start }
func (e *Invoke) End() *Node     { return e.end }
func (e *Invoke) Kind() EdgeKind { return EdgeInvoke }
func (e *Invoke) String() string { return edgeString(e) }

func edgeString(e Edge) string {
	return e.Kind().String() + "(" + e.Start().String() + " -> " + e.End().String() + ")"
}

// EOGOption configures an edge created by [Graph.AddEOG].
type EOGOption func(*EvaluationOrder)

// Unreachable marks the edge as statically dead.
func Unreachable() EOGOption { return func(e *EvaluationOrder) { e.Unreachable = true } }

// OnBranch records the branch outcome that selects the edge.
func OnBranch(taken bool) EOGOption {
	return func(e *EvaluationOrder) { e.Branch = &taken }
}

// DFGOption configures an edge created by [Graph.AddDFG].
type DFGOption func(*Dataflow)

// WithGranularity sets the part of the value that flows.
func WithGranularity(g Granularity) DFGOption { return func(e *Dataflow) { e.Granularity = g } }

// WithCallingContext tags the edge as crossing the call boundary of cc.Call.
func WithCallingContext(cc *CallingContext) DFGOption {
	return func(e *Dataflow) { e.Context = cc }
}

// AsFunctionSummary marks the edge as a callee summary.
func AsFunctionSummary() DFGOption { return func(e *Dataflow) { e.FunctionSummary = true } }
