package cpg

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNilNode is returned when a nil node is passed where a node is required.
	ErrNilNode = errors.New("nil node")

	// ErrInvalidNodeID is returned by [Graph.NewNodeWithID] for an empty ID.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.NewNodeWithID] when the ID is
	// already taken, and by [Graph.NewNode] when the allocator repeats itself.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrForeignNode is returned when an edge endpoint or AST child belongs to
	// a different graph instance.
	ErrForeignNode = errors.New("node belongs to another graph")

	// ErrAlreadyOwned is returned by [Node.AppendChild] for a child that
	// already has an AST owner.
	ErrAlreadyOwned = errors.New("node already has an AST owner")

	// ErrASTCycle is returned by [Node.AppendChild] when the child is the
	// parent itself or one of its ancestors.
	ErrASTCycle = errors.New("AST child would become its own ancestor")

	// ErrNotChild is returned by [Node.DetachChild] when the node is not the
	// owner of the child.
	ErrNotChild = errors.New("node is not an AST child of this parent")

	// ErrInvalidInvoke is returned by [Graph.AddInvoke] unless the edge goes
	// from a call to a function.
	ErrInvalidInvoke = errors.New("invoke edges must go from a call to a function")

	// ErrInvalidCallingContext is returned by [Graph.AddDFG] when the calling
	// context has no direction or its call site is not a call node of the graph.
	ErrInvalidCallingContext = errors.New("invalid calling context")

	// ErrInvalidGranularity is returned when a granularity cannot be parsed.
	ErrInvalidGranularity = errors.New("invalid granularity")

	// ErrUnknownKind is returned by [ParseKind] for an unknown kind name.
	ErrUnknownKind = errors.New("unknown node kind")

	// ErrInvalidGraph wraps every violation reported by [Graph.Validate].
	ErrInvalidGraph = errors.New("invalid graph")
)

// Graph owns a set of nodes and the overlay edges between them.
//
// The zero value is not usable; create graphs with [New].
type Graph struct {
	ids   IDAllocator
	nodes map[string]*Node
	order []*Node

	eog     []*EvaluationOrder
	dfg     []*Dataflow
	cdg     []*ControlDependence
	invokes []*Invoke
}

// Option configures a [Graph].
type Option func(*Graph)

// WithIDAllocator makes the graph draw node IDs from a.
func WithIDAllocator(a IDAllocator) Option { return func(g *Graph) { g.ids = a } }

// New creates an empty graph. Without [WithIDAllocator] the graph uses its own
// [SequentialIDs] with prefix "n".
func New(opts ...Option) *Graph {
	g := &Graph{nodes: make(map[string]*Node)}
	for _, o := range opts {
		o(g)
	}
	if g.ids == nil {
		g.ids = NewSequentialIDs("n")
	}
	return g
}

// NewNode creates a node with an allocated ID. The name is parsed with
// [DefaultDelimiter]; use [WithName] for other delimiters.
//
// NewNode panics if the allocator hands out an ID that is already in use,
// since that can only be a broken allocator.
func (g *Graph) NewNode(kind Kind, name string, opts ...NodeOption) *Node {
	n, err := g.NewNodeWithID(g.ids.NextID(), kind, name, opts...)
	if err != nil {
		panic(fmt.Sprintf("cpg: id allocator: %v", err))
	}
	return n
}

// NewNodeWithID creates a node with an explicit ID, typically when loading a
// graph that was exported earlier. It returns ErrInvalidNodeID or
// ErrDuplicateNodeID if the ID is empty or taken.
func (g *Graph) NewNodeWithID(id string, kind Kind, name string, opts ...NodeOption) (*Node, error) {
	if id == "" {
		return nil, ErrInvalidNodeID
	}
	if _, exists := g.nodes[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeID, id)
	}
	n := &Node{
		id:    id,
		graph: g,
		Kind:  kind,
		Name:  ParseName(name, DefaultDelimiter),
		Meta:  Metadata{},
	}
	for _, o := range opts {
		o(n)
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
	return n, nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	copy(out, g.order)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// Contains reports whether n was created by g.
func (g *Graph) Contains(n *Node) bool { return n != nil && n.graph == g }

// EdgeCount returns the number of edges of the given kind.
func (g *Graph) EdgeCount(kind EdgeKind) int {
	switch kind {
	case EdgeEOG:
		return len(g.eog)
	case EdgeDFG:
		return len(g.dfg)
	case EdgeCDG:
		return len(g.cdg)
	case EdgeInvoke:
		return len(g.invokes)
	}
	return 0
}

// Edges returns all edges of the given kind in creation order.
func (g *Graph) Edges(kind EdgeKind) []Edge {
	var out []Edge
	switch kind {
	case EdgeEOG:
		for _, e := range g.eog {
			out = append(out, e)
		}
	case EdgeDFG:
		for _, e := range g.dfg {
			out = append(out, e)
		}
	case EdgeCDG:
		for _, e := range g.cdg {
			out = append(out, e)
		}
	case EdgeInvoke:
		for _, e := range g.invokes {
			out = append(out, e)
		}
	}
	return out
}

// AddEOG adds an evaluation-order edge from start to end.
func (g *Graph) AddEOG(start, end *Node, opts ...EOGOption) (*EvaluationOrder, error) {
	if err := g.checkEndpoints(start, end); err != nil {
		return nil, err
	}
	e := &EvaluationOrder{start: start, end: end}
	for _, o := range opts {
		o(e)
	}
	start.nextEOG = append(start.nextEOG, e)
	end.prevEOG = append(end.prevEOG, e)
	g.eog = append(g.eog, e)
	return e, nil
}

// AddDFG adds a dataflow edge from start to end. Without options the edge
// has [Full] granularity and no calling context.
func (g *Graph) AddDFG(start, end *Node, opts ...DFGOption) (*Dataflow, error) {
	if err := g.checkEndpoints(start, end); err != nil {
		return nil, err
	}
	e := &Dataflow{start: start, end: end, Granularity: Full()}
	for _, o := range opts {
		o(e)
	}
	if err := g.checkCallingContext(e.Context); err != nil {
		return nil, err
	}
	start.nextDFG = append(start.nextDFG, e)
	end.prevDFG = append(end.prevDFG, e)
	g.dfg = append(g.dfg, e)
	return e, nil
}

// AddCDG adds a control-dependence edge: end is control-dependent on start.
func (g *Graph) AddCDG(start, end *Node) (*ControlDependence, error) {
	if err := g.checkEndpoints(start, end); err != nil {
		return nil, err
	}
	e := &ControlDependence{start: start, end: end}
	start.nextCDG = append(start.nextCDG, e)
	end.prevCDG = append(end.prevCDG, e)
	g.cdg = append(g.cdg, e)
	return e, nil
}

// AddInvoke records that call may invoke fn.
func (g *Graph) AddInvoke(call, fn *Node) (*Invoke, error) {
	if err := g.checkEndpoints(call, fn); err != nil {
		return nil, err
	}
	if !call.IsCall() || !fn.IsFunction() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidInvoke, call, fn)
	}
	e := &Invoke{start: call, end: fn}
	call.invokes = append(call.invokes, e)
	fn.calledBy = append(fn.calledBy, e)
	g.invokes = append(g.invokes, e)
	return e, nil
}

func (g *Graph) checkEndpoints(start, end *Node) error {
	if start == nil || end == nil {
		return ErrNilNode
	}
	if start.graph != g {
		return fmt.Errorf("%w: start %s", ErrForeignNode, start)
	}
	if end.graph != g {
		return fmt.Errorf("%w: end %s", ErrForeignNode, end)
	}
	return nil
}

func (g *Graph) checkCallingContext(cc *CallingContext) error {
	if cc == nil {
		return nil
	}
	if cc.Direction != ContextIn && cc.Direction != ContextOut {
		return fmt.Errorf("%w: missing direction", ErrInvalidCallingContext)
	}
	if cc.Call == nil || cc.Call.graph != g || !cc.Call.IsCall() {
		return fmt.Errorf("%w: call site %s", ErrInvalidCallingContext, cc.Call)
	}
	return nil
}

// Validate re-checks every structural invariant and returns all violations
// joined together, each wrapping ErrInvalidGraph. A graph built only through
// this package's constructors always validates; Validate exists to catch
// corruption in graphs assembled by other means.
func (g *Graph) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidGraph}, args...)...))
	}

	for _, n := range g.order {
		if g.nodes[n.id] != n {
			fail("node %s is not indexed under its ID", n)
		}
		if n.parent != nil {
			if n.parent.graph != g {
				fail("AST owner of %s belongs to another graph", n)
			} else if !slices.Contains(n.parent.slots[n.parentSlot], n) {
				fail("%s is not listed in slot %q of its owner %s", n, n.parentSlot, n.parent)
			}
		}
		seen := map[*Node]bool{n: true}
		for p := n.parent; p != nil; p = p.parent {
			if seen[p] {
				fail("AST cycle through %s", n)
				break
			}
			seen[p] = true
		}
		for slot, children := range n.slots {
			for _, c := range children {
				if c.parent != n || c.parentSlot != slot {
					fail("child %s in slot %q of %s has a different owner", c, slot, n)
				}
			}
		}
	}
	for _, e := range g.eog {
		g.validateEdge(e, fail)
	}
	for _, e := range g.dfg {
		g.validateEdge(e, fail)
		if err := g.checkCallingContext(e.Context); err != nil {
			fail("%s: %v", e, err)
		}
	}
	for _, e := range g.cdg {
		g.validateEdge(e, fail)
	}
	for _, e := range g.invokes {
		g.validateEdge(e, fail)
		if !e.start.IsCall() || !e.end.IsFunction() {
			fail("%s: %v", e, ErrInvalidInvoke)
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) validateEdge(e Edge, fail func(string, ...any)) {
	if e.Start() == nil || e.End() == nil {
		fail("%s edge with nil endpoint", e.Kind())
		return
	}
	if e.Start().graph != g || e.End().graph != g {
		fail("%s: endpoint outside the graph", e)
	}
}
