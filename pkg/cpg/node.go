package cpg

import (
	"fmt"
	"slices"
)

// Metadata stores arbitrary key-value pairs attached to a node.
type Metadata map[string]any

// Kind is the structural role of a node. Traversals only test a few roles
// directly ([Node.IsCall], [Node.IsFunction], [Node.IsReturn]); everything else
// is informational.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindStatement
	KindBlock
	KindExpression
	KindReference
	KindLiteral
	KindComposite // Initializer list or other composite literal
	KindCall
	KindReturn
	KindDeclaration
	KindVariable
	KindParameter
	KindFunction
	KindRecord
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindStatement:   "statement",
	KindBlock:       "block",
	KindExpression:  "expression",
	KindReference:   "reference",
	KindLiteral:     "literal",
	KindComposite:   "composite",
	KindCall:        "call",
	KindReturn:      "return",
	KindDeclaration: "declaration",
	KindVariable:    "variable",
	KindParameter:   "parameter",
	KindFunction:    "function",
	KindRecord:      "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Location is a source range. Lines and columns are 1-based; zero means unknown.
type Location struct {
	File        string
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// String renders the location as "file:line:col".
func (l Location) String() string {
	if l.StartLine == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartColumn)
}

// Scope is a lexical scope created by a front end.
type Scope struct {
	Name   Name
	Parent *Scope
	Owner  *Node // AST node that opens the scope, if any
}

// Slot names used by the model itself.
const (
	// SlotInitializers holds the ordered elements of a composite literal.
	// A node owning this slot is treated as a composite by field-sensitive
	// traversal regardless of its Kind.
	SlotInitializers = "initializers"
	SlotBody         = "body"
	SlotArguments    = "arguments"
	SlotParameters   = "parameters"
)

// Node is one program construct. Nodes are created by a [Graph] and belong
// to it for their whole life.
type Node struct {
	Name     Name
	Kind     Kind
	Location Location
	Language string
	Scope    *Scope
	// Inferred marks nodes synthesized to fill a gap in the parse.
	Inferred bool
	// Implicit marks nodes without a literal source counterpart, such as an
	// inserted cast.
	Implicit bool
	Meta     Metadata

	id    string
	graph *Graph

	parent     *Node
	parentSlot string
	slotOrder  []string
	slots      map[string][]*Node

	nextEOG, prevEOG  []*EvaluationOrder
	nextDFG, prevDFG  []*Dataflow
	nextCDG, prevCDG  []*ControlDependence
	invokes, calledBy []*Invoke
}

// NodeOption configures a node created by [Graph.NewNode].
type NodeOption func(*Node)

// WithLocation sets the source location.
func WithLocation(l Location) NodeOption { return func(n *Node) { n.Location = l } }

// WithLanguage sets the originating language.
func WithLanguage(lang string) NodeOption { return func(n *Node) { n.Language = lang } }

// WithScope sets the enclosing lexical scope.
func WithScope(s *Scope) NodeOption { return func(n *Node) { n.Scope = s } }

// WithName overrides the name parsed from the string passed to NewNode.
func WithName(name Name) NodeOption { return func(n *Node) { n.Name = name } }

// AsInferred marks the node as inferred.
func AsInferred() NodeOption { return func(n *Node) { n.Inferred = true } }

// AsImplicit marks the node as implicit.
func AsImplicit() NodeOption { return func(n *Node) { n.Implicit = true } }

// WithMeta stores one metadata entry.
func WithMeta(key string, value any) NodeOption {
	return func(n *Node) { n.Meta[key] = value }
}

// WithSlots declares empty child slots in order. Declaring [SlotInitializers]
// makes the node a composite even before any element is attached.
func WithSlots(names ...string) NodeOption {
	return func(n *Node) {
		for _, s := range names {
			n.declareSlot(s)
		}
	}
}

// ID returns the node's identifier, unique within its graph.
func (n *Node) ID() string { return n.id }

// Graph returns the graph the node belongs to.
func (n *Node) Graph() *Graph { return n.graph }

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Name.IsZero() {
		return n.Kind.String() + "#" + n.id
	}
	return n.Name.String() + "#" + n.id
}

// IsCall reports whether the node is a call site.
func (n *Node) IsCall() bool { return n.Kind == KindCall }

// IsFunction reports whether the node declares a function.
func (n *Node) IsFunction() bool { return n.Kind == KindFunction }

// IsReturn reports whether the node is a return statement.
func (n *Node) IsReturn() bool { return n.Kind == KindReturn }

// =============================================================================
// AST
// =============================================================================

// AppendChild attaches child at the end of the named slot. It is the only
// way to change the ownership tree. AppendChild fails if child is nil, belongs
// to another graph, already has an owner, or is n itself or one of n's
// ancestors.
func (n *Node) AppendChild(slot string, child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if child.graph != n.graph {
		return fmt.Errorf("%w: %s", ErrForeignNode, child)
	}
	if child.parent != nil {
		return fmt.Errorf("%w: %s is owned by %s", ErrAlreadyOwned, child, child.parent)
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("%w: %s", ErrASTCycle, child)
		}
	}
	n.declareSlot(slot)
	n.slots[slot] = append(n.slots[slot], child)
	child.parent = n
	child.parentSlot = slot
	return nil
}

// DetachChild removes child from whichever of n's slots holds it.
// It returns ErrNotChild if n does not own child.
func (n *Node) DetachChild(child *Node) error {
	if child == nil || child.parent != n {
		return fmt.Errorf("%w: %s", ErrNotChild, child)
	}
	n.slots[child.parentSlot] = slices.DeleteFunc(n.slots[child.parentSlot], func(c *Node) bool { return c == child })
	child.parent = nil
	child.parentSlot = ""
	return nil
}

// ASTParent returns the owner of n, or nil for a root.
func (n *Node) ASTParent() *Node { return n.parent }

// ASTChildren returns the children of every slot in declaration order.
func (n *Node) ASTChildren() []*Node {
	var out []*Node
	for _, s := range n.slotOrder {
		out = append(out, n.slots[s]...)
	}
	return out
}

// Slot returns a copy of the children in the named slot.
func (n *Node) Slot(name string) []*Node { return slices.Clone(n.slots[name]) }

// SlotNames returns the declared slot names in order.
func (n *Node) SlotNames() []string { return slices.Clone(n.slotOrder) }

// Initializers returns the elements of a composite literal.
func (n *Node) Initializers() []*Node { return n.Slot(SlotInitializers) }

// HasInitializers reports whether n owns an ordered initializer slot, which
// is what makes it a composite for field-sensitive traversal.
func (n *Node) HasInitializers() bool {
	_, ok := n.slots[SlotInitializers]
	return ok
}

// IsInitializer reports whether child sits in n's initializer slot.
func (n *Node) IsInitializer(child *Node) bool {
	return child != nil && child.parent == n && child.parentSlot == SlotInitializers
}

// EnclosingFunction returns n if it is a function, otherwise the nearest
// function among its AST ancestors, or nil.
func (n *Node) EnclosingFunction() *Node {
	for p := n; p != nil; p = p.parent {
		if p.IsFunction() {
			return p
		}
	}
	return nil
}

func (n *Node) declareSlot(name string) {
	if n.slots == nil {
		n.slots = make(map[string][]*Node)
	}
	if _, ok := n.slots[name]; !ok {
		n.slots[name] = nil
		n.slotOrder = append(n.slotOrder, name)
	}
}

// =============================================================================
// EOG
// =============================================================================

// NextEOGEdges returns the outgoing evaluation-order edges.
func (n *Node) NextEOGEdges() []*EvaluationOrder { return slices.Clone(n.nextEOG) }

// PrevEOGEdges returns the incoming evaluation-order edges.
func (n *Node) PrevEOGEdges() []*EvaluationOrder { return slices.Clone(n.prevEOG) }

// NextEOG returns the evaluation-order successors, including unreachable ones.
func (n *Node) NextEOG() []*Node { return ends(n.nextEOG) }

// PrevEOG returns the evaluation-order predecessors, including unreachable ones.
func (n *Node) PrevEOG() []*Node { return starts(n.prevEOG) }

// ReachableNextEOG returns the successors over edges not marked unreachable.
func (n *Node) ReachableNextEOG() []*Node {
	var out []*Node
	for _, e := range n.nextEOG {
		if !e.Unreachable {
			out = append(out, e.end)
		}
	}
	return out
}

// ReachablePrevEOG returns the predecessors over edges not marked unreachable.
func (n *Node) ReachablePrevEOG() []*Node {
	var out []*Node
	for _, e := range n.prevEOG {
		if !e.Unreachable {
			out = append(out, e.start)
		}
	}
	return out
}

// =============================================================================
// DFG
// =============================================================================

// NextDFGEdges returns the outgoing dataflow edges.
func (n *Node) NextDFGEdges() []*Dataflow { return slices.Clone(n.nextDFG) }

// PrevDFGEdges returns the incoming dataflow edges.
func (n *Node) PrevDFGEdges() []*Dataflow { return slices.Clone(n.prevDFG) }

// NextDFG returns every dataflow successor.
func (n *Node) NextDFG() []*Node { return ends(n.nextDFG) }

// PrevDFG returns every dataflow predecessor.
func (n *Node) PrevDFG() []*Node { return starts(n.prevDFG) }

// NextFullDFG returns successors reached over full-granularity edges.
func (n *Node) NextFullDFG() []*Node { return ends(filterFlows(n.nextDFG, true)) }

// PrevFullDFG returns predecessors reached over full-granularity edges.
func (n *Node) PrevFullDFG() []*Node { return starts(filterFlows(n.prevDFG, true)) }

// NextPartialDFG returns successors reached over field or index edges.
func (n *Node) NextPartialDFG() []*Node { return ends(filterFlows(n.nextDFG, false)) }

// PrevPartialDFG returns predecessors reached over field or index edges.
func (n *Node) PrevPartialDFG() []*Node { return starts(filterFlows(n.prevDFG, false)) }

// =============================================================================
// CDG / PDG
// =============================================================================

// NextCDGEdges returns the outgoing control-dependence edges.
func (n *Node) NextCDGEdges() []*ControlDependence { return slices.Clone(n.nextCDG) }

// PrevCDGEdges returns the incoming control-dependence edges.
func (n *Node) PrevCDGEdges() []*ControlDependence { return slices.Clone(n.prevCDG) }

// NextCDG returns the nodes control-dependent on n.
func (n *Node) NextCDG() []*Node { return ends(n.nextCDG) }

// PrevCDG returns the nodes n is control-dependent on.
func (n *Node) PrevCDG() []*Node { return starts(n.prevCDG) }

// NextPDGEdges returns the outgoing control-dependence edges followed by the
// outgoing dataflow edges.
func (n *Node) NextPDGEdges() []Edge {
	out := make([]Edge, 0, len(n.nextCDG)+len(n.nextDFG))
	for _, e := range n.nextCDG {
		out = append(out, e)
	}
	for _, e := range n.nextDFG {
		out = append(out, e)
	}
	return out
}

// PrevPDGEdges returns the incoming control-dependence edges followed by the
// incoming dataflow edges.
func (n *Node) PrevPDGEdges() []Edge {
	out := make([]Edge, 0, len(n.prevCDG)+len(n.prevDFG))
	for _, e := range n.prevCDG {
		out = append(out, e)
	}
	for _, e := range n.prevDFG {
		out = append(out, e)
	}
	return out
}

// NextPDG returns the program-dependence successors without duplicates.
func (n *Node) NextPDG() []*Node { return uniqueEnds(n.NextPDGEdges(), true) }

// PrevPDG returns the program-dependence predecessors without duplicates.
func (n *Node) PrevPDG() []*Node { return uniqueEnds(n.PrevPDGEdges(), false) }

// =============================================================================
// Invokes
// =============================================================================

// InvokeEdges returns the edges from a call to the functions it may invoke.
func (n *Node) InvokeEdges() []*Invoke { return slices.Clone(n.invokes) }

// CalledByEdges returns the edges from the call sites that may invoke n.
func (n *Node) CalledByEdges() []*Invoke { return slices.Clone(n.calledBy) }

// Invokes returns the functions a call may invoke.
func (n *Node) Invokes() []*Node { return ends(n.invokes) }

// CalledBy returns the call sites that may invoke a function.
func (n *Node) CalledBy() []*Node { return starts(n.calledBy) }

func ends[E Edge](edges []E) []*Node {
	out := make([]*Node, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.End())
	}
	return out
}

func starts[E Edge](edges []E) []*Node {
	out := make([]*Node, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Start())
	}
	return out
}

func filterFlows(edges []*Dataflow, full bool) []*Dataflow {
	var out []*Dataflow
	for _, e := range edges {
		if e.Granularity.IsFull() == full {
			out = append(out, e)
		}
	}
	return out
}

func uniqueEnds(edges []Edge, forward bool) []*Node {
	seen := make(map[*Node]bool, len(edges))
	var out []*Node
	for _, e := range edges {
		m := e.Start()
		if forward {
			m = e.End()
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
