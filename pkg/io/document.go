package io

import (
	"errors"
	"fmt"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// ErrInvalidDocument is returned for documents that do not describe a valid
// graph. The wrapped error names the offending node or edge.
var ErrInvalidDocument = errors.New("invalid graph document")

// Document is the serialized form of a [cpg.Graph].
type Document struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node is one serialized node. Children are listed by their owner, slot by
// slot, so that the AST and its child order survive a round trip.
type Node struct {
	ID        string       `json:"id" yaml:"id"`
	Kind      string       `json:"kind" yaml:"kind"`
	Name      string       `json:"name,omitempty" yaml:"name,omitempty"`
	Delimiter string       `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	Language  string       `json:"language,omitempty" yaml:"language,omitempty"`
	Location  *Location    `json:"location,omitempty" yaml:"location,omitempty"`
	Inferred  bool         `json:"inferred,omitempty" yaml:"inferred,omitempty"`
	Implicit  bool         `json:"implicit,omitempty" yaml:"implicit,omitempty"`
	Slots     []Slot       `json:"slots,omitempty" yaml:"slots,omitempty"`
	Meta      cpg.Metadata `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Location mirrors [cpg.Location].
type Location struct {
	File        string `json:"file" yaml:"file"`
	StartLine   int    `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	StartColumn int    `json:"start_column,omitempty" yaml:"start_column,omitempty"`
	EndLine     int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	EndColumn   int    `json:"end_column,omitempty" yaml:"end_column,omitempty"`
}

// Slot is a named, ordered list of child IDs. An empty slot is kept, since
// an empty initializer slot still marks a composite.
type Slot struct {
	Name     string   `json:"name" yaml:"name"`
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`
}

// Edge is one serialized overlay edge. Which optional fields apply depends
// on Kind: unreachable and branch on eog, the rest on dfg.
type Edge struct {
	Kind        string   `json:"kind" yaml:"kind"`
	From        string   `json:"from" yaml:"from"`
	To          string   `json:"to" yaml:"to"`
	Unreachable bool     `json:"unreachable,omitempty" yaml:"unreachable,omitempty"`
	Branch      *bool    `json:"branch,omitempty" yaml:"branch,omitempty"`
	Granularity string   `json:"granularity,omitempty" yaml:"granularity,omitempty"`
	Context     *Context `json:"context,omitempty" yaml:"context,omitempty"`
	Summary     bool     `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Context is a serialized calling context.
type Context struct {
	Direction string `json:"direction" yaml:"direction"`
	Call      string `json:"call" yaml:"call"`
}

// Build creates a graph from d. Node IDs are kept as written.
func Build(d Document) (*cpg.Graph, error) {
	g := cpg.New()
	for _, n := range d.Nodes {
		if err := addNode(g, n); err != nil {
			return nil, fmt.Errorf("%w: node %q: %w", ErrInvalidDocument, n.ID, err)
		}
	}
	for _, n := range d.Nodes {
		parent, _ := g.Node(n.ID)
		for _, s := range n.Slots {
			for _, id := range s.Children {
				child, ok := g.Node(id)
				if !ok {
					return nil, fmt.Errorf("%w: node %q slot %s: unknown child %q", ErrInvalidDocument, n.ID, s.Name, id)
				}
				if err := parent.AppendChild(s.Name, child); err != nil {
					return nil, fmt.Errorf("%w: node %q slot %s: %w", ErrInvalidDocument, n.ID, s.Name, err)
				}
			}
		}
	}
	for i, e := range d.Edges {
		if err := addEdge(g, e); err != nil {
			return nil, fmt.Errorf("%w: edge %d (%s %s->%s): %w", ErrInvalidDocument, i, e.Kind, e.From, e.To, err)
		}
	}
	return g, nil
}

func addNode(g *cpg.Graph, n Node) error {
	kind, err := cpg.ParseKind(n.Kind)
	if err != nil {
		return err
	}
	opts := []cpg.NodeOption{cpg.WithLanguage(n.Language)}
	if n.Delimiter != "" {
		opts = append(opts, cpg.WithName(cpg.ParseName(n.Name, n.Delimiter)))
	}
	if n.Location != nil {
		opts = append(opts, cpg.WithLocation(cpg.Location(*n.Location)))
	}
	if n.Inferred {
		opts = append(opts, cpg.AsInferred())
	}
	if n.Implicit {
		opts = append(opts, cpg.AsImplicit())
	}
	for k, v := range n.Meta {
		opts = append(opts, cpg.WithMeta(k, v))
	}
	slots := make([]string, len(n.Slots))
	for i, s := range n.Slots {
		slots[i] = s.Name
	}
	opts = append(opts, cpg.WithSlots(slots...))

	_, err = g.NewNodeWithID(n.ID, kind, n.Name, opts...)
	return err
}

func addEdge(g *cpg.Graph, e Edge) error {
	from, ok := g.Node(e.From)
	if !ok {
		return fmt.Errorf("unknown node %q", e.From)
	}
	to, ok := g.Node(e.To)
	if !ok {
		return fmt.Errorf("unknown node %q", e.To)
	}

	var err error
	switch e.Kind {
	case cpg.EdgeEOG.String():
		var opts []cpg.EOGOption
		if e.Unreachable {
			opts = append(opts, cpg.Unreachable())
		}
		if e.Branch != nil {
			opts = append(opts, cpg.OnBranch(*e.Branch))
		}
		_, err = g.AddEOG(from, to, opts...)
	case cpg.EdgeDFG.String():
		var opts []cpg.DFGOption
		opts, err = dataflowOptions(g, e)
		if err != nil {
			return err
		}
		_, err = g.AddDFG(from, to, opts...)
	case cpg.EdgeCDG.String():
		_, err = g.AddCDG(from, to)
	case cpg.EdgeInvoke.String():
		_, err = g.AddInvoke(from, to)
	default:
		return fmt.Errorf("unknown edge kind %q", e.Kind)
	}
	return err
}

func dataflowOptions(g *cpg.Graph, e Edge) ([]cpg.DFGOption, error) {
	gran, err := cpg.ParseGranularity(e.Granularity)
	if err != nil {
		return nil, err
	}
	opts := []cpg.DFGOption{cpg.WithGranularity(gran)}
	if e.Summary {
		opts = append(opts, cpg.AsFunctionSummary())
	}
	if e.Context != nil {
		call, ok := g.Node(e.Context.Call)
		if !ok {
			return nil, fmt.Errorf("unknown call site %q", e.Context.Call)
		}
		switch e.Context.Direction {
		case cpg.ContextIn.String():
			opts = append(opts, cpg.WithCallingContext(cpg.In(call)))
		case cpg.ContextOut.String():
			opts = append(opts, cpg.WithCallingContext(cpg.Out(call)))
		default:
			return nil, fmt.Errorf("unknown context direction %q", e.Context.Direction)
		}
	}
	return opts, nil
}

// FromGraph returns the document describing g. Nodes appear in creation
// order and edges grouped by overlay, each group in creation order.
func FromGraph(g *cpg.Graph) Document {
	var d Document
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, nodeDoc(n))
	}
	for _, kind := range []cpg.EdgeKind{cpg.EdgeEOG, cpg.EdgeDFG, cpg.EdgeCDG, cpg.EdgeInvoke} {
		for _, e := range g.Edges(kind) {
			d.Edges = append(d.Edges, edgeDoc(e))
		}
	}
	return d
}

func nodeDoc(n *cpg.Node) Node {
	out := Node{
		ID:       n.ID(),
		Kind:     n.Kind.String(),
		Name:     n.Name.String(),
		Language: n.Language,
		Inferred: n.Inferred,
		Implicit: n.Implicit,
	}
	if d := n.Name.Delimiter; d != "" && d != cpg.DefaultDelimiter {
		out.Delimiter = d
	}
	if n.Location != (cpg.Location{}) {
		loc := Location(n.Location)
		out.Location = &loc
	}
	if len(n.Meta) > 0 {
		out.Meta = n.Meta
	}
	for _, name := range n.SlotNames() {
		s := Slot{Name: name}
		for _, c := range n.Slot(name) {
			s.Children = append(s.Children, c.ID())
		}
		out.Slots = append(out.Slots, s)
	}
	return out
}

func edgeDoc(e cpg.Edge) Edge {
	out := Edge{Kind: e.Kind().String(), From: e.Start().ID(), To: e.End().ID()}
	switch e := e.(type) {
	case *cpg.EvaluationOrder:
		out.Unreachable = e.Unreachable
		out.Branch = e.Branch
	case *cpg.Dataflow:
		if !e.Granularity.IsFull() {
			out.Granularity = e.Granularity.String()
		}
		out.Summary = e.FunctionSummary
		if e.Context != nil {
			out.Context = &Context{Direction: e.Context.Direction.String(), Call: e.Context.Call.ID()}
		}
	}
	return out
}
