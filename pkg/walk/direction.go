package walk

import (
	"fmt"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// Overlay selects the edge set a policy-driven query walks.
type Overlay uint8

const (
	// DFG walks dataflow edges, or program-dependence edges when the query
	// is [Implicit].
	DFG Overlay = iota + 1
	// EOG walks evaluation-order edges and enters callees through invoke edges.
	EOG
)

func (o Overlay) String() string {
	switch o {
	case DFG:
		return "dfg"
	case EOG:
		return "eog"
	}
	return fmt.Sprintf("overlay(%d)", o)
}

// Direction is one of [Forward], [Backward] or [Bidirectional].
type Direction interface {
	fmt.Stringer
	// Overlay returns the edge set the direction walks.
	Overlay() Overlay
	isDirection()
}

// Forward walks edges from start to end. On dataflow edges an In context
// descends into a call and an Out context returns from it.
type Forward struct{ Graph Overlay }

// Backward walks edges from end to start. Time runs backwards, so an Out
// context descends into a call and an In context returns from it.
type Backward struct{ Graph Overlay }

// Bidirectional is reserved. Every query using it fails with
// [ErrNotImplemented].
type Bidirectional struct{ Graph Overlay }

func (d Forward) Overlay() Overlay       { return d.Graph }
func (d Backward) Overlay() Overlay      { return d.Graph }
func (d Bidirectional) Overlay() Overlay { return d.Graph }

func (d Forward) String() string       { return "forward(" + d.Graph.String() + ")" }
func (d Backward) String() string      { return "backward(" + d.Graph.String() + ")" }
func (d Bidirectional) String() string { return "bidirectional(" + d.Graph.String() + ")" }

func (Forward) isDirection()       {}
func (Backward) isDirection()      {}
func (Bidirectional) isDirection() {}

// nextOf returns the node an edge leads to in direction d.
func nextOf(d Direction, e cpg.Edge) *cpg.Node {
	switch d.(type) {
	case Forward:
		return e.End()
	case Backward:
		return e.Start()
	}
	panic(fmt.Sprintf("walk: no next node for direction %v", d))
}

// pushedCall returns the call site entered by taking e from cur, or nil if
// e does not descend into a call.
func pushedCall(d Direction, cur *cpg.Node, e cpg.Edge) *cpg.Node {
	switch d.Overlay() {
	case DFG:
		df, ok := e.(*cpg.Dataflow)
		if !ok || df.Context == nil {
			return nil
		}
		want := cpg.ContextIn
		if _, back := d.(Backward); back {
			want = cpg.ContextOut
		}
		if df.Context.Direction == want {
			return df.Context.Call
		}
	case EOG:
		if _, ok := e.(*cpg.Invoke); ok && cur.IsCall() {
			return cur
		}
	}
	return nil
}

// poppedCall returns the call site returned to by taking e from cur, or nil
// if e does not leave a callee.
func poppedCall(d Direction, cur *cpg.Node, e cpg.Edge) *cpg.Node {
	switch d.Overlay() {
	case DFG:
		df, ok := e.(*cpg.Dataflow)
		if !ok || df.Context == nil {
			return nil
		}
		want := cpg.ContextOut
		if _, back := d.(Backward); back {
			want = cpg.ContextIn
		}
		if df.Context.Direction == want {
			return df.Context.Call
		}
	case EOG:
		inv, ok := e.(*cpg.Invoke)
		if !ok {
			return nil
		}
		switch d.(type) {
		case Forward:
			if cur.IsReturn() || len(cur.NextEOGEdges()) == 0 {
				return inv.Start()
			}
		case Backward:
			if cur.IsFunction() {
				return inv.Start()
			}
		}
	}
	return nil
}
