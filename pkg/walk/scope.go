package walk

import (
	"fmt"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// Scope limits how far a query may travel. It is one of [Intraprocedural]
// or [Interprocedural].
type Scope interface {
	fmt.Stringer
	isScope()
}

// Intraprocedural never crosses a call boundary: it refuses every dataflow
// edge carrying a calling context and every invoke edge. It also stops once
// MaxSteps edges have been taken on a path.
type Intraprocedural struct {
	MaxSteps Bound
}

// Interprocedural crosses call boundaries but refuses to descend deeper than
// MaxCallDepth nested calls or to take more than MaxSteps edges on a path.
// Re-entering a call that is already on the call stack is reported as a
// looping path instead of being followed.
type Interprocedural struct {
	MaxCallDepth Bound
	MaxSteps     Bound
}

func (Intraprocedural) isScope() {}
func (Interprocedural) isScope() {}

func (s Intraprocedural) String() string {
	return "intraprocedural(steps=" + s.MaxSteps.String() + ")"
}

func (s Interprocedural) String() string {
	return "interprocedural(depth=" + s.MaxCallDepth.String() + ", steps=" + s.MaxSteps.String() + ")"
}

type verdict uint8

const (
	allow verdict = iota
	refuse
	refuseBudget
	refuseRecursion
)

// scopeVerdict decides whether scope s lets a path in state c take e from
// cur. interproceduralEdges reports whether any edge considered alongside e
// carries a calling context.
func scopeVerdict(s Scope, cur *cpg.Node, e cpg.Edge, c Context, d Direction, interproceduralEdges bool) verdict {
	switch s := s.(type) {
	case Intraprocedural:
		if df, ok := e.(*cpg.Dataflow); ok && df.ContextSensitive() {
			return refuse
		}
		if _, ok := e.(*cpg.Invoke); ok {
			return refuse
		}
		if !s.MaxSteps.Allows(c.Steps) {
			return refuseBudget
		}
		return allow

	case Interprocedural:
		call := pushedCall(d, cur, e)
		if call != nil && c.CallStack.Contains(call) {
			return refuseRecursion
		}
		if !s.MaxSteps.Allows(c.Steps) {
			return refuseBudget
		}
		depthOK := s.MaxCallDepth.Allows(c.CallStack.Depth())
		if df, ok := e.(*cpg.Dataflow); ok && df.FunctionSummary {
			// Summaries stand in for callee bodies we cannot or may not enter.
			if !depthOK || !interproceduralEdges {
				return allow
			}
			return refuse
		}
		if call != nil && !depthOK {
			return refuseBudget
		}
		return allow
	}
	panic(fmt.Sprintf("walk: unknown scope %T", s))
}
