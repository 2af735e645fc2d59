package walk

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// Sensitivity is a set of refinements applied to every edge a query
// considers. Combine sensitivities with | or [With]; the union of a
// sensitivity with itself is itself.
type Sensitivity uint8

const (
	// ContextSensitive tracks the call stack so that a return is only
	// taken towards the call site it was entered from.
	ContextSensitive Sensitivity = 1 << iota
	// FieldSensitive tracks the index stack so that an element written into
	// a composite is only read back through the same field or index.
	FieldSensitive
	// Implicit also considers implicit flows. It never blocks an edge; in
	// DFG queries it switches the walk to program-dependence edges.
	Implicit
	// FilterUnreachableEOG blocks evaluation-order edges marked unreachable.
	FilterUnreachableEOG
	// OnlyFullDFG blocks dataflow edges that carry only a field or index.
	OnlyFullDFG

	sensitivityEnd
)

var sensitivityNames = map[Sensitivity]string{
	ContextSensitive:     "context",
	FieldSensitive:       "field",
	Implicit:             "implicit",
	FilterUnreachableEOG: "filter-unreachable",
	OnlyFullDFG:          "only-full",
}

// With returns the union of the given sensitivities.
func With(s ...Sensitivity) Sensitivity {
	var out Sensitivity
	for _, x := range s {
		out |= x
	}
	return out
}

// Plus returns the union of s and the given sensitivities.
func (s Sensitivity) Plus(other ...Sensitivity) Sensitivity { return s | With(other...) }

// Has reports whether every sensitivity in x is part of s.
func (s Sensitivity) Has(x Sensitivity) bool { return s&x == x }

// Flags returns the individual sensitivities of s in declaration order.
func (s Sensitivity) Flags() []Sensitivity {
	out := make([]Sensitivity, 0, bits.OnesCount8(uint8(s)))
	for f := Sensitivity(1); f < sensitivityEnd; f <<= 1 {
		if s&f != 0 {
			out = append(out, f)
		}
	}
	return out
}

func (s Sensitivity) String() string {
	if s == 0 {
		return "none"
	}
	names := make([]string, 0, 5)
	for _, f := range s.Flags() {
		names = append(names, sensitivityNames[f])
	}
	return strings.Join(names, "+")
}

// ParseSensitivity returns the sensitivity with the given name, as printed
// by [Sensitivity.String].
func ParseSensitivity(name string) (Sensitivity, error) {
	for f, n := range sensitivityNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown sensitivity %q", ErrInvalidQuery, name)
}

// follow applies the single sensitivity f to the step from cur over e.
func (f Sensitivity) follow(cur *cpg.Node, e cpg.Edge, c Context, d Direction) (Context, bool) {
	switch f {
	case ContextSensitive:
		if call := pushedCall(d, cur, e); call != nil {
			c.CallStack = c.CallStack.Push(call)
			return c, true
		}
		if call := poppedCall(d, cur, e); call != nil {
			if c.CallStack.Empty() {
				return c, true
			}
			stack, ok := c.CallStack.PopIfOnTop(call)
			c.CallStack = stack
			return c, ok
		}
		return c, true

	case FieldSensitive:
		df, ok := e.(*cpg.Dataflow)
		if !ok || !df.Granularity.IsPartial() {
			return c, true
		}
		next := nextOf(d, e)
		// A composite flowing into an enclosing composite is a write into the
		// outer one, not a read out of the inner one.
		writes := next.HasInitializers() && !cur.IsInitializer(next)
		if cur.HasInitializers() && readsOut(d, cur, next) && !writes {
			if c.IndexStack.Empty() {
				return c, true
			}
			stack, ok := c.IndexStack.PopIfOnTop(df.Granularity)
			c.IndexStack = stack
			return c, ok
		}
		if next.HasInitializers() {
			c.IndexStack = c.IndexStack.Push(df.Granularity)
		}
		return c, true

	case Implicit:
		return c, true

	case FilterUnreachableEOG:
		if eog, ok := e.(*cpg.EvaluationOrder); ok && eog.Unreachable {
			return c, false
		}
		return c, true

	case OnlyFullDFG:
		if df, ok := e.(*cpg.Dataflow); ok && !df.Granularity.IsFull() {
			return c, false
		}
		return c, true
	}
	panic(fmt.Sprintf("walk: unknown sensitivity %d", f))
}

// readsOut reports whether stepping from composite to next takes an element
// back out of it. Going backwards that means stepping to one of its own
// initializers; going forwards every partial edge leaving the composite is
// a read.
func readsOut(d Direction, composite, next *cpg.Node) bool {
	if _, back := d.(Backward); back {
		return composite.IsInitializer(next)
	}
	return true
}
