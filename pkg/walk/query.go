package walk

import (
	"context"
	"fmt"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// Query is the policy triple that turns an edge overlay into a [NextFunc].
// The scope bounds the walk, the direction picks the overlay and which end of
// an edge to step to, and every sensitivity may block an edge or update the
// context the extended path carries.
type Query struct {
	Scope       Scope
	Direction   Direction
	Sensitivity Sensitivity
}

func (q Query) String() string {
	return fmt.Sprintf("%v %v [%v]", q.Direction, q.Scope, q.Sensitivity)
}

// Validate reports whether q can be executed. A [Bidirectional] query fails
// with [ErrNotImplemented].
func (q Query) Validate() error {
	if q.Scope == nil {
		return fmt.Errorf("%w: missing scope", ErrInvalidQuery)
	}
	switch d := q.Direction.(type) {
	case nil:
		return fmt.Errorf("%w: missing direction", ErrInvalidQuery)
	case Bidirectional:
		return ErrNotImplemented
	default:
		if o := d.Overlay(); o != DFG && o != EOG {
			return fmt.Errorf("%w: direction %v has no overlay", ErrInvalidQuery, d)
		}
	}
	if q.Sensitivity >= sensitivityEnd {
		return fmt.Errorf("%w: unknown sensitivity bits %#x", ErrInvalidQuery, uint8(q.Sensitivity))
	}
	return nil
}

// NextFunc returns the step function for q. It does not validate q; an
// invalid query makes every call fail.
func (q Query) NextFunc() NextFunc {
	return func(cur *cpg.Node, c Context, _ []*cpg.Node) ([]Step, error) {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		switch q.Direction.Overlay() {
		case DFG:
			return q.dataflow(cur, c)
		case EOG:
			if _, back := q.Direction.(Backward); back {
				return q.evaluationOrderBackward(cur, c)
			}
			return q.evaluationOrderForward(cur, c)
		}
		panic("unreachable")
	}
}

func (q Query) dataflow(cur *cpg.Node, c Context) ([]Step, error) {
	_, back := q.Direction.(Backward)
	implicit := q.Sensitivity.Has(Implicit)

	var edges []cpg.Edge
	switch {
	case implicit && back:
		edges = cur.PrevPDGEdges()
	case implicit:
		edges = cur.NextPDGEdges()
	case back:
		edges = asEdges(cur.PrevDFGEdges())
	default:
		edges = asEdges(cur.NextDFGEdges())
	}
	steps, cut := q.filter(cur, edges, c, nil)
	return steps, cut.err()
}

// evaluationOrderForward enters callees through invoke edges and leaves them
// from a return or a node without successors, continuing after the call site.
func (q Query) evaluationOrderForward(cur *cpg.Node, c Context) ([]Step, error) {
	var (
		steps []Step
		cut   Cut
	)
	switch {
	case cur.IsCall() && len(cur.InvokeEdges()) > 0:
		steps, cut = q.filter(cur, asEdges(cur.InvokeEdges()), c, nil)
	case cur.IsReturn() || len(q.nextEOG(cur)) == 0:
		if fn := cur.EnclosingFunction(); fn != nil {
			steps, cut = q.filter(cur, asEdges(fn.CalledByEdges()), c, func(e cpg.Edge) []*cpg.Node {
				return q.nextEOG(e.Start())
			})
		}
	}
	if len(steps) == 0 {
		var more Cut
		steps, more = q.filter(cur, asEdges(cur.NextEOGEdges()), c, nil)
		cut.merge(more)
	}
	return steps, cut.err()
}

// evaluationOrderBackward mirrors evaluationOrderForward: a call site steps
// into the exits of its callees and a function steps back to the
// predecessors of its callers.
func (q Query) evaluationOrderBackward(cur *cpg.Node, c Context) ([]Step, error) {
	var (
		steps []Step
		cut   Cut
	)
	switch {
	case cur.IsCall() && len(cur.InvokeEdges()) > 0:
		steps, cut = q.filter(cur, asEdges(cur.InvokeEdges()), c, func(e cpg.Edge) []*cpg.Node {
			return exitNodes(e.End(), q.nextEOG)
		})
	case cur.IsFunction():
		steps, cut = q.filter(cur, asEdges(cur.CalledByEdges()), c, func(e cpg.Edge) []*cpg.Node {
			return q.prevEOG(e.Start())
		})
	}
	if len(steps) == 0 {
		var more Cut
		steps, more = q.filter(cur, asEdges(cur.PrevEOGEdges()), c, nil)
		cut.merge(more)
	}
	return steps, cut.err()
}

// filter applies the scope and every sensitivity to each edge leaving cur.
// If jump is nil the path continues at the far end of an admitted edge;
// otherwise it continues at every node jump returns for it.
func (q Query) filter(cur *cpg.Node, edges []cpg.Edge, c Context, jump func(cpg.Edge) []*cpg.Node) ([]Step, Cut) {
	var (
		steps []Step
		cut   Cut
	)
	interprocedural := false
	for _, e := range edges {
		if df, ok := e.(*cpg.Dataflow); ok && df.ContextSensitive() {
			interprocedural = true
			break
		}
	}

	for _, e := range edges {
		switch scopeVerdict(q.Scope, cur, e, c, q.Direction, interprocedural) {
		case refuse:
			continue
		case refuseBudget:
			cut.Budget = true
			continue
		case refuseRecursion:
			cut.Recursion = true
			continue
		}

		next, ok := c, true
		for _, f := range q.Sensitivity.Flags() {
			if next, ok = f.follow(cur, e, next, q.Direction); !ok {
				break
			}
		}
		if !ok {
			continue
		}

		if jump == nil {
			steps = append(steps, Step{Node: nextOf(q.Direction, e), Context: next})
			continue
		}
		for _, n := range jump(e) {
			steps = append(steps, Step{Node: n, Context: next})
		}
	}
	return steps, cut
}

func (c *Cut) merge(o Cut) {
	c.Budget = c.Budget || o.Budget
	c.Recursion = c.Recursion || o.Recursion
}

// err returns c as an error if it cut anything, or a nil interface.
func (c Cut) err() error {
	if !c.any() {
		return nil
	}
	return &c
}

// nextEOG and prevEOG are the evaluation-order neighbours a jump across a
// call boundary may land on. With FilterUnreachableEOG they skip edges
// marked unreachable.
func (q Query) nextEOG(n *cpg.Node) []*cpg.Node {
	if q.Sensitivity.Has(FilterUnreachableEOG) {
		return n.ReachableNextEOG()
	}
	return n.NextEOG()
}

func (q Query) prevEOG(n *cpg.Node) []*cpg.Node {
	if q.Sensitivity.Has(FilterUnreachableEOG) {
		return n.ReachablePrevEOG()
	}
	return n.PrevEOG()
}

// exitNodes returns the nodes an evaluation of fn can end at: its returns and
// every node without a successor in next. A function without a body is its
// own exit.
func exitNodes(fn *cpg.Node, next func(*cpg.Node) []*cpg.Node) []*cpg.Node {
	var exits []*cpg.Node
	seen := map[*cpg.Node]bool{fn: true}
	queue := []*cpg.Node{fn}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		succ := next(n)
		if n != fn && (n.IsReturn() || len(succ) == 0) {
			exits = append(exits, n)
		}
		for _, m := range succ {
			if !seen[m] {
				seen[m] = true
				queue = append(queue, m)
			}
		}
	}
	if len(exits) == 0 {
		return []*cpg.Node{fn}
	}
	return exits
}

func asEdges[E cpg.Edge](edges []E) []cpg.Edge {
	out := make([]cpg.Edge, len(edges))
	for i, e := range edges {
		out[i] = e
	}
	return out
}

// FollowUntilHit explores from start along the steps q admits.
func FollowUntilHit(ctx context.Context, start *cpg.Node, q Query, pred Predicate, opts Options) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if opts.Kind == "" {
		opts.Kind = q.Direction.String()
	}
	return Explore(ctx, start, q.NextFunc(), pred, opts)
}

// DFGQuery is the default dataflow query: forward, interprocedural without
// bounds, and both field and context sensitive.
func DFGQuery() Query {
	return Query{
		Scope:       Interprocedural{},
		Direction:   Forward{Graph: DFG},
		Sensitivity: FieldSensitive | ContextSensitive,
	}
}

// FollowDFGUntilHit follows dataflow edges forward with [DFGQuery].
func FollowDFGUntilHit(ctx context.Context, start *cpg.Node, pred Predicate, opts Options) (*Result, error) {
	return FollowUntilHit(ctx, start, DFGQuery(), pred, opts)
}

// FollowNextFullDFGUntilHit follows only dataflow edges that move the whole
// value, context sensitively and across calls.
func FollowNextFullDFGUntilHit(ctx context.Context, start *cpg.Node, pred Predicate, opts Options) (*Result, error) {
	return FollowUntilHit(ctx, start, fullDFGQuery(Forward{Graph: DFG}), pred, opts)
}

// FollowPrevFullDFGUntilHit is [FollowNextFullDFGUntilHit] walking backwards.
func FollowPrevFullDFGUntilHit(ctx context.Context, start *cpg.Node, pred Predicate, opts Options) (*Result, error) {
	return FollowUntilHit(ctx, start, fullDFGQuery(Backward{Graph: DFG}), pred, opts)
}

func fullDFGQuery(d Direction) Query {
	return Query{Scope: Interprocedural{}, Direction: d, Sensitivity: OnlyFullDFG | ContextSensitive}
}

// FollowNextEOGUntilHit follows reachable evaluation-order edges forward,
// stepping into callees and back to their call sites.
func FollowNextEOGUntilHit(ctx context.Context, start *cpg.Node, pred Predicate, opts Options) (*Result, error) {
	return FollowUntilHit(ctx, start, eogQuery(Forward{Graph: EOG}), pred, opts)
}

// FollowPrevEOGUntilHit is [FollowNextEOGUntilHit] walking backwards.
func FollowPrevEOGUntilHit(ctx context.Context, start *cpg.Node, pred Predicate, opts Options) (*Result, error) {
	return FollowUntilHit(ctx, start, eogQuery(Backward{Graph: EOG}), pred, opts)
}

func eogQuery(d Direction) Query {
	return Query{Scope: Interprocedural{}, Direction: d, Sensitivity: FilterUnreachableEOG | ContextSensitive}
}
