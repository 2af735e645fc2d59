package walk

import (
	"context"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// =============================================================================
// Program and Control Dependence
// =============================================================================

// Widening extends the dependence walkers across calls without the full
// policy machinery of a [Query].
type Widening struct {
	// Interprocedural also steps from a call to the functions it invokes
	// (forwards) or from a function to its call sites (backwards).
	Interprocedural bool
	// MaxDepth caps how many call sites a backward walk records on the call
	// stack. Callers beyond it are still visited.
	MaxDepth Bound
}

// FollowNextPDGUntilHit follows program-dependence edges forward.
func FollowNextPDGUntilHit(ctx context.Context, start *cpg.Node, w Widening, pred Predicate, opts Options) (*Result, error) {
	return Explore(ctx, start, w.forward((*cpg.Node).NextPDG), pred, withKind(opts, "next-pdg"))
}

// FollowPrevPDGUntilHit follows program-dependence edges backward.
func FollowPrevPDGUntilHit(ctx context.Context, start *cpg.Node, w Widening, pred Predicate, opts Options) (*Result, error) {
	return Explore(ctx, start, w.backward((*cpg.Node).PrevPDG), pred, withKind(opts, "prev-pdg"))
}

// FollowNextCDGUntilHit follows control-dependence edges forward.
func FollowNextCDGUntilHit(ctx context.Context, start *cpg.Node, w Widening, pred Predicate, opts Options) (*Result, error) {
	return Explore(ctx, start, w.forward((*cpg.Node).NextCDG), pred, withKind(opts, "next-cdg"))
}

// FollowPrevCDGUntilHit follows control-dependence edges backward.
func FollowPrevCDGUntilHit(ctx context.Context, start *cpg.Node, w Widening, pred Predicate, opts Options) (*Result, error) {
	return Explore(ctx, start, w.backward((*cpg.Node).PrevCDG), pred, withKind(opts, "prev-cdg"))
}

func (w Widening) forward(view func(*cpg.Node) []*cpg.Node) NextFunc {
	return func(cur *cpg.Node, c Context, _ []*cpg.Node) ([]Step, error) {
		next := view(cur)
		if w.Interprocedural && cur.IsCall() {
			next = append(next, cur.Invokes()...)
		}
		steps := make([]Step, len(next))
		for i, n := range next {
			steps[i] = Step{Node: n, Context: c}
		}
		return steps, nil
	}
}

func (w Widening) backward(view func(*cpg.Node) []*cpg.Node) NextFunc {
	return func(cur *cpg.Node, c Context, _ []*cpg.Node) ([]Step, error) {
		var steps []Step
		for _, n := range view(cur) {
			steps = append(steps, Step{Node: n, Context: c})
		}
		if !w.Interprocedural || !cur.IsFunction() {
			return steps, nil
		}
		for _, call := range cur.CalledBy() {
			callerCtx := c
			if w.MaxDepth.Allows(c.CallStack.Depth()) {
				callerCtx.CallStack = c.CallStack.Push(call)
			}
			steps = append(steps, Step{Node: call, Context: callerCtx})
		}
		return steps, nil
	}
}

func withKind(opts Options, kind string) Options {
	if opts.Kind == "" {
		opts.Kind = kind
	}
	return opts
}

// =============================================================================
// Collect All Paths
// =============================================================================

func never(*cpg.Node) bool { return false }

// collectAll explores with a predicate that never holds, so every path ends
// in the failed set, which is then the complete path set.
func collectAll(ctx context.Context, start *cpg.Node, next NextFunc, kind string) ([]Path, error) {
	opts := DefaultOptions()
	opts.Kind = kind
	res, err := Explore(ctx, start, next, never, opts)
	if err != nil {
		return nil, err
	}
	return res.FailedPaths(), nil
}

func collectAllQuery(ctx context.Context, start *cpg.Node, q Query, kind string) ([]Path, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return collectAll(ctx, start, q.NextFunc(), kind)
}

// CollectAllNextDFGPaths returns every forward dataflow path from start
// under [DFGQuery].
func CollectAllNextDFGPaths(ctx context.Context, start *cpg.Node) ([]Path, error) {
	return collectAllQuery(ctx, start, DFGQuery(), "all-next-dfg")
}

// CollectAllPrevDFGPaths returns every backward dataflow path from start.
func CollectAllPrevDFGPaths(ctx context.Context, start *cpg.Node) ([]Path, error) {
	q := DFGQuery()
	q.Direction = Backward{Graph: DFG}
	return collectAllQuery(ctx, start, q, "all-prev-dfg")
}

// CollectAllNextFullDFGPaths returns every forward path over full dataflow edges.
func CollectAllNextFullDFGPaths(ctx context.Context, start *cpg.Node) ([]Path, error) {
	return collectAllQuery(ctx, start, fullDFGQuery(Forward{Graph: DFG}), "all-next-full-dfg")
}

// CollectAllPrevFullDFGPaths returns every backward path over full dataflow edges.
func CollectAllPrevFullDFGPaths(ctx context.Context, start *cpg.Node) ([]Path, error) {
	return collectAllQuery(ctx, start, fullDFGQuery(Backward{Graph: DFG}), "all-prev-full-dfg")
}

// CollectAllNextEOGPaths returns every forward evaluation-order path,
// skipping unreachable edges.
func CollectAllNextEOGPaths(ctx context.Context, start *cpg.Node) ([]Path, error) {
	return collectAllQuery(ctx, start, eogQuery(Forward{Graph: EOG}), "all-next-eog")
}

// CollectAllPrevEOGPaths returns every backward evaluation-order path.
func CollectAllPrevEOGPaths(ctx context.Context, start *cpg.Node) ([]Path, error) {
	return collectAllQuery(ctx, start, eogQuery(Backward{Graph: EOG}), "all-prev-eog")
}

// CollectAllNextPDGPaths returns every forward program-dependence path.
func CollectAllNextPDGPaths(ctx context.Context, start *cpg.Node, w Widening) ([]Path, error) {
	return collectAll(ctx, start, w.forward((*cpg.Node).NextPDG), "all-next-pdg")
}

// CollectAllPrevPDGPaths returns every backward program-dependence path.
func CollectAllPrevPDGPaths(ctx context.Context, start *cpg.Node, w Widening) ([]Path, error) {
	return collectAll(ctx, start, w.backward((*cpg.Node).PrevPDG), "all-prev-pdg")
}

// CollectAllNextCDGPaths returns every forward control-dependence path.
func CollectAllNextCDGPaths(ctx context.Context, start *cpg.Node, w Widening) ([]Path, error) {
	return collectAll(ctx, start, w.forward((*cpg.Node).NextCDG), "all-next-cdg")
}

// CollectAllPrevCDGPaths returns every backward control-dependence path.
func CollectAllPrevCDGPaths(ctx context.Context, start *cpg.Node, w Widening) ([]Path, error) {
	return collectAll(ctx, start, w.backward((*cpg.Node).PrevCDG), "all-prev-cdg")
}

// =============================================================================
// First Match
// =============================================================================

// FollowFirstMatch returns the first path from start, in depth-first order
// over next, whose last node satisfies pred. It returns nil if no such path
// exists. Each node is visited at most once, so alternatives are never
// explored; use it for existence checks.
func FollowFirstMatch(start *cpg.Node, next func(*cpg.Node) []*cpg.Node, pred Predicate) Path {
	visited := map[*cpg.Node]bool{start: true}
	var dfs func(path Path) Path
	dfs = func(path Path) Path {
		for _, n := range next(path.Last()) {
			if visited[n] {
				continue
			}
			visited[n] = true
			p := append(path[:len(path):len(path)], n)
			if pred(n) {
				return p
			}
			if found := dfs(p); found != nil {
				return found
			}
		}
		return nil
	}
	return dfs(Path{start})
}

// FollowNextEOG returns the first chain of reachable evaluation-order edges
// from start whose last edge satisfies pred, or nil.
func FollowNextEOG(start *cpg.Node, pred func(*cpg.EvaluationOrder) bool) []*cpg.EvaluationOrder {
	return firstEdgeChain(start, (*cpg.Node).NextEOGEdges, (*cpg.EvaluationOrder).End, pred)
}

// FollowPrevEOG is [FollowNextEOG] walking backwards.
func FollowPrevEOG(start *cpg.Node, pred func(*cpg.EvaluationOrder) bool) []*cpg.EvaluationOrder {
	return firstEdgeChain(start, (*cpg.Node).PrevEOGEdges, (*cpg.EvaluationOrder).Start, pred)
}

func firstEdgeChain(start *cpg.Node, edges func(*cpg.Node) []*cpg.EvaluationOrder, far func(*cpg.EvaluationOrder) *cpg.Node, pred func(*cpg.EvaluationOrder) bool) []*cpg.EvaluationOrder {
	visited := map[*cpg.Node]bool{start: true}
	var dfs func(n *cpg.Node, chain []*cpg.EvaluationOrder) []*cpg.EvaluationOrder
	dfs = func(n *cpg.Node, chain []*cpg.EvaluationOrder) []*cpg.EvaluationOrder {
		for _, e := range edges(n) {
			if e.Unreachable {
				continue
			}
			c := append(chain[:len(chain):len(chain)], e)
			if pred(e) {
				return c
			}
			m := far(e)
			if visited[m] {
				continue
			}
			visited[m] = true
			if found := dfs(m, c); found != nil {
				return found
			}
		}
		return nil
	}
	return dfs(start, nil)
}

// =============================================================================
// Shortest Flows
// =============================================================================

// FollowPrevFullDFG returns the shortest backward path over full dataflow
// edges from start to a node satisfying pred, or nil.
func FollowPrevFullDFG(ctx context.Context, start *cpg.Node, pred Predicate) (Path, error) {
	res, err := FollowPrevFullDFGUntilHit(ctx, start, pred, Options{Kind: "prev-full-dfg"})
	if err != nil {
		return nil, err
	}
	return res.Shortest(), nil
}

// FollowPrevDFG returns the shortest backward dataflow path from start to a
// node satisfying pred, or nil.
func FollowPrevDFG(ctx context.Context, start *cpg.Node, pred Predicate) (Path, error) {
	q := DFGQuery()
	q.Direction = Backward{Graph: DFG}
	res, err := FollowUntilHit(ctx, start, q, pred, Options{Kind: "prev-dfg"})
	if err != nil {
		return nil, err
	}
	return res.Shortest(), nil
}

// LastEOGNodes returns the nodes at which an evaluation of fn ends without
// leaving the function, in the order they are found.
func LastEOGNodes(ctx context.Context, fn *cpg.Node) ([]*cpg.Node, error) {
	q := Query{
		Scope:       Intraprocedural{},
		Direction:   Forward{Graph: EOG},
		Sensitivity: FilterUnreachableEOG,
	}
	res, err := FollowUntilHit(ctx, fn, q, never, Options{CollectFailedPaths: true, Kind: "last-eog"})
	if err != nil {
		return nil, err
	}
	var last []*cpg.Node
	seen := make(map[*cpg.Node]bool)
	for _, f := range res.Failed {
		if f.Reason != PathEnded {
			continue
		}
		if n := f.Path.Last(); !seen[n] {
			seen[n] = true
			last = append(last, n)
		}
	}
	return last, nil
}
