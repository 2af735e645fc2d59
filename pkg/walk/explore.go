package walk

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/observability"
)

var (
	// ErrStructural is returned by [Explore] when the next function yields a
	// nil node or a node from another graph. Graph construction rejects such
	// edges, so meeting one means the graph was built by other means.
	ErrStructural = errors.New("structural graph violation")

	// ErrNotImplemented is returned for the [Bidirectional] direction.
	ErrNotImplemented = cerrors.New(cerrors.ErrCodeUnsupported, "bidirectional traversal is not implemented")

	// ErrInvalidQuery is returned for queries with a missing or unknown
	// scope, direction, overlay or sensitivity.
	ErrInvalidQuery = cerrors.New(cerrors.ErrCodeInvalidQuery, "invalid query")
)

// Predicate tells whether a node is a target.
type Predicate func(*cpg.Node) bool

// Step is one candidate extension of a path: the next node and the context
// the extended path will carry.
type Step struct {
	Node    *cpg.Node
	Context Context
}

// NextFunc computes the candidate steps from cur, the last node of path,
// given the context of that path. path is shared and must not be modified.
//
// A NextFunc may return a [*Cut] together with the steps it could still take
// to report edges it refused for budget or recursion reasons. Any other
// error aborts the exploration.
type NextFunc func(cur *cpg.Node, c Context, path []*cpg.Node) ([]Step, error)

// Nodes adapts a plain successor function. Every step keeps the context of
// the path it extends.
func Nodes(fn func(*cpg.Node) []*cpg.Node) NextFunc {
	return func(cur *cpg.Node, c Context, _ []*cpg.Node) ([]Step, error) {
		next := fn(cur)
		steps := make([]Step, len(next))
		for i, n := range next {
			steps[i] = Step{Node: n, Context: c}
		}
		return steps, nil
	}
}

// Cut reports edges a NextFunc refused without the path being a plain dead end.
type Cut struct {
	// Budget is set when a step or call-depth bound refused an edge.
	Budget bool
	// Recursion is set when an edge would re-enter a call already on the
	// call stack.
	Recursion bool
}

func (c *Cut) Error() string {
	var parts []string
	if c.Budget {
		parts = append(parts, "budget exhausted")
	}
	if c.Recursion {
		parts = append(parts, "recursion")
	}
	return "walk: edges cut: " + strings.Join(parts, ", ")
}

func (c *Cut) any() bool { return c != nil && (c.Budget || c.Recursion) }

// FailureReason tells why a path was recorded as failed.
type FailureReason uint8

const (
	// PathEnded means the path had no further steps.
	PathEnded FailureReason = iota
	// HitEarlyTermination means the early-termination predicate stopped it.
	HitEarlyTermination
	// Looped means the path returned to a node it had already visited with
	// a compatible call stack, or could only continue by re-entering a call
	// already on its call stack.
	Looped
	// BudgetExhausted means the scope's step or call-depth bound refused
	// every remaining edge. Such a path may have continued without the bound.
	BudgetExhausted
)

func (r FailureReason) String() string {
	switch r {
	case PathEnded:
		return "path-ended"
	case HitEarlyTermination:
		return "early-termination"
	case Looped:
		return "looped"
	case BudgetExhausted:
		return "budget-exhausted"
	}
	return fmt.Sprintf("reason(%d)", r)
}

// Path is a node sequence beginning at the start node.
type Path []*cpg.Node

// Last returns the final node, or nil for an empty path.
func (p Path) Last() *cpg.Node {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// IDs returns the node IDs along the path.
func (p Path) IDs() []string {
	out := make([]string, len(p))
	for i, n := range p {
		out[i] = n.ID()
	}
	return out
}

func (p Path) String() string { return strings.Join(p.IDs(), " -> ") }

func (p Path) key() string { return strings.Join(p.IDs(), "\x00") }

// FailedPath is a path that never satisfied the predicate.
type FailedPath struct {
	Reason FailureReason
	Path   Path
}

// Result holds the outcome of an exploration.
type Result struct {
	// Fulfilled holds every path that reached a target.
	Fulfilled []Path
	// Failed holds every path that ended, looped or was stopped without
	// reaching a target. It is only filled when failed paths are collected.
	Failed []FailedPath
	// Truncated is set when a budget refused at least one edge.
	Truncated bool
	// Iterations counts the partial paths taken from the worklist.
	Iterations int
}

// Possible reports whether some path reaches a target.
func (r *Result) Possible() bool { return len(r.Fulfilled) > 0 }

// Mandatory reports whether every path reaches a target. A truncated result
// is never mandatory, since the budget may hide failing paths. The answer is
// only meaningful when failed paths were collected.
func (r *Result) Mandatory() bool { return len(r.Failed) == 0 && !r.Truncated }

// FailedPaths returns the failed paths without their reasons.
func (r *Result) FailedPaths() []Path {
	out := make([]Path, len(r.Failed))
	for i, f := range r.Failed {
		out[i] = f.Path
	}
	return out
}

// Shortest returns the shortest fulfilled path, or nil.
func (r *Result) Shortest() Path {
	var best Path
	for _, p := range r.Fulfilled {
		if best == nil || len(p) < len(best) {
			best = p
		}
	}
	return best
}

// Options controls an exploration.
type Options struct {
	// CollectFailedPaths records dead ends, loops and early terminations.
	CollectFailedPaths bool
	// FindAllPaths re-explores nodes already reached by another path. When
	// false each node is expanded at most once per compatible call stack.
	FindAllPaths bool
	// EarlyTermination, if set, stops a path at the first node for which it
	// returns true. The context is the one the path would carry at that node.
	EarlyTermination func(*cpg.Node, Context) bool
	// Context is the initial context of the start path.
	Context Context
	// Kind labels the exploration in logs and hooks.
	Kind string
	// Logger receives debug output; nil disables logging.
	Logger *log.Logger
}

// DefaultOptions collects failed paths and finds all paths.
func DefaultOptions() Options {
	return Options{CollectFailedPaths: true, FindAllPaths: true}
}

// Explore walks the graph from start and returns the paths that reach a node
// satisfying pred and, if requested, the paths that do not.
//
// The worklist always continues the longest partial path first. A candidate
// satisfying pred ends its path as fulfilled. A candidate already on the path
// with a compatible call stack ends it as a loop; such a loop is only
// reported as failed if no other result passes through the same prefix.
// Cycles therefore never cause divergence. Without FindAllPaths a candidate
// that another path already reached is dropped; whatever lies beyond it is
// reported through that other path.
//
// ctx is polled once per worklist iteration.
func Explore(ctx context.Context, start *cpg.Node, next NextFunc, pred Predicate, opts Options) (res *Result, err error) {
	if start == nil {
		return nil, fmt.Errorf("%w: %w", ErrStructural, cpg.ErrNilNode)
	}
	if next == nil || pred == nil {
		return nil, fmt.Errorf("%w: next function and predicate are required", ErrInvalidQuery)
	}

	begin := time.Now()
	hooks := observability.Traversal()
	hooks.OnExploreStart(ctx, opts.Kind, start.ID())
	defer func() {
		fulfilled, failed, iterations := 0, 0, 0
		if res != nil {
			fulfilled, failed, iterations = len(res.Fulfilled), len(res.Failed), res.Iterations
		}
		hooks.OnExploreComplete(ctx, opts.Kind, fulfilled, failed, iterations, time.Since(begin), err)
		if opts.Logger != nil {
			opts.Logger.Debug("explore", "kind", opts.Kind, "start", start.ID(),
				"fulfilled", fulfilled, "failed", failed, "iterations", iterations,
				"elapsed", time.Since(begin).Round(time.Microsecond), "err", err)
		}
	}()

	x := newExplorer(start.Graph(), opts)
	x.push(&entry{node: start, ctx: opts.Context, length: 1})

	for x.work.Len() > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cur := x.pop()
		x.res.Iterations++
		path := cur.path()

		steps, err := next(cur.node, cur.ctx, path)
		var cut *Cut
		if err != nil && !errors.As(err, &cut) {
			return nil, err
		}
		if cut.any() && cut.Budget {
			x.res.Truncated = true
		}
		if len(steps) == 0 && opts.CollectFailedPaths {
			x.fail(deadEnd(cut), path)
		}

		for _, s := range steps {
			if s.Node == nil {
				return nil, fmt.Errorf("%w: nil successor of %s", ErrStructural, cur.node)
			}
			if s.Node.Graph() != x.graph {
				return nil, fmt.Errorf("%w: successor %s of %s: %w", ErrStructural, s.Node, cur.node, cpg.ErrForeignNode)
			}
			extended := append(Path(nil), path...)
			extended = append(extended, s.Node)

			if pred(s.Node) {
				x.fulfill(extended)
				continue
			}
			if opts.EarlyTermination != nil && opts.EarlyTermination(s.Node, s.Context) {
				if opts.CollectFailedPaths {
					x.fail(HitEarlyTermination, extended)
				}
				continue
			}
			if cur.onPath(s.Node, s.Context) {
				if opts.CollectFailedPaths {
					x.fail(Looped, extended)
				}
				continue
			}
			if opts.FindAllPaths || !x.reached(s.Node, s.Context) {
				c := s.Context
				c.Steps++
				x.push(&entry{node: s.Node, ctx: c, parent: cur, length: cur.length + 1})
			}
		}
	}

	return x.res, nil
}

// deadEnd classifies a path that has no further steps.
func deadEnd(cut *Cut) FailureReason {
	switch {
	case cut == nil:
		return PathEnded
	case cut.Budget:
		return BudgetExhausted
	case cut.Recursion:
		return Looped
	}
	return PathEnded
}

// entry is one partial path, stored as a node with a link to the entry it
// extends so that branches share their common prefix.
type entry struct {
	node   *cpg.Node
	ctx    Context
	parent *entry
	length int
	seq    int
	index  int
}

func (e *entry) path() Path {
	p := make(Path, e.length)
	for x := e; x != nil; x = x.parent {
		p[x.length-1] = x.node
	}
	return p
}

// onPath reports whether n already occurs on the path with a call stack
// compatible with c.
func (e *entry) onPath(n *cpg.Node, c Context) bool {
	for x := e; x != nil; x = x.parent {
		if x.node == n && compatible(c, x.ctx) {
			return true
		}
	}
	return false
}

// compatible reports whether a visit with context c repeats a visit with
// context seen: either c is outside any call, or the call c is in was
// already active at the earlier visit.
func compatible(c, seen Context) bool {
	top, ok := c.CallStack.Top()
	return !ok || seen.CallStack.Contains(top)
}

type explorer struct {
	graph *cpg.Graph
	opts  Options
	res   *Result

	work worklist
	seq  int
	live map[*cpg.Node][]*entry
	seen map[*cpg.Node][]Context

	fulfilledKeys map[string]bool
	failedKeys    map[string]bool
}

func newExplorer(g *cpg.Graph, opts Options) *explorer {
	return &explorer{
		graph:         g,
		opts:          opts,
		res:           &Result{},
		live:          make(map[*cpg.Node][]*entry),
		seen:          make(map[*cpg.Node][]Context),
		fulfilledKeys: make(map[string]bool),
		failedKeys:    make(map[string]bool),
	}
}

func (x *explorer) push(e *entry) {
	x.seq++
	e.seq = x.seq
	heap.Push(&x.work, e)
	x.live[e.node] = append(x.live[e.node], e)
}

func (x *explorer) pop() *entry {
	e := heap.Pop(&x.work).(*entry)
	live := x.live[e.node]
	for i, l := range live {
		if l == e {
			x.live[e.node] = append(live[:i], live[i+1:]...)
			break
		}
	}
	x.seen[e.node] = append(x.seen[e.node], e.ctx)
	return e
}

// reached reports whether n was already expanded, or is the end of a live
// worklist entry, with a compatible call stack.
func (x *explorer) reached(n *cpg.Node, c Context) bool {
	for _, s := range x.seen[n] {
		if compatible(c, s) {
			return true
		}
	}
	for _, l := range x.live[n] {
		if compatible(c, l.ctx) {
			return true
		}
	}
	return false
}

func (x *explorer) fulfill(p Path) {
	if k := p.key(); !x.fulfilledKeys[k] {
		x.fulfilledKeys[k] = true
		x.res.Fulfilled = append(x.res.Fulfilled, p)
	}
}

func (x *explorer) fail(r FailureReason, p Path) {
	if k := p.key(); !x.failedKeys[k] {
		x.failedKeys[k] = true
		x.res.Failed = append(x.res.Failed, FailedPath{Reason: r, Path: p})
	}
}

// worklist is a max-heap on path length; among equal lengths the oldest
// entry wins.
type worklist []*entry

func (w worklist) Len() int { return len(w) }

func (w worklist) Less(i, j int) bool {
	if w[i].length != w[j].length {
		return w[i].length > w[j].length
	}
	return w[i].seq < w[j].seq
}

func (w worklist) Swap(i, j int) {
	w[i], w[j] = w[j], w[i]
	w[i].index = i
	w[j].index = j
}

func (w *worklist) Push(v any) {
	e := v.(*entry)
	e.index = len(*w)
	*w = append(*w, e)
}

func (w *worklist) Pop() any {
	old := *w
	e := old[len(old)-1]
	old[len(old)-1] = nil
	*w = old[:len(old)-1]
	return e
}
