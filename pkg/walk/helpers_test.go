package walk

import (
	"slices"
	"testing"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// fixture builds small graphs whose node IDs equal their names.
type fixture struct {
	t *testing.T
	g *cpg.Graph
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, g: cpg.New()}
}

func (f *fixture) add(kind cpg.Kind, names ...string) {
	f.t.Helper()
	for _, name := range names {
		if _, err := f.g.NewNodeWithID(name, kind, name); err != nil {
			f.t.Fatalf("NewNodeWithID(%q) error = %v", name, err)
		}
	}
}

func (f *fixture) n(name string) *cpg.Node {
	f.t.Helper()
	n, ok := f.g.Node(name)
	if !ok {
		f.t.Fatalf("no node %q", name)
	}
	return n
}

func (f *fixture) eog(from, to string, opts ...cpg.EOGOption) {
	f.t.Helper()
	if _, err := f.g.AddEOG(f.n(from), f.n(to), opts...); err != nil {
		f.t.Fatalf("AddEOG(%s, %s) error = %v", from, to, err)
	}
}

// chain adds evaluation-order edges along the given nodes.
func (f *fixture) chain(names ...string) {
	f.t.Helper()
	for i := 1; i < len(names); i++ {
		f.eog(names[i-1], names[i])
	}
}

func (f *fixture) dfg(from, to string, opts ...cpg.DFGOption) {
	f.t.Helper()
	if _, err := f.g.AddDFG(f.n(from), f.n(to), opts...); err != nil {
		f.t.Fatalf("AddDFG(%s, %s) error = %v", from, to, err)
	}
}

func (f *fixture) cdg(from, to string) {
	f.t.Helper()
	if _, err := f.g.AddCDG(f.n(from), f.n(to)); err != nil {
		f.t.Fatalf("AddCDG(%s, %s) error = %v", from, to, err)
	}
}

func (f *fixture) invoke(call, fn string) {
	f.t.Helper()
	if _, err := f.g.AddInvoke(f.n(call), f.n(fn)); err != nil {
		f.t.Fatalf("AddInvoke(%s, %s) error = %v", call, fn, err)
	}
}

func (f *fixture) own(parent, slot string, children ...string) {
	f.t.Helper()
	for _, c := range children {
		if err := f.n(parent).AppendChild(slot, f.n(c)); err != nil {
			f.t.Fatalf("AppendChild(%s, %s) error = %v", parent, c, err)
		}
	}
}

func is(name string) Predicate {
	return func(n *cpg.Node) bool { return n.ID() == name }
}

// rendered returns the paths as sorted "a -> b" strings.
func rendered(paths []Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	slices.Sort(out)
	return out
}

func failedWith(res *Result, reason FailureReason) []string {
	var out []Path
	for _, f := range res.Failed {
		if f.Reason == reason {
			out = append(out, f.Path)
		}
	}
	return rendered(out)
}
