package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/cpgwalk/pkg/cache"
	"github.com/matzehuels/cpgwalk/pkg/cpg"
	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/profile"
)

const fixture = `
nodes:
  - {id: secret, kind: variable, name: secret}
  - {id: a, kind: variable, name: a}
  - {id: b, kind: variable, name: b}
  - {id: sink, kind: call, name: log.Print}
edges:
  - {kind: dfg, from: secret, to: a}
  - {kind: dfg, from: secret, to: b}
  - {kind: dfg, from: a, to: sink}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.yaml")
	if err := os.WriteFile(path, []byte(fixture), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code cerrors.Code
	}{
		{"ok", Options{GraphPath: "g.yaml", Starts: []string{"a"}, Target: Target{Kind: "call"}}, ""},
		{"no graph", Options{Starts: []string{"a"}, Target: Target{ID: "b"}}, cerrors.ErrCodeInvalidPath},
		{"no starts", Options{GraphPath: "g.yaml", Target: Target{ID: "b"}}, cerrors.ErrCodeInvalidInput},
		{"bad start", Options{GraphPath: "g.yaml", Starts: []string{"a b"}, Target: Target{ID: "b"}}, cerrors.ErrCodeInvalidInput},
		{"no target", Options{GraphPath: "g.yaml", Starts: []string{"a"}}, cerrors.ErrCodeInvalidQuery},
		{"bad kind", Options{GraphPath: "g.yaml", Starts: []string{"a"}, Target: Target{Kind: "lambda"}}, cerrors.ErrCodeInvalidQuery},
		{"negative workers", Options{GraphPath: "g.yaml", Starts: []string{"a"}, Target: Target{ID: "b"}, Workers: -1}, cerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if tt.opts.Profile == nil || tt.opts.Logger == nil {
					t.Error("Validate() should set the default profile and logger")
				}
				return
			}
			if !cerrors.Is(err, tt.code) {
				t.Errorf("Validate() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestTarget(t *testing.T) {
	g := cpg.New()
	n, _ := g.NewNodeWithID("sink", cpg.KindCall, "log.Print")

	tests := []struct {
		target Target
		match  bool
		str    string
	}{
		{Target{ID: "sink"}, true, "id=sink"},
		{Target{Name: "log.Print"}, true, "name=log.Print"},
		{Target{Name: "Print", Kind: "call"}, true, "name=Print,kind=call"},
		{Target{Name: "Print", Kind: "variable"}, false, "name=Print,kind=variable"},
		{Target{ID: "other", Kind: "call"}, false, "id=other,kind=call"},
	}
	for _, tt := range tests {
		if got := tt.target.Predicate()(n); got != tt.match {
			t.Errorf("%v.Predicate() = %v, want %v", tt.target, got, tt.match)
		}
		if got := tt.target.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	opts := Options{GraphPath: writeFixture(t), Starts: []string{"secret", "b"}, Target: Target{Kind: "call"}, Workers: 2}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.CacheHit {
		t.Error("first Execute() should miss the cache")
	}
	if res.Stats.NodeCount != 4 || res.Stats.EdgeCount != 3 {
		t.Errorf("Stats = %+v, want 4 nodes and 3 edges", res.Stats)
	}

	runs := res.Report.Runs
	if len(runs) != 2 {
		t.Fatalf("Runs = %d, want 2", len(runs))
	}
	if got := strings.Join(runs[0].Fulfilled[0], " "); got != "secret a sink" {
		t.Errorf("fulfilled = %q, want secret a sink", got)
	}
	if !runs[0].Possible() || runs[0].Mandatory() {
		t.Errorf("secret: Possible %v Mandatory %v, want true false", runs[0].Possible(), runs[0].Mandatory())
	}
	if len(runs[0].Failed) != 1 || runs[0].Failed[0].Reason != "path-ended" {
		t.Errorf("secret failed = %+v, want one path-ended", runs[0].Failed)
	}
	if runs[1].Possible() {
		t.Error("b should not reach the sink")
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !again.CacheHit || again.GraphHash != res.GraphHash {
		t.Errorf("second Execute() CacheHit = %v, want true", again.CacheHit)
	}
	if len(again.Report.Runs) != 2 || !again.Report.Possible() {
		t.Errorf("cached report = %+v", again.Report)
	}

	opts.Refresh = true
	if fresh, _ := r.Execute(ctx, opts); fresh == nil || fresh.CacheHit {
		t.Error("Execute() with Refresh should not use the cache")
	}

	opts.Refresh = false
	opts.Profile = &profile.Profile{Name: "t", Graph: profile.GraphDFG, Direction: profile.DirectionBackward, Scope: profile.ScopeInterprocedural}
	if other, _ := r.Execute(ctx, opts); other == nil || other.CacheHit {
		t.Error("a different profile should miss the cache")
	}
}

func TestRunnerErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	path := writeFixture(t)

	_, err := r.Execute(ctx, Options{GraphPath: path, Starts: []string{"nope"}, Target: Target{ID: "a"}})
	if !cerrors.Is(err, cerrors.ErrCodeNodeNotFound) {
		t.Errorf("unknown start error = %v, want NODE_NOT_FOUND", err)
	}

	_, err = r.Execute(ctx, Options{GraphPath: filepath.Join(t.TempDir(), "none.yaml"), Starts: []string{"a"}, Target: Target{ID: "a"}})
	if !cerrors.Is(err, cerrors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}

	_, err = r.Execute(ctx, Options{GraphPath: "graph.dot", Starts: []string{"a"}, Target: Target{ID: "a"}})
	if !cerrors.Is(err, cerrors.ErrCodeInvalidFormat) {
		t.Errorf("bad extension error = %v, want INVALID_FORMAT", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte(`{"nodes":[{"id":"a","kind":"nope"}]}`), 0644)
	_, err = r.Execute(ctx, Options{GraphPath: bad, Starts: []string{"a"}, Target: Target{ID: "a"}})
	if !cerrors.Is(err, cerrors.ErrCodeInvalidGraph) {
		t.Errorf("invalid document error = %v, want INVALID_GRAPH", err)
	}
}
