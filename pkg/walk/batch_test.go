package walk

import (
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

func TestExploreAll(t *testing.T) {
	f := callGraph(t)
	starts := []*cpg.Node{f.n("x1"), f.n("x2"), f.n("p")}
	run := ForQuery(forwardDFG(Interprocedural{}, ContextSensitive), is("y1"), DefaultOptions())

	for _, limit := range []int{0, 1, 3} {
		results, err := ExploreAll(context.Background(), starts, run, limit)
		if err != nil {
			t.Fatalf("limit %d: ExploreAll() error = %v", limit, err)
		}
		want := []bool{true, false, true}
		for i, res := range results {
			if res.Possible() != want[i] {
				t.Errorf("limit %d: start %s Possible() = %v, want %v", limit, starts[i].ID(), res.Possible(), want[i])
			}
		}
	}
}

func TestExploreAllFirstError(t *testing.T) {
	f := callGraph(t)
	starts := []*cpg.Node{f.n("x1"), f.n("x2")}
	run := ForQuery(Query{Scope: Interprocedural{}, Direction: Bidirectional{Graph: DFG}}, is("y1"), DefaultOptions())

	if _, err := ExploreAll(context.Background(), starts, run, 2); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("ExploreAll() error = %v, want ErrNotImplemented", err)
	}
}

func TestExploreAllCancelsSiblings(t *testing.T) {
	f := callGraph(t)
	boom := errors.New("boom")
	run := func(ctx context.Context, start *cpg.Node) (*Result, error) {
		if start.ID() == "x1" {
			return nil, boom
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := ExploreAll(context.Background(), []*cpg.Node{f.n("x1"), f.n("x2")}, run, 2)
	if !errors.Is(err, boom) {
		t.Errorf("ExploreAll() error = %v, want boom", err)
	}
}
