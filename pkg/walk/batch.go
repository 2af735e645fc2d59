package walk

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// Exploration runs one exploration from start.
type Exploration func(ctx context.Context, start *cpg.Node) (*Result, error)

// ExploreAll runs run once per start node, at most limit at a time, and
// returns the results in the order of starts. A limit below one uses the
// number of CPUs. The first error cancels the explorations still running
// and is returned.
//
// The graph must not be modified while ExploreAll runs.
func ExploreAll(ctx context.Context, starts []*cpg.Node, run Exploration, limit int) ([]*Result, error) {
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	results := make([]*Result, len(starts))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, start := range starts {
		g.Go(func() error {
			res, err := run(gCtx, start)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ForQuery returns an Exploration running q with pred and opts.
func ForQuery(q Query, pred Predicate, opts Options) Exploration {
	return func(ctx context.Context, start *cpg.Node) (*Result, error) {
		return FollowUntilHit(ctx, start, q, pred, opts)
	}
}
