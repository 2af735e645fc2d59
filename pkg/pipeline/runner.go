package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cpgwalk/pkg/cache"
	"github.com/matzehuels/cpgwalk/pkg/cpg"
	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	graphio "github.com/matzehuels/cpgwalk/pkg/io"
	"github.com/matzehuels/cpgwalk/pkg/walk"
)

// Runner executes the pipeline against a cache.
//
// The Runner keeps no per-run state, so one Runner can serve concurrent
// Execute calls.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means cache.DefaultKeyer and a
// nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load reads the graph document at path and returns the graph and the
// SHA-256 of the document bytes.
func (r *Runner) Load(ctx context.Context, path string) (*cpg.Graph, string, error) {
	format, err := graphio.FormatOf(path)
	if err != nil {
		return nil, "", cerrors.Wrap(cerrors.ErrCodeInvalidFormat, err, "graph document")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "graph document %s", path)
		}
		return nil, "", fmt.Errorf("read graph: %w", err)
	}
	g, err := graphio.Read(ctx, bytes.NewReader(data), format)
	if err != nil {
		return nil, "", cerrors.Wrap(cerrors.ErrCodeInvalidGraph, err, "%s", path)
	}
	return g, cache.Hash(data), nil
}

// Execute loads the graph and answers the query, from the cache when an
// identical query over identical document bytes was answered before.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	res := &Result{}

	loadStart := time.Now()
	g, hash, err := r.Load(ctx, opts.GraphPath)
	if err != nil {
		return nil, err
	}
	res.GraphHash = hash
	res.Stats.LoadTime = time.Since(loadStart)
	res.Stats.NodeCount = g.NodeCount()
	for _, k := range []cpg.EdgeKind{cpg.EdgeEOG, cpg.EdgeDFG, cpg.EdgeCDG, cpg.EdgeInvoke} {
		res.Stats.EdgeCount += g.EdgeCount(k)
	}
	opts.Logger.Info("loaded graph",
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"duration", res.Stats.LoadTime)

	queryStart := time.Now()
	wopts := opts.Profile.Options()
	key := r.Keyer.QueryKey(hash, cache.QueryKeyOpts{
		Query:         describe(opts.Profile),
		Starts:        opts.Starts,
		Target:        opts.Target.String(),
		FindAll:       wopts.FindAllPaths,
		CollectFailed: wopts.CollectFailedPaths,
	})

	if !opts.Refresh {
		var cached Report
		hit, err := cache.GetJSON(ctx, r.Cache, "query", key, &cached)
		if err != nil {
			opts.Logger.Warn("cache lookup failed", "err", err)
		}
		if hit {
			res.Report = &cached
			res.CacheHit = true
			res.Stats.QueryTime = time.Since(queryStart)
			opts.Logger.Debug("query served from cache", "key", key)
			return res, nil
		}
	}

	report, err := r.explore(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	res.Report = report
	res.Stats.QueryTime = time.Since(queryStart)
	opts.Logger.Info("explored",
		"starts", len(opts.Starts),
		"possible", report.Possible(),
		"duration", res.Stats.QueryTime)

	if err := cache.SetJSON(ctx, r.Cache, "query", key, report, cache.TTLQuery); err != nil {
		opts.Logger.Warn("cache write failed", "err", err)
	}
	return res, nil
}

func (r *Runner) explore(ctx context.Context, g *cpg.Graph, opts Options) (*Report, error) {
	starts := make([]*cpg.Node, len(opts.Starts))
	for i, id := range opts.Starts {
		n, ok := g.Node(id)
		if !ok {
			return nil, cerrors.New(cerrors.ErrCodeNodeNotFound, "start node %q not found", id)
		}
		starts[i] = n
	}

	wopts := opts.Profile.Options()
	wopts.Logger = opts.Logger
	run, err := opts.Profile.Exploration(opts.Target.Predicate(), wopts)
	if err != nil {
		return nil, err
	}
	results, err := walk.ExploreAll(ctx, starts, run, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("explore: %w", err)
	}
	return NewReport(describe(opts.Profile), opts.Target.String(), opts.Starts, results), nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
