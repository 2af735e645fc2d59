// Package pipeline runs cached explorations over graph documents.
//
// The CLI and any service embedding cpgwalk share this code path, so a
// query answers the same way wherever it is issued.
//
// # Stages
//
//  1. Load: read a JSON or YAML graph document and hash its bytes.
//  2. Explore: resolve the start nodes, bind the profile to the target and
//     run one exploration per start with [walk.ExploreAll].
//
// The [Report] of the second stage is cached under a key made of the
// document hash, the rendered query, the starts and the target. Reports
// only hold node IDs, so a cached report never references a graph.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    GraphPath: "testdata/taint.yaml",
//	    Starts:    []string{"secret"},
//	    Target:    pipeline.Target{Kind: "call", Name: "log"},
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Report.Possible())
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/profile"
	"github.com/matzehuels/cpgwalk/pkg/walk"
)

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	GraphPath string   `json:"graph"`
	Starts    []string `json:"starts"`
	Target    Target   `json:"target"`
	// Profile selects the exploration. Nil means profile.Default().
	Profile *profile.Profile `json:"-"`
	// Workers bounds how many starts are explored at once. Zero means one
	// per CPU.
	Workers int  `json:"workers,omitempty"`
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Target says which nodes fulfil the query. Every non-empty field must
// match. Name matches either the qualified or the local name.
type Target struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// Validate checks required fields and applies defaults.
func (o *Options) Validate() error {
	if err := cerrors.ValidateFilePath(o.GraphPath); err != nil {
		return err
	}
	if len(o.Starts) == 0 {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "at least one start node is required")
	}
	for _, id := range o.Starts {
		if err := cerrors.ValidateNodeID(id); err != nil {
			return err
		}
	}
	if err := o.Target.Validate(); err != nil {
		return err
	}
	if o.Profile == nil {
		o.Profile = profile.Default()
	}
	if err := o.Profile.Validate(); err != nil {
		return err
	}
	if o.Workers < 0 {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "workers must not be negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Validate requires at least one criterion and a known node kind.
func (t Target) Validate() error {
	if t.ID == "" && t.Name == "" && t.Kind == "" {
		return cerrors.New(cerrors.ErrCodeInvalidQuery, "target needs an id, a name or a kind")
	}
	if t.Kind != "" {
		if _, err := cpg.ParseKind(t.Kind); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInvalidQuery, err, "target kind")
		}
	}
	return nil
}

// Predicate returns the node test of the target.
func (t Target) Predicate() walk.Predicate {
	kind, _ := cpg.ParseKind(t.Kind)
	return func(n *cpg.Node) bool {
		if t.ID != "" && n.ID() != t.ID {
			return false
		}
		if t.Name != "" && n.Name.String() != t.Name && n.Name.Local != t.Name {
			return false
		}
		return t.Kind == "" || n.Kind == kind
	}
}

// String renders the target as "id=..,name=..,kind=..", omitting empty
// fields. It is part of the cache key.
func (t Target) String() string {
	var parts []string
	if t.ID != "" {
		parts = append(parts, "id="+t.ID)
	}
	if t.Name != "" {
		parts = append(parts, "name="+t.Name)
	}
	if t.Kind != "" {
		parts = append(parts, "kind="+t.Kind)
	}
	return strings.Join(parts, ",")
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of [Runner.Execute].
type Result struct {
	Report    *Report
	GraphHash string
	Stats     Stats
	CacheHit  bool
}

// Stats holds sizes and timings. On a cache hit QueryTime covers only the
// lookup.
type Stats struct {
	NodeCount int
	EdgeCount int
	LoadTime  time.Duration
	QueryTime time.Duration
}

// Report is the graph-independent form of a batch of exploration results.
type Report struct {
	Query  string `json:"query"`
	Target string `json:"target"`
	Runs   []Run  `json:"runs"`
}

// Run is the result of one start node.
type Run struct {
	Start      string       `json:"start"`
	Fulfilled  [][]string   `json:"fulfilled"`
	Failed     []FailedPath `json:"failed,omitempty"`
	Truncated  bool         `json:"truncated,omitempty"`
	Iterations int          `json:"iterations"`
}

// FailedPath is a failed path by node IDs.
type FailedPath struct {
	Reason string   `json:"reason"`
	Path   []string `json:"path"`
}

// Possible reports whether some run reached the target.
func (r *Report) Possible() bool {
	for _, run := range r.Runs {
		if run.Possible() {
			return true
		}
	}
	return false
}

// Possible reports whether at least one path reached the target.
func (r Run) Possible() bool { return len(r.Fulfilled) > 0 }

// Mandatory has the meaning of [walk.Result.Mandatory].
func (r Run) Mandatory() bool { return len(r.Failed) == 0 && !r.Truncated }

// NewReport converts results into a report. results[i] belongs to starts[i].
func NewReport(query, target string, starts []string, results []*walk.Result) *Report {
	rep := &Report{Query: query, Target: target, Runs: make([]Run, len(results))}
	for i, res := range results {
		run := Run{Start: starts[i], Fulfilled: [][]string{}, Truncated: res.Truncated, Iterations: res.Iterations}
		for _, p := range res.Fulfilled {
			run.Fulfilled = append(run.Fulfilled, p.IDs())
		}
		for _, f := range res.Failed {
			run.Failed = append(run.Failed, FailedPath{Reason: f.Reason.String(), Path: f.Path.IDs()})
		}
		rep.Runs[i] = run
	}
	return rep
}

func describe(p *profile.Profile) string {
	if q, err := p.Query(); err == nil {
		return q.String()
	}
	return fmt.Sprintf("%s(%s) %s(depth=%d)", p.Direction, p.Graph, p.Scope, p.MaxCallDepth)
}
