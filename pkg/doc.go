// Package pkg provides the libraries behind cpgwalk, a path explorer for
// code property graphs.
//
// # Overview
//
// A code property graph (CPG) is an AST whose nodes also carry overlay
// edges: evaluation order (EOG), dataflow (DFG), control dependence (CDG)
// and call-to-function invocations. cpgwalk loads such a graph from a JSON
// or YAML document and answers questions by walking those overlays. The
// question is always the same: starting here, which paths reach a node
// that satisfies a predicate, and which paths never do?
//
// The pkg directory is organized into three areas:
//
//  1. [cpg] and [walk] - the graph model and the exploration engine
//  2. [io], [cache] and [profile] - documents, stored reports, and named
//     query configurations
//  3. [pipeline] - orchestration (load → explore → report)
//
// Supporting packages: [errors] (error codes and input validation),
// [observability] (hooks for load, traversal and cache events) and
// [buildinfo] (version stamping).
//
// # Architecture
//
//	JSON/YAML graph document
//	         ↓
//	    [io] package (decode + build the graph)
//	         ↓
//	    [cpg] package (nodes, slots, overlay edges)
//	         ↓
//	    [walk] package (worklist exploration under a query)
//	         ↓
//	    [pipeline] package (reports, cached by graph hash + query)
//
// # Quick Start
//
// Build a graph and ask whether every path from entry reaches exit:
//
//	import (
//	    "github.com/matzehuels/cpgwalk/pkg/cpg"
//	    "github.com/matzehuels/cpgwalk/pkg/walk"
//	)
//
//	g := cpg.New()
//	entry := g.NewNode(cpg.KindStatement, "entry")
//	exit := g.NewNode(cpg.KindStatement, "exit")
//	_, _ = g.AddEOG(entry, exit)
//
//	q := walk.Query{
//	    Scope:       walk.Intraprocedural{},
//	    Direction:   walk.Forward{Graph: walk.EOG},
//	    Sensitivity: walk.FilterUnreachableEOG,
//	}
//	isExit := func(n *cpg.Node) bool { return n == exit }
//	res, err := walk.FollowUntilHit(ctx, entry, q, isExit, walk.DefaultOptions())
//	fmt.Println(res.Mandatory())
//
// Load a document and run a profile from a TOML file instead:
//
//	cfg, _ := profile.Load("profiles.toml")
//	p, _ := cfg.Get("taint")
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    GraphPath: "app.yaml",
//	    Starts:    []string{"secret"},
//	    Target:    pipeline.Target{Kind: "call", Name: "log.Print"},
//	    Profile:   p,
//	})
//
// # Command Line
//
// The cpgwalk binary in cmd/cpgwalk wraps these packages:
//
//	cpgwalk validate app.yaml
//	cpgwalk query app.yaml --from secret --to-kind call --to-name log.Print
//	cpgwalk paths app.yaml --from secret --format json
//
// [cpg]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/cpg
// [walk]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/walk
// [io]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/cache
// [profile]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/profile
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/cpgwalk/pkg/buildinfo
package pkg
