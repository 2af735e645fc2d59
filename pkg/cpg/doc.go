// Package cpg provides the node and overlay-edge model of a code property graph.
//
// # Overview
//
// A code property graph unifies several views of a program over one node set.
// Every [Node] is a program construct (statement, expression, declaration, ...)
// and takes part in four independent structures at the same time:
//
//   - the AST ownership tree, derived from the node's named child slots
//   - evaluation-order edges ([EvaluationOrder], EOG)
//   - data-flow edges ([Dataflow], DFG), tagged with a [Granularity] and an
//     optional [CallingContext]
//   - control-dependence edges ([ControlDependence], CDG); program dependence
//     (PDG) is the union of CDG and DFG and is computed, not stored
//
// Call nodes are additionally linked to the functions they may invoke through
// [Invoke] edges, which interprocedural traversals use to enter and leave
// function bodies.
//
// # Basic Usage
//
// Create a graph with [New] and nodes with [Graph.NewNode]. Edges are added
// through the graph so that both endpoints are checked:
//
//	g := cpg.New()
//	a := g.NewNode(cpg.KindReference, "a")
//	b := g.NewNode(cpg.KindReference, "b")
//	g.AddEOG(a, b)
//	g.AddDFG(a, b, cpg.WithGranularity(cpg.Full()))
//
// # Structural Invariants
//
// All invariants are enforced at construction time. Edges whose endpoints
// belong to another graph are rejected with [ErrForeignNode]. AST children can
// only be attached through their owner ([Node.AppendChild]); a node can have at
// most one owner and can never become its own ancestor, so the ownership tree
// cannot contain a cycle. The overlay graphs, by contrast, may be cyclic:
// loops and recursion are expected and traversals must cope with them.
//
// # Identifiers
//
// Node identifiers come from an injectable [IDAllocator]. Each graph owns its
// allocator unless one is passed with [WithIDAllocator]; [SequentialIDs] is
// safe to share between graphs built concurrently, and [UUIDs] produces
// globally unique identifiers.
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Once built it is treated as a
// read-only snapshot and may be read from any number of goroutines.
package cpg
