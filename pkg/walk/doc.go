// Package walk explores paths through a code property graph.
//
// # Overview
//
// Every analysis built on a [cpg.Graph] eventually asks one of two
// questions about a start node: can some path reach a node of interest,
// and does every path reach one? [Explore] answers both in one pass. It
// keeps a worklist of partial paths, always extends the longest one, and
// sorts each finished path into [Result.Fulfilled] (it reached a target)
// or [Result.Failed] (it ended, looped, or was stopped first).
//
// A non-empty Fulfilled set means the flow is possible. An empty Failed
// set, when failed paths are collected and the result is not truncated,
// means the flow is mandatory. [Result.Possible] and [Result.Mandatory]
// report exactly this.
//
// # Building a Step Function
//
// Explore takes a [NextFunc]. [Nodes] adapts a plain successor function
// such as [cpg.Node.NextFullDFG]. A [Query] builds one from three policies:
//
//   - a [Scope] ([Intraprocedural] or [Interprocedural]) bounding how far
//     a path may go, in steps and in nested calls;
//   - a [Direction] ([Forward] or [Backward]) choosing the overlay and the
//     end of each edge to step to;
//   - a [Sensitivity] set that may block an edge or update the path's
//     [Context].
//
// For example, a forward dataflow query that respects call sites and
// fields but stays within the current function:
//
//	q := walk.Query{
//	    Scope:       walk.Intraprocedural{MaxSteps: walk.Max(50)},
//	    Direction:   walk.Forward{Graph: walk.DFG},
//	    Sensitivity: walk.ContextSensitive | walk.FieldSensitive,
//	}
//	res, err := walk.FollowUntilHit(ctx, source, q, isSink, walk.DefaultOptions())
//
// # Context Sensitivity
//
// Each partial path owns a [Context] holding a call stack and an index
// stack. Both are persistent [Stack] values, so paths branching from a
// shared prefix never see each other's pushes and pops. Entering a call
// pushes the call site; returning is only allowed to the call site on top
// of the stack, or anywhere when the stack is empty. Writing into a
// composite pushes the field or index; reading back out only continues
// through the same one.
//
// # Cycles and Budgets
//
// A candidate node that already occurs on its path with a compatible call
// stack closes a loop and is not extended, so exploration always
// terminates. With failed paths collected, the closed loop is reported as
// [Looped]. Budgets in the scope refuse edges instead; a result shaped
// by a budget is marked [Result.Truncated] and is never mandatory.
//
// # Concurrency
//
// Explore does not modify the graph. Any number of explorations may run
// over the same graph concurrently as long as nobody mutates it;
// [ExploreAll] runs a batch of them with bounded parallelism.
package walk
