// Package io reads and writes code property graphs as JSON or YAML
// documents.
//
// # Overview
//
// Front ends that build a [cpg.Graph] live outside this module. Graph
// documents are how their output, and hand-written test fixtures, reach
// the traversal engine and the cpgwalk command line.
//
// # Document Format
//
// A document has a node list and an edge list. Node IDs are kept as
// written, so queries can refer to them:
//
//	nodes:
//	  - id: f
//	    kind: function
//	    name: pkg.f
//	    slots:
//	      - name: body
//	        children: [ret]
//	  - id: ret
//	    kind: return
//	  - id: call
//	    kind: call
//	edges:
//	  - {kind: eog, from: f, to: ret}
//	  - {kind: invoke, from: call, to: f}
//	  - kind: dfg
//	    from: ret
//	    to: call
//	    granularity: field:x
//	    context: {direction: out, call: call}
//
// Node kinds are the names printed by [cpg.Kind.String]. Edge kinds are
// eog, dfg, cdg and invoke. Granularities use the [cpg.Granularity.String]
// form and default to full.
//
// # Import
//
// Use [Import] to read a file, picking the format from its extension, or
// [Read] to decode from any io.Reader. Decoding rejects unknown fields,
// and building the graph applies every construction check of package cpg,
// so an import either yields a valid graph or fails with
// [ErrInvalidDocument] naming the offending node or edge.
//
// # Export
//
// [Export] and [Write] produce documents that import into an equivalent
// graph: same IDs, same AST with child order, same edges in creation order.
package io
