package io

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

const fixtureYAML = `
nodes:
  - id: f
    kind: function
    name: pkg::f
    delimiter: "::"
    language: go
    location: {file: main.go, start_line: 3, start_column: 1}
    slots:
      - name: body
        children: [ret]
  - id: ret
    kind: return
  - id: lit
    kind: composite
    slots:
      - name: initializers
  - id: call
    kind: call
    name: f
    implicit: true
    meta: {origin: frontend}
edges:
  - {kind: eog, from: call, to: f}
  - {kind: eog, from: f, to: ret, branch: true}
  - {kind: eog, from: ret, to: lit, unreachable: true}
  - {kind: invoke, from: call, to: f}
  - kind: dfg
    from: ret
    to: call
    granularity: field:x
    context: {direction: out, call: call}
  - {kind: dfg, from: lit, to: ret, summary: true}
  - {kind: cdg, from: f, to: ret}
`

func mustRead(t *testing.T, src string, f Format) *cpg.Graph {
	t.Helper()
	g, err := Read(context.Background(), strings.NewReader(src), f)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return g
}

func node(t *testing.T, g *cpg.Graph, id string) *cpg.Node {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %q missing", id)
	}
	return n
}

func TestReadYAML(t *testing.T) {
	g := mustRead(t, fixtureYAML, FormatYAML)

	if got := g.NodeCount(); got != 4 {
		t.Errorf("NodeCount() = %d, want 4", got)
	}
	f := node(t, g, "f")
	if f.Name.Local != "f" || f.Name.Namespace != "pkg" {
		t.Errorf("Name = %+v, want pkg::f split at ::", f.Name)
	}
	if f.Location.String() != "main.go:3:1" {
		t.Errorf("Location = %v, want main.go:3:1", f.Location)
	}
	if ret := node(t, g, "ret"); ret.ASTParent() != f || ret.EnclosingFunction() != f {
		t.Errorf("ret owner = %v, want f", ret.ASTParent())
	}
	if !node(t, g, "lit").HasInitializers() {
		t.Error("empty initializer slot was dropped")
	}
	call := node(t, g, "call")
	if !call.Implicit || call.Meta["origin"] != "frontend" {
		t.Errorf("call = %+v, want implicit with origin meta", call)
	}

	flows := node(t, g, "ret").NextDFGEdges()
	if len(flows) != 1 {
		t.Fatalf("ret NextDFGEdges() = %d, want 1", len(flows))
	}
	if flows[0].Granularity != cpg.Field("x") || flows[0].Context.String() != "out(call)" {
		t.Errorf("dfg edge = %v %v, want field:x out(call)", flows[0].Granularity, flows[0].Context)
	}

	eog := node(t, g, "ret").NextEOGEdges()
	if len(eog) != 1 || !eog[0].Unreachable {
		t.Errorf("ret -> lit should be unreachable")
	}
	if got := call.Invokes(); len(got) != 1 || got[0] != f {
		t.Errorf("Invokes() = %v, want [f]", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	src := mustRead(t, fixtureYAML, FormatYAML)

	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(src, &buf, f); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got := mustRead(t, buf.String(), f)

			want := FromGraph(src)
			have := FromGraph(got)
			if len(have.Nodes) != len(want.Nodes) || len(have.Edges) != len(want.Edges) {
				t.Fatalf("round trip = %d nodes %d edges, want %d and %d",
					len(have.Nodes), len(have.Edges), len(want.Nodes), len(want.Edges))
			}
			for i := range want.Nodes {
				w, h := want.Nodes[i], have.Nodes[i]
				if h.ID != w.ID || h.Kind != w.Kind || h.Name != w.Name || h.Delimiter != w.Delimiter {
					t.Errorf("node %d = %+v, want %+v", i, h, w)
				}
				if len(h.Slots) != len(w.Slots) {
					t.Errorf("node %s slots = %v, want %v", w.ID, h.Slots, w.Slots)
				}
			}
			for i := range want.Edges {
				w, h := want.Edges[i], have.Edges[i]
				if h.Kind != w.Kind || h.From != w.From || h.To != w.To || h.Granularity != w.Granularity || h.Unreachable != w.Unreachable || h.Summary != w.Summary {
					t.Errorf("edge %d = %+v, want %+v", i, h, w)
				}
				if (h.Context == nil) != (w.Context == nil) || (h.Context != nil && *h.Context != *w.Context) {
					t.Errorf("edge %d context = %v, want %v", i, h.Context, w.Context)
				}
				if (h.Branch == nil) != (w.Branch == nil) {
					t.Errorf("edge %d branch = %v, want %v", i, h.Branch, w.Branch)
				}
			}
		})
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown node kind", `{"nodes":[{"id":"a","kind":"lambda"}]}`},
		{"duplicate id", `{"nodes":[{"id":"a","kind":"call"},{"id":"a","kind":"call"}]}`},
		{"empty id", `{"nodes":[{"id":"","kind":"call"}]}`},
		{"unknown child", `{"nodes":[{"id":"a","kind":"block","slots":[{"name":"body","children":["b"]}]}]}`},
		{"child owned twice", `{"nodes":[{"id":"a","kind":"block","slots":[{"name":"body","children":["c"]}]},{"id":"b","kind":"block","slots":[{"name":"body","children":["c"]}]},{"id":"c","kind":"call"}]}`},
		{"unknown edge kind", `{"nodes":[{"id":"a","kind":"call"}],"edges":[{"kind":"ast","from":"a","to":"a"}]}`},
		{"unknown endpoint", `{"nodes":[{"id":"a","kind":"call"}],"edges":[{"kind":"eog","from":"a","to":"b"}]}`},
		{"bad granularity", `{"nodes":[{"id":"a","kind":"variable"}],"edges":[{"kind":"dfg","from":"a","to":"a","granularity":"slice:1"}]}`},
		{"bad context direction", `{"nodes":[{"id":"a","kind":"call"}],"edges":[{"kind":"dfg","from":"a","to":"a","context":{"direction":"up","call":"a"}}]}`},
		{"context on non-call", `{"nodes":[{"id":"a","kind":"variable"}],"edges":[{"kind":"dfg","from":"a","to":"a","context":{"direction":"in","call":"a"}}]}`},
		{"invoke from non-call", `{"nodes":[{"id":"a","kind":"variable"},{"id":"f","kind":"function"}],"edges":[{"kind":"invoke","from":"a","to":"f"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader(tt.src), FormatJSON)
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("Read() error = %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestReadRejectsUnknownFields(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader(`{"nodes":[],"vertices":[]}`)); err == nil {
		t.Error("ReadJSON() accepted unknown field")
	}
	if _, err := ReadYAML(strings.NewReader("nodes: []\nvertices: []\n")); err == nil {
		t.Error("ReadYAML() accepted unknown field")
	}
}

func TestReadEmptyYAML(t *testing.T) {
	g, err := ReadYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadYAML() error = %v", err)
	}
	if g.NodeCount() != 0 {
		t.Errorf("NodeCount() = %d, want 0", g.NodeCount())
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"graph.json", FormatJSON, false},
		{"graph.YAML", FormatYAML, false},
		{"dir/graph.yml", FormatYAML, false},
		{"graph.dot", "", true},
		{"graph", "", true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatOf(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("FormatOf(%q) error = %v, want ErrUnknownFormat", tt.path, err)
		}
	}
}

func TestImportExport(t *testing.T) {
	src := mustRead(t, fixtureYAML, FormatYAML)
	dir := t.TempDir()

	for _, name := range []string{"graph.json", "graph.yaml"} {
		path := filepath.Join(dir, name)
		if err := Export(src, path); err != nil {
			t.Fatalf("Export(%s) error = %v", name, err)
		}
		g, err := Import(context.Background(), path)
		if err != nil {
			t.Fatalf("Import(%s) error = %v", name, err)
		}
		if g.NodeCount() != src.NodeCount() || g.EdgeCount(cpg.EdgeDFG) != src.EdgeCount(cpg.EdgeDFG) {
			t.Errorf("Import(%s) = %d nodes, want %d", name, g.NodeCount(), src.NodeCount())
		}
	}

	if _, err := Import(context.Background(), filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Import(missing) error = %v, want ErrNotExist", err)
	}
	if err := Export(src, filepath.Join(dir, "graph.txt")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Export(.txt) error = %v, want ErrUnknownFormat", err)
	}
}
