package graph

import (
	"testing"
)

func files(paths ...string) []FileNode {
	out := make([]FileNode, len(paths))
	for i, p := range paths {
		out[i] = FileNode{Path: p}
	}
	return out
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"src/a.ts", "src/a.ts"},
		{"./src/a.ts", "src/a.ts"},
		{"src\\models\\user.ts", "src/models/user.ts"},
		{"src//lib/../a.ts", "src/a.ts"},
		{"  src/a.ts ", "src/a.ts"},
		{"", ""},
		{".", ""},
		{"./", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizePath(tt.in); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildSortsAndDeduplicatesNodes(t *testing.T) {
	g, stats := Build(files("src/c.ts", "./src/a.ts", "src/b.ts", "src/a.ts", ""), nil)

	if g.NumNodes() != 3 {
		t.Fatalf("NumNodes() = %d, want 3", g.NumNodes())
	}
	want := []string{"src/a.ts", "src/b.ts", "src/c.ts"}
	for i, p := range want {
		if g.Path(i) != p {
			t.Errorf("Path(%d) = %q, want %q", i, g.Path(i), p)
		}
	}
	if stats.DuplicateFiles != 1 {
		t.Errorf("DuplicateFiles = %d, want 1", stats.DuplicateFiles)
	}
	if stats.InvalidFiles != 1 {
		t.Errorf("InvalidFiles = %d, want 1", stats.InvalidFiles)
	}
}

func TestBuildFirstDuplicateWins(t *testing.T) {
	in := []FileNode{
		{Path: "a.go", Size: 10},
		{Path: "./a.go", Size: 99},
	}
	g, _ := Build(in, nil)

	if got := g.Node(0).Size; got != 10 {
		t.Errorf("Size = %d, want 10", got)
	}
}

func TestBuildEdgeAccounting(t *testing.T) {
	edges := []ImportEdge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "b", Weight: 2},
		{Source: "b", Target: "c"},
		{Source: "ghost", Target: "a"},
		{Source: "a", Target: "missing"},
		{Source: "c", Target: "", Unresolved: true},
		{Source: "c", Target: "a", Unresolved: true},
		{Source: "c", Target: "c"},
	}
	g, stats := Build(files("a", "b", "c"), edges)

	if stats.SuppliedEdges != len(edges) {
		t.Errorf("SuppliedEdges = %d, want %d", stats.SuppliedEdges, len(edges))
	}
	if stats.RetainedEdges != 4 {
		t.Errorf("RetainedEdges = %d, want 4", stats.RetainedEdges)
	}
	if stats.UnknownSources != 1 {
		t.Errorf("UnknownSources = %d, want 1", stats.UnknownSources)
	}
	if stats.UnresolvedImports != 3 {
		t.Errorf("UnresolvedImports = %d, want 3", stats.UnresolvedImports)
	}
	if stats.DroppedEdges+stats.RetainedEdges != stats.SuppliedEdges {
		t.Errorf("dropped %d + retained %d != supplied %d", stats.DroppedEdges, stats.RetainedEdges, stats.SuppliedEdges)
	}
	if stats.DroppedEdges != stats.UnknownSources+stats.UnresolvedImports {
		t.Errorf("DroppedEdges = %d, want %d", stats.DroppedEdges, stats.UnknownSources+stats.UnresolvedImports)
	}
	if stats.SelfLoops != 1 {
		t.Errorf("SelfLoops = %d, want 1", stats.SelfLoops)
	}

	if g.NumEdges() != 3 {
		t.Fatalf("NumEdges() = %d, want 3", g.NumEdges())
	}
	if w := g.EdgeWeight("a", "b"); w != 3 {
		t.Errorf("EdgeWeight(a, b) = %v, want 3", w)
	}
	if !g.HasEdge("c", "c") {
		t.Error("explicit self-edge should be kept")
	}
	if g.HasEdge("a", "missing") {
		t.Error("dangling import must not be materialized")
	}
}

func TestBuildEveryEndpointIsKnown(t *testing.T) {
	edges := []ImportEdge{
		{Source: "x/a.ts", Target: "x/b.ts"},
		{Source: "x/b.ts", Target: "y/c.ts"},
		{Source: "z/d.ts", Target: "x/a.ts"},
	}
	g, _ := Build(files("x/a.ts", "x/b.ts"), edges)

	for _, e := range g.Edges() {
		if _, ok := g.Index(e.From); !ok {
			t.Errorf("edge source %q is not a node", e.From)
		}
		if _, ok := g.Index(e.To); !ok {
			t.Errorf("edge target %q is not a node", e.To)
		}
		if e.Kind != EdgeKindImport {
			t.Errorf("Kind = %q, want %q", e.Kind, EdgeKindImport)
		}
	}
}

func TestBuildNonPositiveWeight(t *testing.T) {
	edges := []ImportEdge{
		{Source: "a", Target: "b", Weight: 0},
		{Source: "b", Target: "a", Weight: -4},
	}
	g, _ := Build(files("a", "b"), edges)

	if w := g.EdgeWeight("a", "b"); w != 1 {
		t.Errorf("EdgeWeight(a, b) = %v, want 1", w)
	}
	if w := g.EdgeWeight("b", "a"); w != 1 {
		t.Errorf("EdgeWeight(b, a) = %v, want 1", w)
	}
}

func TestBuildAdjacencyOrder(t *testing.T) {
	edges := []ImportEdge{
		{Source: "a", Target: "d"},
		{Source: "a", Target: "b"},
		{Source: "c", Target: "b"},
		{Source: "a", Target: "c"},
		{Source: "a", Target: "d"},
	}
	g, _ := Build(files("a", "b", "c", "d"), edges)

	a, _ := g.Index("a")
	var out []string
	for _, adj := range g.Out(a) {
		out = append(out, g.Path(adj.Node))
	}
	want := []string{"d", "b", "c"}
	if len(out) != len(want) {
		t.Fatalf("Out(a) = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Out(a)[%d] = %q, want %q", i, out[i], want[i])
		}
	}
	if g.Out(a)[0].Weight != 2 {
		t.Errorf("merged adjacency weight = %v, want 2", g.Out(a)[0].Weight)
	}

	b, _ := g.Index("b")
	if g.InDegree(b) != 2 {
		t.Errorf("InDegree(b) = %d, want 2", g.InDegree(b))
	}
	if g.OutDegree(a) != 3 {
		t.Errorf("OutDegree(a) = %d, want 3", g.OutDegree(a))
	}
}

func TestBuildEmpty(t *testing.T) {
	g, stats := Build(nil, []ImportEdge{{Source: "a", Target: "b"}})

	if g.NumNodes() != 0 || g.NumEdges() != 0 {
		t.Errorf("empty build = %d nodes, %d edges", g.NumNodes(), g.NumEdges())
	}
	if stats.UnknownSources != 1 || stats.DroppedEdges != 1 {
		t.Errorf("stats = %+v, want one unknown source", stats)
	}
}

func TestIndexNormalizes(t *testing.T) {
	g, _ := Build(files("src/a.ts"), nil)

	if _, ok := g.Index("./src/a.ts"); !ok {
		t.Error("Index should normalize its argument")
	}
	if _, ok := g.Index("src/b.ts"); ok {
		t.Error("Index should not find an unknown path")
	}
}
