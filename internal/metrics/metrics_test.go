package metrics

import (
	"context"
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"ctxmap/internal/graph"
)

func buildGraph(t *testing.T, paths []string, edges [][2]string) *graph.Graph {
	t.Helper()
	files := make([]graph.FileNode, len(paths))
	for i, p := range paths {
		files[i] = graph.FileNode{Path: p}
	}
	imports := make([]graph.ImportEdge, len(edges))
	for i, e := range edges {
		imports[i] = graph.ImportEdge{Source: e[0], Target: e[1]}
	}
	g, stats := graph.Build(files, imports)
	if stats.DroppedEdges != 0 {
		t.Fatalf("fixture dropped %d edges", stats.DroppedEdges)
	}
	return g
}

// toGonum mirrors g in a gonum directed graph keyed by node index.
func toGonum(g *graph.Graph) *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for i := 0; i < g.NumNodes(); i++ {
		dg.AddNode(simple.Node(i))
	}
	for i := 0; i < g.NumNodes(); i++ {
		for _, adj := range g.Out(i) {
			if adj.Node == i {
				continue
			}
			dg.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(adj.Node)})
		}
	}
	return dg
}

func TestComputeStarImportance(t *testing.T) {
	paths := []string{"hub.ts"}
	var edges [][2]string
	for i := 1; i <= 10; i++ {
		p := fmt.Sprintf("n%02d.ts", i)
		paths = append(paths, p)
		edges = append(edges, [2]string{p, "hub.ts"})
	}
	g := buildGraph(t, paths, edges)

	res, err := Compute(context.Background(), g, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	hub, ok := res.Get("hub.ts")
	if !ok {
		t.Fatal("hub.ts missing from result")
	}
	for _, m := range res.Nodes {
		if m.Path == "hub.ts" {
			continue
		}
		if hub.Importance <= m.Importance {
			t.Errorf("hub importance %v should exceed %s importance %v", hub.Importance, m.Path, m.Importance)
		}
	}
	if hub.InDegree != 10 || hub.NormalizedInDegree != 1 {
		t.Errorf("hub InDegree = %d (normalized %v), want 10 (1)", hub.InDegree, hub.NormalizedInDegree)
	}
	if hub.NormalizedImportance != 1 {
		t.Errorf("hub NormalizedImportance = %v, want 1", hub.NormalizedImportance)
	}
}

func TestComputeConvergence(t *testing.T) {
	cycle := buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"d", "a"}},
	)
	diamond := buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)
	edgeless := buildGraph(t, []string{"a", "b"}, nil)

	longRun := DefaultOptions()
	longRun.MaxIterations = 200
	single := DefaultOptions()
	single.MaxIterations = 1

	tests := []struct {
		name          string
		g             *graph.Graph
		opts          Options
		wantConverged bool
		minIter       int
		maxIter       int
	}{
		{"diamond with defaults", diamond, DefaultOptions(), true, 2, 19},
		{"edgeless with defaults", edgeless, DefaultOptions(), true, 1, 1},
		{"cycle with room to settle", cycle, longRun, true, 21, 199},
		{"cycle after one step", cycle, single, false, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(context.Background(), tt.g, tt.opts)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if res.Converged != tt.wantConverged {
				t.Errorf("Converged = %v, want %v (after %d iterations)", res.Converged, tt.wantConverged, res.Iterations)
			}
			if res.Iterations < tt.minIter || res.Iterations > tt.maxIter {
				t.Errorf("Iterations = %d, want within [%d, %d]", res.Iterations, tt.minIter, tt.maxIter)
			}

			sum := 0.0
			for _, m := range res.Nodes {
				sum += m.Importance
			}
			if math.Abs(sum-float64(len(res.Nodes))) > 1e-9 {
				t.Errorf("sum of Importance = %v, want %d", sum, len(res.Nodes))
			}
		})
	}
}

func TestComputeUniformImportance(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, nil)

	res, err := Compute(context.Background(), g, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for _, m := range res.Nodes {
		if m.Importance != res.Nodes[0].Importance {
			t.Errorf("%s Importance = %v, want %v", m.Path, m.Importance, res.Nodes[0].Importance)
		}
		if m.NormalizedImportance != 0 {
			t.Errorf("%s NormalizedImportance = %v, want 0 when all equal", m.Path, m.NormalizedImportance)
		}
		if m.NormalizedInDegree != 0 {
			t.Errorf("%s NormalizedInDegree = %v, want 0", m.Path, m.NormalizedInDegree)
		}
	}
}

func TestComputeImportanceMatchesGonumPageRank(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c", "d", "e", "f"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}, {"c", "a"}, {"d", "c"}, {"e", "d"}, {"e", "f"}},
	)

	opts := DefaultOptions()
	opts.MaxIterations = 1000
	opts.Tolerance = 1e-13
	res, err := Compute(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !res.Converged {
		t.Fatal("expected convergence with a generous iteration cap")
	}

	want := network.PageRank(toGonum(g), 0.85, 1e-12)
	n := float64(g.NumNodes())
	for i, m := range res.Nodes {
		if got := m.Importance / n; math.Abs(got-want[int64(i)]) > 1e-6 {
			t.Errorf("%s importance/N = %v, want %v", m.Path, got, want[int64(i)])
		}
	}
}

func TestComputeBetweennessMatchesGonum(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c", "d", "e", "f", "g"},
		[][2]string{
			{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"d", "e"},
			{"e", "f"}, {"e", "g"}, {"g", "a"}, {"f", "f"},
		},
	)

	res, err := Compute(context.Background(), g, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !res.BetweennessExact || res.BetweennessSources != g.NumNodes() {
		t.Errorf("BetweennessExact = %v, sources = %d, want exact over %d", res.BetweennessExact, res.BetweennessSources, g.NumNodes())
	}

	raw := network.Betweenness(toGonum(g))
	maxRaw := 0.0
	for _, v := range raw {
		maxRaw = math.Max(maxRaw, v)
	}
	for i, m := range res.Nodes {
		want := raw[int64(i)] / maxRaw
		if math.Abs(m.Betweenness-want) > 1e-9 {
			t.Errorf("%s Betweenness = %v, want %v", m.Path, m.Betweenness, want)
		}
	}
}

func TestComputeBetweennessChain(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})

	res, err := Compute(context.Background(), g, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := map[string]float64{"a": 0, "b": 1, "c": 0}
	for _, m := range res.Nodes {
		if m.Betweenness != want[m.Path] {
			t.Errorf("%s Betweenness = %v, want %v", m.Path, m.Betweenness, want[m.Path])
		}
	}
}

func TestComputeBetweennessSampling(t *testing.T) {
	var paths []string
	var edges [][2]string
	for i := 0; i < 10; i++ {
		paths = append(paths, fmt.Sprintf("f%02d", i))
		if i > 0 {
			edges = append(edges, [2]string{paths[i-1], paths[i]})
		}
	}
	g := buildGraph(t, paths, edges)

	opts := DefaultOptions()
	opts.BetweennessSampleThreshold = 5
	opts.BetweennessSamples = 4
	res, err := Compute(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if res.BetweennessExact {
		t.Error("BetweennessExact = true, want false above the threshold")
	}
	if res.BetweennessSources != 4 {
		t.Errorf("BetweennessSources = %d, want 4", res.BetweennessSources)
	}
	for _, m := range res.Nodes {
		if m.Betweenness < 0 || m.Betweenness > 1 {
			t.Errorf("%s Betweenness = %v, want within [0, 1]", m.Path, m.Betweenness)
		}
	}

	again, _ := Compute(context.Background(), g, opts)
	for i := range res.Nodes {
		if res.Nodes[i] != again.Nodes[i] {
			t.Errorf("sampled betweenness not deterministic at %s", res.Nodes[i].Path)
		}
	}
}

func TestPivots(t *testing.T) {
	tests := []struct {
		n, threshold, samples int
		want                  []int
	}{
		{3, 10, 2, []int{0, 1, 2}},
		{10, 5, 4, []int{0, 2, 5, 7}},
		{6, 5, 6, []int{0, 1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		got := pivots(tt.n, tt.threshold, tt.samples)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("pivots(%d, %d, %d) = %v, want %v", tt.n, tt.threshold, tt.samples, got, tt.want)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	g, _ := graph.Build(nil, nil)

	res, err := Compute(context.Background(), g, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(res.Nodes) != 0 || !res.Converged || res.Iterations != 0 {
		t.Errorf("empty result = %+v", res)
	}
}

func TestComputeCancelled(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Compute(ctx, g, DefaultOptions()); err != context.Canceled {
		t.Errorf("Compute() error = %v, want context.Canceled", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Damping: 1.5, MaxIterations: -1}.withDefaults()
	d := DefaultOptions()

	if o.Damping != d.Damping || o.MaxIterations != d.MaxIterations || o.Tolerance != d.Tolerance {
		t.Errorf("withDefaults() = %+v, want defaults %+v", o, d)
	}
	if o.Logger == nil {
		t.Error("withDefaults() should install a logger")
	}
}
