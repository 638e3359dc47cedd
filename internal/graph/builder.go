package graph

import (
	"sort"
)

// BuildStats accounts for every supplied file and edge.
// DroppedEdges+RetainedEdges == SuppliedEdges and
// DroppedEdges == UnknownSources+UnresolvedImports.
type BuildStats struct {
	SuppliedEdges     int `json:"suppliedEdges"`
	RetainedEdges     int `json:"retainedEdges"`
	DroppedEdges      int `json:"droppedEdges"`
	UnknownSources    int `json:"unknownSources"`
	UnresolvedImports int `json:"unresolvedImports"`
	DuplicateFiles    int `json:"duplicateFiles"`
	InvalidFiles      int `json:"invalidFiles"`
	SelfLoops         int `json:"selfLoops"`
}

// Build constructs a Graph from the discovered files and import edges.
//
// Files are keyed by normalized path; the first occurrence of a duplicate
// wins. Edges whose source is unknown are dropped as unknown sources; edges
// whose target is unknown, empty or explicitly unresolved are dropped as
// unresolved imports. Retained edges between the same ordered pair merge
// into one Edge with the summed weight. Build never fails.
func Build(files []FileNode, imports []ImportEdge) (*Graph, BuildStats) {
	var stats BuildStats

	seen := make(map[string]bool, len(files))
	nodes := make([]FileNode, 0, len(files))
	for _, f := range files {
		p := NormalizePath(f.Path)
		if p == "" {
			stats.InvalidFiles++
			continue
		}
		if seen[p] {
			stats.DuplicateFiles++
			continue
		}
		seen[p] = true
		f.Path = p
		nodes = append(nodes, f)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })

	g := &Graph{
		nodes:    nodes,
		nodeIdx:  make(map[string]int, len(nodes)),
		outEdges: make([][]Adjacent, len(nodes)),
		inEdges:  make([][]Adjacent, len(nodes)),
		edgeIdx:  make(map[[2]int]int),
	}
	for i, n := range nodes {
		g.nodeIdx[n.Path] = i
	}

	stats.SuppliedEdges = len(imports)
	for _, e := range imports {
		from, ok := g.nodeIdx[NormalizePath(e.Source)]
		if !ok {
			stats.UnknownSources++
			continue
		}
		if e.Unresolved {
			stats.UnresolvedImports++
			continue
		}
		to, ok := g.nodeIdx[NormalizePath(e.Target)]
		if !ok {
			stats.UnresolvedImports++
			continue
		}
		stats.RetainedEdges++

		w := e.Weight
		if w <= 0 {
			w = 1
		}
		key := [2]int{from, to}
		if ei, ok := g.edgeIdx[key]; ok {
			g.edges[ei].Weight += w
			continue
		}
		g.edgeIdx[key] = len(g.edges)
		g.edges = append(g.edges, Edge{
			From:   nodes[from].Path,
			To:     nodes[to].Path,
			Kind:   EdgeKindImport,
			Weight: w,
		})
		if from == to {
			stats.SelfLoops++
		}
	}
	stats.DroppedEdges = stats.UnknownSources + stats.UnresolvedImports

	// Adjacency follows the merged edge list so weights are final.
	for _, e := range g.edges {
		from := g.nodeIdx[e.From]
		to := g.nodeIdx[e.To]
		g.outEdges[from] = append(g.outEdges[from], Adjacent{Node: to, Weight: e.Weight})
		g.inEdges[to] = append(g.inEdges[to], Adjacent{Node: from, Weight: e.Weight})
	}

	return g, stats
}
