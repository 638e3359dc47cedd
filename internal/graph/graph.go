// Package graph provides the immutable file-level dependency graph.
package graph

import (
	"path"
	"strings"
)

// EdgeKindImport is the only materialized edge kind.
const EdgeKindImport = "import"

// Signals are structural counts supplied by the content scanner.
type Signals struct {
	Classes    int `json:"classes"`
	Interfaces int `json:"interfaces"`
	Functions  int `json:"functions"`
	Imports    int `json:"imports"`
}

// FileNode is a discovered file. Its identity is the normalized path.
type FileNode struct {
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	Language string  `json:"language,omitempty"`
	Signals  Signals `json:"signals"`
}

// ImportEdge is one resolved (or explicitly unresolved) import as supplied
// by the import extractor.
type ImportEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
	Unresolved bool    `json:"unresolved,omitempty"`
}

// Edge is a materialized directed edge between two known nodes.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
}

// Adjacent is one entry of an adjacency list.
type Adjacent struct {
	Node   int
	Weight float64
}

// Graph is a directed graph over FileNodes. Nodes are sorted by path and a
// node's index is its position in that order. A Graph is read-only once
// Build returns.
type Graph struct {
	nodes   []FileNode
	nodeIdx map[string]int

	// outEdges[i] / inEdges[i] in first-appearance order of the edge list
	outEdges [][]Adjacent
	inEdges  [][]Adjacent

	edges   []Edge
	edgeIdx map[[2]int]int
}

// NormalizePath returns the identity form of p: forward slashes, cleaned,
// without a leading "./". Empty input yields "".
func NormalizePath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of merged edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Nodes returns a copy of the nodes in path order.
func (g *Graph) Nodes() []FileNode {
	out := make([]FileNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Node returns the node at index i.
func (g *Graph) Node(i int) FileNode { return g.nodes[i] }

// Path returns the path of node i.
func (g *Graph) Path(i int) string { return g.nodes[i].Path }

// Index returns the index of the node with the given path. The path is
// normalized before lookup.
func (g *Graph) Index(p string) (int, bool) {
	i, ok := g.nodeIdx[NormalizePath(p)]
	return i, ok
}

// Out returns the forward adjacency of node i. The slice is shared and must
// not be modified.
func (g *Graph) Out(i int) []Adjacent { return g.outEdges[i] }

// In returns the reverse adjacency of node i. The slice is shared and must
// not be modified.
func (g *Graph) In(i int) []Adjacent { return g.inEdges[i] }

// OutDegree returns the number of distinct targets node i imports.
func (g *Graph) OutDegree(i int) int { return len(g.outEdges[i]) }

// InDegree returns the number of distinct sources importing node i.
func (g *Graph) InDegree(i int) int { return len(g.inEdges[i]) }

// Edges returns a copy of the merged edge list in first-appearance order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// HasEdge reports whether an edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edgeBetween(from, to)
	return ok
}

// EdgeWeight returns the merged weight of from -> to, or 0 if absent.
func (g *Graph) EdgeWeight(from, to string) float64 {
	if e, ok := g.edgeBetween(from, to); ok {
		return e.Weight
	}
	return 0
}

// HasEdgeIdx reports whether an edge between two node indices exists.
func (g *Graph) HasEdgeIdx(from, to int) bool {
	_, ok := g.edgeIdx[[2]int{from, to}]
	return ok
}

func (g *Graph) edgeBetween(from, to string) (Edge, bool) {
	fi, ok := g.Index(from)
	if !ok {
		return Edge{}, false
	}
	ti, ok := g.Index(to)
	if !ok {
		return Edge{}, false
	}
	ei, ok := g.edgeIdx[[2]int{fi, ti}]
	if !ok {
		return Edge{}, false
	}
	return g.edges[ei], true
}
