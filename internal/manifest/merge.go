package manifest

import (
	"ctxmap/internal/graph"
)

// New returns an empty manifest whose content files resolve against
// baseDir. It is the starting point when edges come only from an index.
func New(baseDir string) *Manifest {
	return &Manifest{
		Files:   []File{},
		Edges:   []Edge{},
		baseDir: baseDir,
	}
}

// Merge adds files and edges from another edge source. Files already
// listed keep their manifest entry; new files carry only path and
// language, so Resolve fills in the rest. It returns the number of files
// and edges added.
func (m *Manifest) Merge(files []graph.FileNode, edges []graph.ImportEdge) (addedFiles, addedEdges int) {
	known := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		known[graph.NormalizePath(f.Path)] = true
	}

	for _, f := range files {
		p := graph.NormalizePath(f.Path)
		if p == "" || known[p] {
			continue
		}
		known[p] = true
		m.Files = append(m.Files, File{Path: p, Language: f.Language})
		addedFiles++
	}

	for _, e := range edges {
		m.Edges = append(m.Edges, Edge{
			From:       e.Source,
			To:         e.Target,
			Weight:     e.Weight,
			Unresolved: e.Unresolved,
		})
		addedEdges++
	}
	return addedFiles, addedEdges
}
