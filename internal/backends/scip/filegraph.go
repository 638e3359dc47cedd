package scip

import (
	"sort"
	"strings"

	"ctxmap/internal/graph"
	"ctxmap/internal/outline"
)

// FileGraphResult is the file set and import edges derived from an index.
type FileGraphResult struct {
	Files []graph.FileNode   `json:"files"`
	Edges []graph.ImportEdge `json:"edges"`

	// UnresolvedSymbols counts distinct (document, symbol) references whose
	// symbol no document defines
	UnresolvedSymbols int `json:"unresolvedSymbols"`
}

// FileGraph derives one FileNode per document and an import edge A->B
// whenever document A references a symbol defined in document B. The edge
// weight is the number of distinct symbols A references from B. References
// to symbols no document defines become one unresolved edge per external
// package. Document-local symbols and references within a file are ignored.
//
// A symbol defined by several documents resolves to the first of them in
// path order. Output is sorted, so the same index always yields the same
// result.
func FileGraph(idx *Index) *FileGraphResult {
	res := &FileGraphResult{
		Files: []graph.FileNode{},
		Edges: []graph.ImportEdge{},
	}
	if idx == nil {
		return res
	}

	docs := make([]*Document, 0, len(idx.Documents))
	seen := make(map[string]bool, len(idx.Documents))
	for _, doc := range idx.Documents {
		p := graph.NormalizePath(doc.RelativePath)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return graph.NormalizePath(docs[i].RelativePath) < graph.NormalizePath(docs[j].RelativePath)
	})

	definedIn := make(map[string]string)
	define := func(sym, p string) {
		if isLocalSymbol(sym) {
			return
		}
		if _, ok := definedIn[sym]; !ok {
			definedIn[sym] = p
		}
	}
	for _, doc := range docs {
		p := graph.NormalizePath(doc.RelativePath)
		for _, sym := range doc.Defined {
			define(sym, p)
		}
		for _, occ := range doc.Occurrences {
			if occ.IsDefinition() {
				define(occ.Symbol, p)
			}
		}
	}

	for _, doc := range docs {
		from := graph.NormalizePath(doc.RelativePath)
		res.Files = append(res.Files, graph.FileNode{
			Path:     from,
			Language: documentLanguage(from, doc.Language),
		})

		targets := make(map[string]map[string]bool)
		external := make(map[string]map[string]bool)
		for _, occ := range doc.Occurrences {
			if occ.Symbol == "" || occ.IsDefinition() || isLocalSymbol(occ.Symbol) {
				continue
			}
			to, ok := definedIn[occ.Symbol]
			if !ok {
				pkg := symbolPackage(occ.Symbol)
				if external[pkg] == nil {
					external[pkg] = make(map[string]bool)
				}
				external[pkg][occ.Symbol] = true
				continue
			}
			if to == from {
				continue
			}
			if targets[to] == nil {
				targets[to] = make(map[string]bool)
			}
			targets[to][occ.Symbol] = true
		}

		for _, to := range sortedKeys(targets) {
			res.Edges = append(res.Edges, graph.ImportEdge{
				Source: from,
				Target: to,
				Weight: float64(len(targets[to])),
			})
		}
		for _, pkg := range sortedKeys(external) {
			res.UnresolvedSymbols += len(external[pkg])
			res.Edges = append(res.Edges, graph.ImportEdge{
				Source:     from,
				Target:     pkg,
				Weight:     float64(len(external[pkg])),
				Unresolved: true,
			})
		}
	}

	return res
}

// documentLanguage prefers the extension so languages line up with the
// outline extractor; the indexer's name is the fallback.
func documentLanguage(p, reported string) string {
	if lang := outline.LanguageFromPath(p); lang != outline.LangUnknown {
		return string(lang)
	}
	return strings.ToLower(reported)
}

func isLocalSymbol(sym string) bool {
	return strings.HasPrefix(sym, "local ")
}

// symbolPackage returns "scheme manager name version" of a global symbol.
func symbolPackage(sym string) string {
	fields := strings.SplitN(sym, " ", 5)
	if len(fields) < 4 {
		return sym
	}
	return strings.Join(fields[:4], " ")
}

func sortedKeys(m map[string]map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
