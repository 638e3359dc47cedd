// Package scip derives file-level import edges from a SCIP index.
package scip

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ctxmap/internal/errors"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"
)

// Index is a loaded SCIP index reduced to what the file graph needs.
type Index struct {
	Metadata  *Metadata
	Documents []*Document

	// LoadedAt is when the index was loaded
	LoadedAt time.Time

	// IndexedCommit is the git commit the index was built from, if the
	// indexer recorded it
	IndexedCommit string
}

// LoadIndex loads a SCIP index from the specified path
func LoadIndex(path string) (*Index, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewAnalysisError(
			errors.IndexMissing,
			fmt.Sprintf("SCIP index not found at %s", path),
			err,
			errors.GetSuggestedFixes(errors.IndexMissing),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewAnalysisError(
			errors.InternalError,
			fmt.Sprintf("Failed to read SCIP index from %s", path),
			err,
			nil,
		)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.NewAnalysisError(
			errors.InvalidInput,
			fmt.Sprintf("Failed to parse SCIP index from %s", path),
			err,
			[]errors.FixAction{
				{
					Type:        errors.RunCommand,
					Command:     "scip print --index=" + path,
					Safe:        true,
					Description: "Verify SCIP index is valid",
				},
			},
		)
	}

	return FromProto(&index), nil
}

// FromProto converts a decoded protobuf index.
func FromProto(index *scippb.Index) *Index {
	idx := &Index{
		Metadata:  convertMetadata(index.GetMetadata()),
		Documents: make([]*Document, len(index.GetDocuments())),
		LoadedAt:  time.Now(),
	}
	for i, doc := range index.GetDocuments() {
		idx.Documents[i] = convertDocument(doc)
	}
	if idx.Metadata != nil && idx.Metadata.ToolInfo != nil {
		idx.IndexedCommit = extractCommitFromToolInfo(idx.Metadata.ToolInfo)
	}
	return idx
}

func convertMetadata(meta *scippb.Metadata) *Metadata {
	if meta == nil {
		return nil
	}

	var toolInfo *ToolInfo
	if meta.ToolInfo != nil {
		toolInfo = &ToolInfo{
			Name:      meta.ToolInfo.Name,
			Version:   meta.ToolInfo.Version,
			Arguments: meta.ToolInfo.Arguments,
		}
	}

	return &Metadata{
		Version:     meta.Version.String(),
		ToolInfo:    toolInfo,
		ProjectRoot: meta.ProjectRoot,
	}
}

func convertDocument(doc *scippb.Document) *Document {
	occurrences := make([]Occurrence, len(doc.Occurrences))
	for i, occ := range doc.Occurrences {
		occurrences[i] = Occurrence{Symbol: occ.Symbol, SymbolRoles: occ.SymbolRoles}
	}

	defined := make([]string, 0, len(doc.Symbols))
	for _, sym := range doc.Symbols {
		defined = append(defined, sym.Symbol)
	}

	return &Document{
		RelativePath: doc.RelativePath,
		Language:     doc.Language,
		Occurrences:  occurrences,
		Defined:      defined,
	}
}

// extractCommitFromToolInfo looks for a commit in the indexer arguments:
// --commit=<hash>, --git-commit=<hash>, --module-version=<hash> or -c <hash>.
func extractCommitFromToolInfo(toolInfo *ToolInfo) string {
	for i, arg := range toolInfo.Arguments {
		for _, prefix := range []string{"--commit=", "--git-commit=", "--module-version="} {
			if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
				return arg[len(prefix):]
			}
		}
		if arg == "-c" && i+1 < len(toolInfo.Arguments) {
			return toolInfo.Arguments[i+1]
		}
	}

	// scip-go puts the commit in the version field
	if looksLikeCommitHash(toolInfo.Version) {
		return toolInfo.Version
	}
	return ""
}

func looksLikeCommitHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// IndexPath resolves a configured index path against the repo root.
func IndexPath(repoRoot string, configPath string) string {
	if filepath.IsAbs(configPath) {
		return configPath
	}
	return filepath.Join(repoRoot, configPath)
}
