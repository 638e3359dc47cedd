package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"ctxmap/internal/analysis"
	"ctxmap/internal/compression"
	"ctxmap/internal/graph"
	"ctxmap/internal/outline"
)

// resolveWorkers bounds concurrent content reads.
const resolveWorkers = 8

// Resolve turns a manifest into pipeline input. Content is read from
// content_file when set, otherwise from the file path when it exists under
// the root. Missing languages are detected from the extension, missing
// signals are derived from the outline and missing token counts are counted.
// A nil extractor leaves absent signals zero; a nil counter uses
// compression.EstimateCounter.
func Resolve(ctx context.Context, m *Manifest, extractor *outline.Extractor, counter compression.TokenCounter) (analysis.Input, error) {
	if counter == nil {
		counter = compression.EstimateCounter{}
	}
	root := m.RootDir()

	files := make([]analysis.FileInput, len(m.Files))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(resolveWorkers)
	for i, f := range m.Files {
		eg.Go(func() error {
			fi, err := resolveFile(egCtx, root, f, extractor, counter)
			if err != nil {
				return err
			}
			files[i] = fi
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return analysis.Input{}, err
	}

	edges := make([]graph.ImportEdge, len(m.Edges))
	for i, e := range m.Edges {
		edges[i] = graph.ImportEdge{
			Source:     e.From,
			Target:     e.To,
			Weight:     e.Weight,
			Unresolved: e.Unresolved,
		}
	}

	return analysis.Input{
		Files:  files,
		Edges:  edges,
		Budget: m.Budget,
	}, nil
}

func resolveFile(ctx context.Context, root string, f File, extractor *outline.Extractor, counter compression.TokenCounter) (analysis.FileInput, error) {
	if err := ctx.Err(); err != nil {
		return analysis.FileInput{}, err
	}

	content, err := readContent(root, f)
	if err != nil {
		return analysis.FileInput{}, err
	}

	node := graph.FileNode{
		Path:     graph.NormalizePath(f.Path),
		Size:     f.Size,
		Language: f.Language,
	}
	if node.Language == "" {
		node.Language = string(outline.LanguageFromPath(node.Path))
	}
	if node.Size == 0 {
		node.Size = int64(len(content))
	}

	switch {
	case f.Signals != nil:
		node.Signals = *f.Signals
	case content != "" && extractor != nil:
		o, err := extractor.Outline(ctx, node.Path, content)
		if err != nil {
			return analysis.FileInput{}, err
		}
		node.Signals = o.Signals
	}

	tokens := f.Tokens
	if tokens == 0 && content != "" {
		tokens = counter.Count(content)
	}

	return analysis.FileInput{
		Node:    node,
		Tokens:  tokens,
		Content: content,
	}, nil
}

func readContent(root string, f File) (string, error) {
	if f.ContentFile != "" {
		data, err := os.ReadFile(resolvePath(root, f.ContentFile))
		if err != nil {
			return "", invalid(fmt.Sprintf("read content of %s", f.Path), err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(resolvePath(root, graph.NormalizePath(f.Path)))
	switch {
	case err == nil:
		return string(data), nil
	case os.IsNotExist(err):
		return "", nil
	default:
		return "", invalid(fmt.Sprintf("read %s", f.Path), err)
	}
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}
