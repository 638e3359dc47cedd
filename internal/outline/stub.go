//go:build !cgo

package outline

import "context"

// TreeSitterAvailable reports whether tree-sitter grammars are compiled in.
// Builds without cgo fall back to line heuristics for every language.
func TreeSitterAvailable() bool {
	return false
}

func parseTree(context.Context, Language, []byte) (*Outline, bool, error) {
	return nil, false, nil
}
