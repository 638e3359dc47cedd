package outline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"ctxmap/internal/slogutil"
)

// DefaultCacheSize is the number of outlines kept by an Extractor.
const DefaultCacheSize = 1024

// Options configures an Extractor.
type Options struct {
	CacheSize int
	// Heuristics forces line heuristics even when tree-sitter is available.
	Heuristics bool
	Logger     *slog.Logger
}

// Extractor builds outlines and caches them by content hash. It is safe for
// concurrent use; cached outlines are shared and must not be modified.
type Extractor struct {
	cache      *lru.Cache[string, *Outline]
	treeSitter bool
	logger     *slog.Logger
}

// NewExtractor creates an outline extractor.
func NewExtractor(opts Options) (*Extractor, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Outline](size)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		cache:      cache,
		treeSitter: TreeSitterAvailable() && !opts.Heuristics,
		logger:     slogutil.OrDiscard(opts.Logger),
	}, nil
}

func cacheKey(lang Language, content string) string {
	h := sha256.New()
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// Outline returns the outline of content, detecting the language from path.
// Parse failures fall back to line heuristics; only context cancellation
// is returned as an error.
func (e *Extractor) Outline(ctx context.Context, path, content string) (*Outline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := LanguageFromPath(path)
	key := cacheKey(lang, content)
	if o, ok := e.cache.Get(key); ok {
		return o, nil
	}

	var o *Outline
	if e.treeSitter {
		parsed, ok, err := parseTree(ctx, lang, []byte(content))
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			e.logger.Debug("Tree-sitter parse failed, using heuristics", "path", path, "error", err)
		case ok:
			o = parsed
		}
	}
	if o == nil {
		o = heuristicOutline(lang, content)
	}
	o.Lines = countLines(content)
	o.finish()

	e.cache.Add(key, o)
	return o, nil
}

// Truncate implements compression.Truncator. Files whose outline keeps no
// lines have no truncated form.
func (e *Extractor) Truncate(path, content string) (string, bool) {
	if content == "" {
		return "", false
	}
	o, err := e.Outline(context.Background(), path, content)
	if err != nil || o.Kept() == 0 {
		return "", false
	}
	return o.Truncated(), true
}

// Cached returns the number of cached outlines.
func (e *Extractor) Cached() int {
	return e.cache.Len()
}
