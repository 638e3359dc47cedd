// Package analysis runs the full pipeline: graph construction, metrics,
// cycle detection, community partitioning, significance ranking and
// context selection.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ctxmap/internal/community"
	"ctxmap/internal/compression"
	"ctxmap/internal/cycles"
	"ctxmap/internal/errors"
	"ctxmap/internal/graph"
	"ctxmap/internal/metrics"
	"ctxmap/internal/significance"
	"ctxmap/internal/slogutil"
)

// FileInput is one discovered file with its token count and content.
// Tokens <= 0 are counted from Content; empty Content means the file has
// no truncated form.
type FileInput struct {
	Node    graph.FileNode `json:"node"`
	Tokens  int            `json:"tokens,omitempty"`
	Content string         `json:"content,omitempty"`
}

// Input is everything one analysis run consumes.
type Input struct {
	Files  []FileInput        `json:"files"`
	Edges  []graph.ImportEdge `json:"edges"`
	Budget int                `json:"budget"`
}

// Options configures the pipeline stages.
type Options struct {
	Metrics   metrics.Options
	Community community.Options
	// Rules defaults to significance.DefaultRules when nil.
	Rules *significance.Rules

	DisableTruncation bool
	Counter           compression.TokenCounter
	Truncator         compression.Truncator

	Logger *slog.Logger
}

// DefaultOptions returns the default pipeline options.
func DefaultOptions() Options {
	return Options{
		Metrics:   metrics.DefaultOptions(),
		Community: community.DefaultOptions(),
	}
}

func (o Options) withDefaults() Options {
	o.Logger = slogutil.OrDiscard(o.Logger)
	if o.Metrics.Logger == nil {
		o.Metrics.Logger = o.Logger
	}
	if o.Community.Logger == nil {
		o.Community.Logger = o.Logger
	}
	if o.Rules == nil {
		rules := significance.DefaultRules()
		o.Rules = &rules
	}
	if o.Counter == nil {
		o.Counter = compression.EstimateCounter{}
	}
	return o
}

// GraphSnapshot is the serializable form of the dependency graph.
type GraphSnapshot struct {
	Nodes []graph.FileNode `json:"nodes"`
	Edges []graph.Edge     `json:"edges"`
}

// Result is the outcome of one analysis run. Scores are in rank order.
// Two runs over the same input marshal to identical JSON.
type Result struct {
	Graph       GraphSnapshot            `json:"graph"`
	BuildStats  graph.BuildStats         `json:"buildStats"`
	Metrics     *metrics.Result          `json:"metrics"`
	Cycles      *cycles.Result           `json:"cycles"`
	Communities *community.Result        `json:"communities"`
	Scores      []significance.FileScore `json:"scores"`
	Selection   *compression.Selection   `json:"selection"`
	Diagnostics []errors.Diagnostic      `json:"diagnostics"`

	graph *graph.Graph
}

// DependencyGraph returns the graph the result was computed from. It is nil
// for results decoded from JSON.
func (r *Result) DependencyGraph() *graph.Graph {
	return r.graph
}

// Score returns the score of path.
func (r *Result) Score(path string) (significance.FileScore, bool) {
	p := graph.NormalizePath(path)
	for _, s := range r.Scores {
		if s.Path == p {
			return s, true
		}
	}
	return significance.FileScore{}, false
}

// HasDiagnostic reports whether a diagnostic with code was attached.
func (r *Result) HasDiagnostic(code errors.ErrorCode) bool {
	for _, d := range r.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Analyze runs the pipeline over in. The graph is built first; metrics,
// cycle detection and partitioning then run concurrently over it, scoring
// waits for metrics and selection waits for scoring. Degenerate inputs
// produce diagnostics, not errors; only context cancellation fails.
func Analyze(ctx context.Context, in Input, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := make([]graph.FileNode, len(in.Files))
	for i, f := range in.Files {
		files[i] = f.Node
	}
	g, stats := graph.Build(files, in.Edges)
	logger.Debug("Graph built",
		"nodes", g.NumNodes(),
		"edges", g.NumEdges(),
		"dropped", stats.DroppedEdges,
	)

	var (
		mres *metrics.Result
		cres *cycles.Result
		pres *community.Result
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		mres, err = metrics.Compute(egCtx, g, opts.Metrics)
		return err
	})
	eg.Go(func() error {
		cres = cycles.Detect(g)
		return nil
	})
	eg.Go(func() error {
		var err error
		pres, err = community.Partition(egCtx, g, opts.Community)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := rank(g, mres, significance.NewScorer(*opts.Rules))

	budget := compression.Budget{
		TokenBudget:     in.Budget,
		AllowTruncation: !opts.DisableTruncation,
	}
	budgeter := compression.NewBudgeter(budget, opts.Counter, opts.Truncator, logger)
	sel := budgeter.Select(candidates(in.Files, scores))

	res := &Result{
		Graph: GraphSnapshot{
			Nodes: g.Nodes(),
			Edges: g.Edges(),
		},
		BuildStats:  stats,
		Metrics:     mres,
		Cycles:      cres,
		Communities: pres,
		Scores:      scores,
		Selection:   sel,
		graph:       g,
	}
	res.Diagnostics = diagnose(g, stats, mres, sel)
	for _, d := range res.Diagnostics {
		logger.Warn("Analysis diagnostic", "code", d.Code, "message", d.Message)
	}

	logger.Debug("Analysis complete",
		"files", g.NumNodes(),
		"cycles", len(cres.Groups),
		"communities", len(pres.Communities),
		"used", sel.Used,
		"budget", sel.Budget,
	)
	return res, nil
}

func rank(g *graph.Graph, m *metrics.Result, scorer *significance.Scorer) []significance.FileScore {
	scores := make([]significance.FileScore, g.NumNodes())
	for i := range scores {
		nm := m.Nodes[i]
		scores[i] = scorer.Score(significance.Input{
			Node:                 g.Node(i),
			NormalizedInDegree:   nm.NormalizedInDegree,
			NormalizedImportance: nm.NormalizedImportance,
		})
	}
	return scorer.Rank(scores)
}

// candidates pairs ranked scores with their file content. Duplicate file
// entries resolve to the first occurrence, as in graph.Build.
func candidates(files []FileInput, scores []significance.FileScore) []compression.Candidate {
	byPath := make(map[string]FileInput, len(files))
	for _, f := range files {
		p := graph.NormalizePath(f.Node.Path)
		if _, dup := byPath[p]; !dup {
			byPath[p] = f
		}
	}

	out := make([]compression.Candidate, len(scores))
	for i, s := range scores {
		f := byPath[s.Path]
		out[i] = compression.Candidate{
			Path:    s.Path,
			Rank:    s.Rank,
			Tokens:  f.Tokens,
			Content: f.Content,
		}
	}
	return out
}

func diagnose(g *graph.Graph, stats graph.BuildStats, m *metrics.Result, sel *compression.Selection) []errors.Diagnostic {
	diags := []errors.Diagnostic{}

	if stats.DroppedEdges > 0 || stats.DuplicateFiles > 0 || stats.InvalidFiles > 0 {
		diags = append(diags, errors.NewDiagnostic(errors.MalformedInput,
			fmt.Sprintf("dropped %d of %d edges", stats.DroppedEdges, stats.SuppliedEdges),
			map[string]int{
				"droppedEdges":      stats.DroppedEdges,
				"unknownSources":    stats.UnknownSources,
				"unresolvedImports": stats.UnresolvedImports,
				"duplicateFiles":    stats.DuplicateFiles,
				"invalidFiles":      stats.InvalidFiles,
			}))
	}

	if g.NumNodes() == 0 {
		diags = append(diags, errors.NewDiagnostic(errors.EmptyGraph, "no files supplied", nil))
		return diags
	}

	if !m.Converged {
		diags = append(diags, errors.NewDiagnostic(errors.NonConvergence,
			fmt.Sprintf("importance did not converge in %d iterations", m.Iterations),
			map[string]int{"iterations": m.Iterations}))
	}

	if sel.Empty() {
		smallest := -1
		for _, d := range sel.Decisions {
			if smallest < 0 || d.Tokens < smallest {
				smallest = d.Tokens
			}
		}
		diags = append(diags, errors.NewDiagnostic(errors.BudgetTooSmall,
			fmt.Sprintf("budget of %d tokens fits no file", sel.Budget),
			map[string]int{"budget": sel.Budget, "smallestFile": smallest}))
	}
	return diags
}
