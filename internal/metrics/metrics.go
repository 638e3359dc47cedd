// Package metrics computes per-file connectivity metrics over the dependency graph:
// degrees, an iterative importance score and approximate betweenness.
package metrics

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"ctxmap/internal/graph"
	"ctxmap/internal/slogutil"
)

// Options configures metric computation.
type Options struct {
	// Damping is the probability of following an edge (default: 0.85)
	Damping float64

	// MaxIterations caps the importance iteration (default: 20)
	MaxIterations int

	// Tolerance is the per-node convergence threshold on the unit-mass
	// importance vector (default: 1e-6)
	Tolerance float64

	// BetweennessSampleThreshold is the largest node count for exact betweenness (default: 2000)
	BetweennessSampleThreshold int

	// BetweennessSamples is the number of source pivots above the threshold (default: 256)
	BetweennessSamples int

	Logger *slog.Logger
}

// DefaultOptions returns the default metric options.
func DefaultOptions() Options {
	return Options{
		Damping:                    0.85,
		MaxIterations:              20,
		Tolerance:                  1e-6,
		BetweennessSampleThreshold: 2000,
		BetweennessSamples:         256,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Damping <= 0 || o.Damping >= 1 {
		o.Damping = d.Damping
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.BetweennessSampleThreshold <= 0 {
		o.BetweennessSampleThreshold = d.BetweennessSampleThreshold
	}
	if o.BetweennessSamples <= 0 {
		o.BetweennessSamples = d.BetweennessSamples
	}
	o.Logger = slogutil.OrDiscard(o.Logger)
	return o
}

// NodeMetrics holds the metrics of one file.
type NodeMetrics struct {
	Path                 string  `json:"path"`
	InDegree             int     `json:"inDegree"`
	OutDegree            int     `json:"outDegree"`
	Importance           float64 `json:"importance"`
	Betweenness          float64 `json:"betweenness"`
	NormalizedInDegree   float64 `json:"normalizedInDegree"`
	NormalizedImportance float64 `json:"normalizedImportance"`
}

// Result contains per-node metrics in graph (path) order.
type Result struct {
	Nodes              []NodeMetrics `json:"nodes"`
	Iterations         int           `json:"iterations"`
	Converged          bool          `json:"converged"`
	BetweennessExact   bool          `json:"betweennessExact"`
	BetweennessSources int           `json:"betweennessSources"`
}

// Get returns the metrics for path.
func (r *Result) Get(path string) (NodeMetrics, bool) {
	i := sort.Search(len(r.Nodes), func(i int) bool { return r.Nodes[i].Path >= path })
	if i < len(r.Nodes) && r.Nodes[i].Path == path {
		return r.Nodes[i], true
	}
	return NodeMetrics{}, false
}

// Compute calculates metrics for every node of g. It only fails when ctx is
// cancelled.
func Compute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	n := g.NumNodes()

	result := &Result{
		Nodes:            make([]NodeMetrics, n),
		Converged:        true,
		BetweennessExact: true,
	}
	if n == 0 {
		return result, nil
	}

	importance, iterations, converged, err := computeImportance(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Iterations = iterations
	result.Converged = converged

	betweenness, sources, err := computeBetweenness(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.BetweennessSources = sources
	result.BetweennessExact = sources == n

	maxIn := 0
	minImp, maxImp := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		if in := g.InDegree(i); in > maxIn {
			maxIn = in
		}
		minImp = math.Min(minImp, importance[i])
		maxImp = math.Max(maxImp, importance[i])
	}

	for i := 0; i < n; i++ {
		m := NodeMetrics{
			Path:        g.Path(i),
			InDegree:    g.InDegree(i),
			OutDegree:   g.OutDegree(i),
			Importance:  importance[i],
			Betweenness: betweenness[i],
		}
		if maxIn > 0 {
			m.NormalizedInDegree = float64(m.InDegree) / float64(maxIn)
		}
		if spread := maxImp - minImp; spread > 0 {
			m.NormalizedImportance = (importance[i] - minImp) / spread
		}
		result.Nodes[i] = m
	}

	opts.Logger.Debug("Metrics computed",
		"nodes", n,
		"iterations", iterations,
		"converged", converged,
		"betweennessSources", sources,
	)
	return result, nil
}

// computeImportance solves
//
//	imp(v) = (1-d) + d * (sum_{u->v} imp(u)/out(u) + dangling/N)
//
// by power iteration on the unit-mass vector p = imp/N, starting from 1/N,
// and returns N*p. Mass of out-degree-0 nodes is spread uniformly. The
// iteration stops once the L1 change of p falls below N*Tolerance.
func computeImportance(ctx context.Context, g *graph.Graph, opts Options) ([]float64, int, bool, error) {
	n := g.NumNodes()
	nf := float64(n)
	d := opts.Damping

	p := make([]float64, n)
	next := make([]float64, n)
	for i := range p {
		p[i] = 1.0 / nf
	}

	iterations := 0
	converged := false
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, false, err
		}
		iterations++

		dangling := 0.0
		for u := 0; u < n; u++ {
			if g.OutDegree(u) == 0 {
				dangling += p[u]
			}
		}
		share := dangling / nf

		change := 0.0
		for v := 0; v < n; v++ {
			sum := 0.0
			for _, adj := range g.In(v) {
				sum += p[adj.Node] / float64(g.OutDegree(adj.Node))
			}
			next[v] = (1-d)/nf + d*(sum+share)
			change += math.Abs(next[v] - p[v])
		}
		p, next = next, p

		if change < nf*opts.Tolerance {
			converged = true
			break
		}
	}

	for i := range p {
		p[i] *= nf
	}
	return p, iterations, converged, nil
}

// computeBetweenness runs Brandes' algorithm over unweighted directed edges
// and normalizes by the maximum. Above the sample threshold, pivots are
// taken with an even stride over the path-sorted nodes and partial sums are
// scaled by N/k.
func computeBetweenness(ctx context.Context, g *graph.Graph, opts Options) ([]float64, int, error) {
	n := g.NumNodes()
	sources := pivots(n, opts.BetweennessSampleThreshold, opts.BetweennessSamples)

	cb := make([]float64, n)
	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		stack = stack[:0]
		queue = append(queue[:0], s)
		sigma[s] = 1
		dist[s] = 0

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			stack = append(stack, v)
			for _, adj := range g.Out(v) {
				w := adj.Node
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	if len(sources) < n {
		scale := float64(n) / float64(len(sources))
		for i := range cb {
			cb[i] *= scale
		}
	}

	maxCB := 0.0
	for _, v := range cb {
		maxCB = math.Max(maxCB, v)
	}
	if maxCB > 0 {
		for i := range cb {
			cb[i] /= maxCB
		}
	}
	return cb, len(sources), nil
}

// pivots returns the BFS sources: every node when n <= threshold, otherwise
// k evenly strided indices.
func pivots(n, threshold, samples int) []int {
	if n <= threshold || samples >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	out := make([]int, samples)
	for j := 0; j < samples; j++ {
		out[j] = j * n / samples
	}
	return out
}
