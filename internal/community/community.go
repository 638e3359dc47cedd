// Package community partitions the dependency graph into domain clusters
// with Louvain modularity optimization, biased by code-specific affinity
// bonuses (shared directory, shared naming pattern, bidirectional imports).
package community

import (
	"context"
	"log/slog"
	"path"
	"sort"

	"ctxmap/internal/graph"
	"ctxmap/internal/slogutil"
)

const (
	// DefaultResolution is the modularity resolution gamma.
	DefaultResolution = 1.0

	// DefaultMaxPasses caps local-move passes per level.
	DefaultMaxPasses = 100

	// DefaultMaxLevels caps aggregation levels.
	DefaultMaxLevels = 20
)

// Options configures community partitioning. Affinity bonuses are taken as
// given; use DefaultOptions for the standard bonuses.
type Options struct {
	Resolution float64
	Affinity   Affinity
	MaxPasses  int
	MaxLevels  int
	Logger     *slog.Logger
}

// DefaultOptions returns the default partitioning options.
func DefaultOptions() Options {
	return Options{
		Resolution: DefaultResolution,
		Affinity:   DefaultAffinity(),
		MaxPasses:  DefaultMaxPasses,
		MaxLevels:  DefaultMaxLevels,
	}
}

func (o Options) withDefaults() Options {
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = DefaultMaxPasses
	}
	if o.MaxLevels <= 0 {
		o.MaxLevels = DefaultMaxLevels
	}
	if o.Affinity.SameDirectory < 0 {
		o.Affinity.SameDirectory = 0
	}
	if o.Affinity.SharedPattern < 0 {
		o.Affinity.SharedPattern = 0
	}
	if o.Affinity.Bidirectional < 0 {
		o.Affinity.Bidirectional = 0
	}
	o.Logger = slogutil.OrDiscard(o.Logger)
	return o
}

// Community is one domain cluster.
type Community struct {
	ID            int      `json:"id"`
	Label         string   `json:"label"`
	Members       []string `json:"members"` // path order
	InternalEdges int      `json:"internalEdges"`
	ExternalEdges int      `json:"externalEdges"`
	Cohesion      float64  `json:"cohesion"`
}

// Result is a partition of every node of the graph.
type Result struct {
	Communities        []Community `json:"communities"`
	Modularity         float64     `json:"modularity"`
	WeightedModularity float64     `json:"weightedModularity"`
	Levels             int         `json:"levels"`

	communityOf map[string]int
}

// CommunityOf returns the community containing path.
func (r *Result) CommunityOf(p string) (Community, bool) {
	if r.communityOf == nil {
		r.index()
	}
	i, ok := r.communityOf[graph.NormalizePath(p)]
	if !ok {
		return Community{}, false
	}
	return r.Communities[i], true
}

func (r *Result) index() {
	r.communityOf = make(map[string]int)
	for i, c := range r.Communities {
		for _, m := range c.Members {
			r.communityOf[m] = i
		}
	}
}

// Partition runs Louvain over the symmetrized, affinity-weighted graph.
//
// Level 0 visits nodes in path order. After each local-move phase the
// communities collapse into super-nodes and the phase repeats; it stops when
// a level merges nothing or MaxLevels is reached. Community IDs start at 1
// and follow the smallest member path.
func Partition(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	n := g.NumNodes()

	result := &Result{Communities: []Community{}}
	if n == 0 {
		result.index()
		return result, nil
	}

	weighted := symmetrize(g, opts.Affinity, true)

	// membership maps each original node to its current super-node.
	membership := make([]int, n)
	for i := range membership {
		membership[i] = i
	}

	lg := weighted
	levels := 0
	for levels < opts.MaxLevels {
		comm, count, passes, err := localMove(ctx, lg, opts.Resolution, opts.MaxPasses)
		if err != nil {
			return nil, err
		}
		opts.Logger.Debug("Louvain level finished",
			"level", levels,
			"nodes", lg.size(),
			"communities", count,
			"passes", passes,
		)
		if count == lg.size() {
			break
		}
		for i := range membership {
			membership[i] = comm[membership[i]]
		}
		lg = aggregate(lg, comm, count)
		levels++
	}

	count := renumber(membership)
	plain := symmetrize(g, opts.Affinity, false)
	result.Modularity = modularity(plain, membership, count, opts.Resolution)
	result.WeightedModularity = modularity(weighted, membership, count, opts.Resolution)
	result.Levels = levels
	result.Communities = buildCommunities(g, membership, count)
	result.index()

	opts.Logger.Debug("Communities detected",
		"communities", len(result.Communities),
		"levels", levels,
		"modularity", result.Modularity,
	)
	return result, nil
}

// buildCommunities maps the final membership back to files, orders
// communities by their smallest member path and computes label and edge
// statistics.
func buildCommunities(g *graph.Graph, membership []int, count int) []Community {
	members := make([][]int, count)
	// Nodes are path-sorted, so members come out in path order.
	for i, c := range membership {
		members[c] = append(members[c], i)
	}
	sort.SliceStable(members, func(a, b int) bool {
		return members[a][0] < members[b][0]
	})

	final := make([]int, g.NumNodes())
	for c, nodes := range members {
		for _, i := range nodes {
			final[i] = c
		}
	}

	internal := make([]int, count)
	external := make([]int, count)
	for i := 0; i < g.NumNodes(); i++ {
		for _, adj := range g.Out(i) {
			j := adj.Node
			if i == j {
				continue
			}
			if final[i] == final[j] {
				internal[final[i]]++
				continue
			}
			external[final[i]]++
			external[final[j]]++
		}
	}

	out := make([]Community, count)
	for c, nodes := range members {
		paths := make([]string, len(nodes))
		for k, i := range nodes {
			paths[k] = g.Path(i)
		}
		cm := Community{
			ID:            c + 1,
			Label:         dominantDir(paths),
			Members:       paths,
			InternalEdges: internal[c],
			ExternalEdges: external[c],
		}
		if total := cm.InternalEdges + cm.ExternalEdges; total > 0 {
			cm.Cohesion = float64(cm.InternalEdges) / float64(total)
		}
		out[c] = cm
	}
	return out
}

// dominantDir returns the most common directory among paths, ties broken
// by the lexically smallest directory.
func dominantDir(paths []string) string {
	counts := make(map[string]int)
	best := ""
	for _, p := range paths {
		d := path.Dir(p)
		counts[d]++
		c := counts[d]
		if best == "" || c > counts[best] || (c == counts[best] && d < best) {
			best = d
		}
	}
	return best
}
