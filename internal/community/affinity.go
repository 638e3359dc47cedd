package community

import (
	"path"
	"sort"

	"ctxmap/internal/graph"
	"ctxmap/internal/naming"
)

// Affinity holds the bonuses added to the weight of a connected pair.
type Affinity struct {
	// SameDirectory applies when both files live in the same directory (default: 0.5)
	SameDirectory float64 `json:"sameDirectory"`

	// SharedPattern applies when both files carry the same role suffix,
	// e.g. user.service.ts and order.service.ts (default: 0.3)
	SharedPattern float64 `json:"sharedPattern"`

	// Bidirectional applies when edges exist in both directions (default: 0.5)
	Bidirectional float64 `json:"bidirectional"`
}

// DefaultAffinity returns the default affinity bonuses.
func DefaultAffinity() Affinity {
	return Affinity{
		SameDirectory: 0.5,
		SharedPattern: 0.3,
		Bidirectional: 0.5,
	}
}

// bonus returns the affinity bonus for the connected pair (i, j).
func (a Affinity) bonus(g *graph.Graph, dirs, roles []string, i, j int) float64 {
	b := 0.0
	if dirs[i] == dirs[j] {
		b += a.SameDirectory
	}
	if roles[i] != "" && roles[i] == roles[j] {
		b += a.SharedPattern
	}
	if g.HasEdgeIdx(i, j) && g.HasEdgeIdx(j, i) {
		b += a.Bidirectional
	}
	return b
}

// symmetrize builds the undirected level-0 graph of g. Each connected pair
// gets A_ij = w(i->j) + w(j->i), plus the affinity bonus when withBonus is
// set. Self-loops are ignored. Neighbours are listed in path order.
func symmetrize(g *graph.Graph, aff Affinity, withBonus bool) *levelGraph {
	n := g.NumNodes()
	dirs := make([]string, n)
	roles := make([]string, n)
	for i := 0; i < n; i++ {
		dirs[i] = path.Dir(g.Path(i))
		roles[i] = naming.Role(g.Path(i))
	}

	weights := make([]map[int]float64, n)
	for i := range weights {
		weights[i] = make(map[int]float64)
	}
	for i := 0; i < n; i++ {
		for _, adj := range g.Out(i) {
			j := adj.Node
			if j == i {
				continue
			}
			weights[i][j] += adj.Weight
			weights[j][i] += adj.Weight
		}
	}

	lg := newLevelGraph(n)
	for i := 0; i < n; i++ {
		nbrs := make([]int, 0, len(weights[i]))
		for j := range weights[i] {
			nbrs = append(nbrs, j)
		}
		sort.Ints(nbrs)
		for _, j := range nbrs {
			w := weights[i][j]
			if withBonus {
				w += aff.bonus(g, dirs, roles, i, j)
			}
			lg.addArc(i, j, w)
		}
	}
	lg.finish()
	return lg
}
