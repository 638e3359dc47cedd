package community

import (
	"context"
	"sort"
)

// arc is one entry of an undirected adjacency list. A self-loop (to == the
// owning node) carries the intra-community weight of an aggregated node and
// appears once.
type arc struct {
	to int
	w  float64
}

// levelGraph is the undirected weighted graph optimized at one Louvain level.
type levelGraph struct {
	adj [][]arc
	k   []float64 // weighted degree: sum of adjacency entries
	m   float64   // total weight: sum(k) / 2
}

func newLevelGraph(n int) *levelGraph {
	return &levelGraph{
		adj: make([][]arc, n),
		k:   make([]float64, n),
	}
}

func (lg *levelGraph) addArc(from, to int, w float64) {
	lg.adj[from] = append(lg.adj[from], arc{to: to, w: w})
}

func (lg *levelGraph) finish() {
	total := 0.0
	for i, arcs := range lg.adj {
		sum := 0.0
		for _, a := range arcs {
			sum += a.w
		}
		lg.k[i] = sum
		total += sum
	}
	lg.m = total / 2
}

func (lg *levelGraph) size() int { return len(lg.adj) }

// localMove runs the Louvain local-move phase. Nodes start in singleton
// communities and are visited in index order; each pass moves a node to the
// neighbouring community with the largest gain
//
//	k_i,D/m - gamma * tot_D * k_i / (2m^2)
//
// if that strictly beats staying. Ties keep the current community, then the
// first community seen in adjacency order. Returns the community of every
// node, renumbered by first appearance, and the community count.
func localMove(ctx context.Context, lg *levelGraph, gamma float64, maxPasses int) ([]int, int, int, error) {
	n := lg.size()
	comm := make([]int, n)
	tot := make([]float64, n)
	for i := 0; i < n; i++ {
		comm[i] = i
		tot[i] = lg.k[i]
	}
	if lg.m == 0 {
		return comm, n, 0, nil
	}

	m := lg.m
	gain := func(kiD, totD, ki float64) float64 {
		return kiD/m - gamma*totD*ki/(2*m*m)
	}

	linkW := make([]float64, n)
	seen := make([]bool, n)
	var order []int

	passes := 0
	for passes < maxPasses {
		if err := ctx.Err(); err != nil {
			return nil, 0, 0, err
		}
		passes++
		moved := 0

		for i := 0; i < n; i++ {
			ci := comm[i]
			ki := lg.k[i]

			order = order[:0]
			for _, a := range lg.adj[i] {
				if a.to == i {
					continue
				}
				c := comm[a.to]
				if !seen[c] {
					seen[c] = true
					order = append(order, c)
				}
				linkW[c] += a.w
			}

			tot[ci] -= ki
			best := ci
			bestGain := gain(linkW[ci], tot[ci], ki)
			for _, c := range order {
				if c == ci {
					continue
				}
				if g := gain(linkW[c], tot[c], ki); g > bestGain {
					best = c
					bestGain = g
				}
			}
			tot[best] += ki
			comm[i] = best
			if best != ci {
				moved++
			}

			for _, c := range order {
				seen[c] = false
				linkW[c] = 0
			}
			linkW[ci] = 0
		}

		if moved == 0 {
			break
		}
	}

	count := renumber(comm)
	return comm, count, passes, nil
}

// renumber rewrites community labels as 0..k-1 in order of first appearance
// over the node index and returns k.
func renumber(comm []int) int {
	relabel := make(map[int]int)
	for i, c := range comm {
		id, ok := relabel[c]
		if !ok {
			id = len(relabel)
			relabel[c] = id
		}
		comm[i] = id
	}
	return len(relabel)
}

// aggregate collapses each community into a super-node. Inter-community
// weights are summed; intra-community weight becomes a single self-loop.
// Neighbours of a super-node are listed in super-node order.
func aggregate(lg *levelGraph, comm []int, count int) *levelGraph {
	weights := make([]map[int]float64, count)
	for c := range weights {
		weights[c] = make(map[int]float64)
	}
	for i, arcs := range lg.adj {
		ci := comm[i]
		for _, a := range arcs {
			weights[ci][comm[a.to]] += a.w
		}
	}

	next := newLevelGraph(count)
	for c := 0; c < count; c++ {
		nbrs := make([]int, 0, len(weights[c]))
		for d := range weights[c] {
			nbrs = append(nbrs, d)
		}
		sort.Ints(nbrs)
		for _, d := range nbrs {
			next.addArc(c, d, weights[c][d])
		}
	}
	next.finish()
	return next
}

// modularity computes Q = sum_C [in_C/2m - gamma*(tot_C/2m)^2] where in_C
// sums the adjacency entries inside C (both directions) and tot_C the
// degrees of C.
func modularity(lg *levelGraph, comm []int, count int, gamma float64) float64 {
	if lg.m == 0 {
		return 0
	}
	in := make([]float64, count)
	tot := make([]float64, count)
	for i, arcs := range lg.adj {
		ci := comm[i]
		tot[ci] += lg.k[i]
		for _, a := range arcs {
			if comm[a.to] == ci {
				in[ci] += a.w
			}
		}
	}

	twoM := 2 * lg.m
	q := 0.0
	for c := 0; c < count; c++ {
		q += in[c]/twoM - gamma*(tot[c]/twoM)*(tot[c]/twoM)
	}
	return q
}
