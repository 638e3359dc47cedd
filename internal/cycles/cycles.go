// Package cycles detects circular dependency groups with Tarjan's strongly
// connected components algorithm.
package cycles

import (
	"ctxmap/internal/graph"
)

// Group is one circular dependency group.
type Group struct {
	ID       int      `json:"id"`
	Members  []string `json:"members"` // DFS discovery order
	SelfLoop bool     `json:"selfLoop,omitempty"`
}

// Result holds the detected groups in emission order.
type Result struct {
	Groups []Group `json:"groups"`

	groupOf map[string]int
}

// CycleOf returns the group containing path.
func (r *Result) CycleOf(path string) (Group, bool) {
	if r.groupOf == nil {
		r.index()
	}
	i, ok := r.groupOf[graph.NormalizePath(path)]
	if !ok {
		return Group{}, false
	}
	return r.Groups[i], true
}

// FilesInCycles returns the number of files that belong to some group.
func (r *Result) FilesInCycles() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Members)
	}
	return n
}

func (r *Result) index() {
	r.groupOf = make(map[string]int)
	for i, g := range r.Groups {
		for _, m := range g.Members {
			r.groupOf[m] = i
		}
	}
}

type frame struct {
	node int
	next int // position in the out-adjacency of node
}

// Detect runs an iterative Tarjan SCC over g. Roots are visited in node
// order and neighbours in adjacency order. Every component with more than
// one member is a group; a singleton is a group only when it has an explicit
// self-edge. Groups are numbered from 1 in emission order.
func Detect(g *graph.Graph) *Result {
	n := g.NumNodes()
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var (
		counter int
		stack   []int
		calls   []frame
		groups  []Group
	)

	for root := 0; root < n; root++ {
		if index[root] >= 0 {
			continue
		}
		calls = append(calls[:0], frame{node: root})
		index[root] = counter
		lowlink[root] = counter
		counter++
		stack = append(stack, root)
		onStack[root] = true

		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			v := top.node
			out := g.Out(v)

			if top.next < len(out) {
				w := out[top.next].Node
				top.next++
				if index[w] < 0 {
					index[w] = counter
					lowlink[w] = counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					calls = append(calls, frame{node: w})
				} else if onStack[w] && index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
				continue
			}

			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].node
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}
			if lowlink[v] != index[v] {
				continue
			}

			// v roots a component; its members sit above it on the stack
			// in discovery order.
			pos := len(stack) - 1
			for stack[pos] != v {
				pos--
			}
			members := stack[pos:]
			stack = stack[:pos]
			for _, m := range members {
				onStack[m] = false
			}

			switch {
			case len(members) > 1:
				groups = append(groups, newGroup(g, len(groups)+1, members, false))
			case g.HasEdgeIdx(v, v):
				groups = append(groups, newGroup(g, len(groups)+1, members, true))
			}
		}
	}

	r := &Result{Groups: groups}
	if r.Groups == nil {
		r.Groups = []Group{}
	}
	r.index()
	return r
}

func newGroup(g *graph.Graph, id int, members []int, selfLoop bool) Group {
	paths := make([]string, len(members))
	for i, m := range members {
		paths[i] = g.Path(m)
	}
	return Group{ID: id, Members: paths, SelfLoop: selfLoop}
}
