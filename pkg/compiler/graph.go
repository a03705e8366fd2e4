package compiler

import (
	"github.com/omniroute/workflow-compiler/pkg/models"
)

// graph is an index-based view over a workflow definition. Nodes are
// addressed by their position in def.Nodes and edges by their position in
// def.Edges, so traversals are plain integer operations with no reference
// cycles. It is built once per compile and never mutated.
type graph struct {
	def   *models.WorkflowDefinition
	index map[string]int
	out   [][]int // node index -> outgoing edge indexes, declaration order
	in    [][]int // node index -> incoming edge indexes, declaration order
	start int     // index of the start node, -1 when absent or duplicated
	ends  []int
}

// newGraph indexes the definition. It requires node ids to be unique and
// every edge endpoint to resolve; the validator checks both before any
// graph-dependent pass runs.
func newGraph(def *models.WorkflowDefinition) *graph {
	g := &graph{
		def:   def,
		index: make(map[string]int, len(def.Nodes)),
		out:   make([][]int, len(def.Nodes)),
		in:    make([][]int, len(def.Nodes)),
		start: -1,
	}

	for i, node := range def.Nodes {
		g.index[node.ID] = i

		switch node.Type {
		case models.NodeTypeStart:
			if g.start == -1 {
				g.start = i
			}
		case models.NodeTypeEnd:
			g.ends = append(g.ends, i)
		}
	}

	for ei, edge := range def.Edges {
		src, srcOK := g.index[edge.Source]
		dst, dstOK := g.index[edge.Target]

		if !srcOK || !dstOK {
			continue
		}

		g.out[src] = append(g.out[src], ei)
		g.in[dst] = append(g.in[dst], ei)
	}

	return g
}

func (g *graph) node(i int) *models.WorkflowNode { return g.def.Nodes[i] }

func (g *graph) edge(ei int) *models.WorkflowEdge { return g.def.Edges[ei] }

// succ returns the successor node indexes of i in edge declaration order.
func (g *graph) succ(i int) []int {
	out := make([]int, len(g.out[i]))
	for k, ei := range g.out[i] {
		out[k] = g.index[g.def.Edges[ei].Target]
	}

	return out
}

// pred returns the predecessor node indexes of i in edge declaration order.
func (g *graph) pred(i int) []int {
	in := make([]int, len(g.in[i]))
	for k, ei := range g.in[i] {
		in[k] = g.index[g.def.Edges[ei].Source]
	}

	return in
}

// reachableFrom returns the set of node indexes reachable from root,
// including root itself.
func (g *graph) reachableFrom(root int) []bool {
	seen := make([]bool, len(g.def.Nodes))
	if root < 0 {
		return seen
	}

	stack := []int{root}
	seen[root] = true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range g.succ(cur) {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}

	return seen
}

// reachesEnd returns the set of node indexes from which some end node is
// reachable, computed backwards over the edge set.
func (g *graph) reachesEnd() []bool {
	seen := make([]bool, len(g.def.Nodes))
	stack := make([]int, 0, len(g.ends))

	for _, e := range g.ends {
		seen[e] = true
		stack = append(stack, e)
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, prev := range g.pred(cur) {
			if !seen[prev] {
				seen[prev] = true
				stack = append(stack, prev)
			}
		}
	}

	return seen
}

// topoOrder returns the node indexes in a deterministic topological order
// (lowest declaration index first among ready nodes). The second result is
// false when the graph contains a cycle.
func (g *graph) topoOrder() ([]int, bool) {
	n := len(g.def.Nodes)
	indegree := make([]int, n)

	for i := range g.def.Nodes {
		for _, next := range g.succ(i) {
			indegree[next]++
		}
	}

	order := make([]int, 0, n)
	ready := make([]bool, n)

	for i := range indegree {
		if indegree[i] == 0 {
			ready[i] = true
		}
	}

	for len(order) < n {
		picked := -1

		for i := range n {
			if ready[i] {
				picked = i

				break
			}
		}

		if picked == -1 {
			return nil, false
		}

		ready[picked] = false
		indegree[picked] = -1
		order = append(order, picked)

		for _, next := range g.succ(picked) {
			indegree[next]--
			if indegree[next] == 0 {
				ready[next] = true
			}
		}
	}

	return order, true
}
