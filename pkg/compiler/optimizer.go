package compiler

import (
	"github.com/omniroute/workflow-compiler/pkg/models"
)

// OptimizeResult is the canonical definition plus structuring hints. The
// hints carry no semantics of their own; they only let the builder treat a
// fused run as one linear unit.
type OptimizeResult struct {
	Definition *models.WorkflowDefinition
	// Chains lists maximal runs of trivially sequential nodes (single in,
	// single out, no condition targeting them), in execution order.
	Chains [][]string
}

// Optimize rewrites a validated definition into its canonical minimal form:
// dead nodes (unreachable from start, or unable to reach an end) are
// removed together with their incident edges, and trivial linear chains are
// marked for the builder. The input is never mutated; node and edge order
// follow the original declaration order so repeated compiles are
// byte-identical.
func Optimize(def *models.WorkflowDefinition) *OptimizeResult {
	current := def

	for {
		next, changed := removeDeadNodes(current)
		if !changed {
			current = next

			break
		}

		current = next
	}

	return &OptimizeResult{
		Definition: current,
		Chains:     fuseChains(current),
	}
}

// removeDeadNodes drops every node that is not on some start-to-end path.
// Removing such nodes can never change observable behavior: they were
// already excluded from every live execution.
func removeDeadNodes(def *models.WorkflowDefinition) (*models.WorkflowDefinition, bool) {
	g := newGraph(def)

	forward := g.reachableFrom(g.start)
	backward := g.reachesEnd()

	live := make(map[string]struct{}, len(def.Nodes))
	nodes := make([]*models.WorkflowNode, 0, len(def.Nodes))

	for i, node := range def.Nodes {
		if forward[i] && backward[i] {
			live[node.ID] = struct{}{}

			nodes = append(nodes, node)
		}
	}

	edges := make([]*models.WorkflowEdge, 0, len(def.Edges))

	for _, edge := range def.Edges {
		_, srcLive := live[edge.Source]
		_, dstLive := live[edge.Target]

		if srcLive && dstLive {
			edges = append(edges, edge)
		}
	}

	changed := len(nodes) != len(def.Nodes) || len(edges) != len(def.Edges)
	if !changed {
		return def, false
	}

	optimized := *def
	optimized.Nodes = nodes
	optimized.Edges = edges

	return &optimized, true
}

// fuseChains finds maximal runs of nodes each with exactly one incoming and
// one outgoing edge that emit plain steps. Runs never extend across
// decision, fork, join, or wait boundaries, and never include a node
// entered through a conditioned edge.
func fuseChains(def *models.WorkflowDefinition) [][]string {
	g := newGraph(def)

	fusable := make([]bool, len(def.Nodes))

	for i, node := range def.Nodes {
		if !node.IsActivityClass() {
			continue
		}

		if len(g.in[i]) != 1 || len(g.out[i]) != 1 {
			continue
		}

		if g.edge(g.in[i][0]).HasCondition() {
			continue
		}

		fusable[i] = true
	}

	inChain := make([]bool, len(def.Nodes))

	var chains [][]string

	for i := range def.Nodes {
		if !fusable[i] || inChain[i] {
			continue
		}

		// Walk back to the head of this run.
		head := i

		for {
			prev := g.pred(head)[0]
			if !fusable[prev] {
				break
			}

			head = prev
		}

		var chain []string

		for cur := head; fusable[cur] && !inChain[cur]; {
			inChain[cur] = true
			chain = append(chain, g.node(cur).ID)

			next := g.succ(cur)[0]
			if !fusable[next] {
				break
			}

			cur = next
		}

		if len(chain) >= 2 {
			chains = append(chains, chain)
		}
	}

	return chains
}
