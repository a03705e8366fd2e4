package compiler

// Post-dominance over the acyclic control-flow graph. The immediate
// post-dominator of a decision or gateway node is the reconvergence point
// of its branches: the nearest node every branch must pass through.
//
// The computation is the standard iterative dominator algorithm run on the
// reverse graph, with a virtual exit node appended after every end node so
// graphs with multiple ends have a single root.

type domInfo struct {
	// ipdom[i] is the immediate post-dominator of node i; the virtual exit
	// is represented by len(nodes).
	ipdom []int
	exit  int
	// pos[i] is the topological position of node i, used to order
	// intersection walks. The virtual exit sorts after everything.
	pos []int
}

// postDominators computes immediate post-dominators. It requires an acyclic
// graph; the validator guarantees that before any builder pass runs.
func postDominators(g *graph, topo []int) *domInfo {
	n := len(g.def.Nodes)
	exit := n

	pos := make([]int, n+1)
	for order, i := range topo {
		pos[i] = order
	}

	pos[exit] = n

	ipdom := make([]int, n+1)
	for i := range ipdom {
		ipdom[i] = -1
	}

	ipdom[exit] = exit

	intersect := func(a, b int) int {
		for a != b {
			for pos[a] < pos[b] {
				a = ipdom[a]
			}

			for pos[b] < pos[a] {
				b = ipdom[b]
			}
		}

		return a
	}

	// Process in reverse topological order so every successor is resolved
	// before its predecessors; one extra sweep confirms the fixed point.
	for changed := true; changed; {
		changed = false

		for k := len(topo) - 1; k >= 0; k-- {
			i := topo[k]

			var candidate int

			if len(g.out[i]) == 0 {
				candidate = exit
			} else {
				candidate = -1

				for _, next := range g.succ(i) {
					if ipdom[next] == -1 {
						continue
					}

					if candidate == -1 {
						candidate = next
					} else {
						candidate = intersect(candidate, next)
					}
				}
			}

			if candidate != -1 && ipdom[i] != candidate {
				ipdom[i] = candidate
				changed = true
			}
		}
	}

	return &domInfo{ipdom: ipdom, exit: exit, pos: pos}
}

// reconvergence returns the node index where the branches leaving i meet
// again, or -1 when they only meet at the program exit (every branch runs
// to its own end node).
func (d *domInfo) reconvergence(i int) int {
	j := d.ipdom[i]
	if j == d.exit {
		return -1
	}

	return j
}
