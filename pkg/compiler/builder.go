package compiler

import (
	"github.com/omniroute/workflow-compiler/pkg/models"
)

// StructuredProgram is the tree of structured control constructs produced
// from the optimized graph. It is owned by one compile invocation; emitters
// consume it together with the compilation metadata and never look at the
// raw input graph.
type StructuredProgram struct {
	Root *Sequence
	// Steps lists every step in emission order, for metadata assembly.
	Steps []*Step
}

// ProgramNode is one construct of the structured tree.
type ProgramNode interface {
	programNode()
}

// Step is one unit of work: an activity-class invocation, a wait, or a
// child workflow.
type Step struct {
	Node       *models.WorkflowNode
	Identifier string
	// Typed config, populated for the variants that carry one.
	Timer  *models.WaitTimerConfig
	Signal *models.WaitSignalConfig
	Child  *models.SubWorkflowConfig
}

// Sequence is ordered execution of its items.
type Sequence struct {
	Items []ProgramNode
}

// ConditionCase is one conditioned branch of a decision, evaluated in
// declaration order.
type ConditionCase struct {
	Expression string
	EdgeID     string
	Body       *Sequence
}

// Branch maps a decision node. Default covers the unconditioned edge and is
// nil when every outgoing edge carries a condition.
type Branch struct {
	Decision *models.WorkflowNode
	Cases    []ConditionCase
	Default  *Sequence
}

// Fork maps a parallel gateway/join pair: all branches execute
// concurrently and synchronize at the join before control continues.
type Fork struct {
	Gateway  *models.WorkflowNode
	Join     *models.WorkflowNode
	Branches []*Sequence
}

func (*Step) programNode()     {}
func (*Sequence) programNode() {}
func (*Branch) programNode()   {}
func (*Fork) programNode()     {}

// Build converts the optimized graph into a structured program. The graph
// is guaranteed acyclic by validation; shapes that are validly acyclic but
// cannot be expressed as sequence/branch/fork-join are rejected here with a
// codegen failure, at the first unstructurable construct.
func Build(result *OptimizeResult, resolver *IdentifierResolver) (*StructuredProgram, error) {
	def := result.Definition
	g := newGraph(def)

	if g.start == -1 {
		return nil, codegenFailure("", "definition has no start node")
	}

	topo, acyclic := g.topoOrder()
	if !acyclic {
		return nil, codegenFailure("", "graph contains a cycle")
	}

	b := &builder{
		g:        g,
		dom:      postDominators(g, topo),
		resolver: resolver,
		visited:  make([]bool, len(def.Nodes)),
		chains:   make(map[string][]string, len(result.Chains)),
	}

	for _, chain := range result.Chains {
		b.chains[chain[0]] = chain
	}

	root, _, err := b.buildRegion(g.start, -1)
	if err != nil {
		return nil, err
	}

	return &StructuredProgram{Root: root, Steps: b.steps}, nil
}

type builder struct {
	g        *graph
	dom      *domInfo
	resolver *IdentifierResolver
	visited  []bool
	chains   map[string][]string
	steps    []*Step
}

// buildRegion structures the subgraph from node `from` up to (exclusive)
// node `stop`, or to an end node when stop is -1. The second result
// reports whether the walk actually reached stop, which fork handling uses
// to detect branches that escape their join.
func (b *builder) buildRegion(from, stop int) (*Sequence, bool, error) {
	seq := &Sequence{}

	cur := from

	for cur != -1 && cur != stop {
		node := b.g.node(cur)

		if b.visited[cur] {
			return nil, false, codegenFailure(node.ID,
				"node %q is reached by more than one branch; branches must reconverge at a single point", node.ID)
		}

		b.visited[cur] = true

		switch node.Type {
		case models.NodeTypeStart:
			next, err := b.singleSuccessor(cur)
			if err != nil {
				return nil, false, err
			}

			cur = next

		case models.NodeTypeEnd:
			// Each end node terminates its own path of the tree.
			return seq, false, nil

		case models.NodeTypeDecision:
			branch, join, err := b.buildBranch(cur)
			if err != nil {
				return nil, false, err
			}

			seq.Items = append(seq.Items, branch)
			cur = join

		case models.NodeTypeParallelGateway:
			fork, join, err := b.buildFork(cur)
			if err != nil {
				return nil, false, err
			}

			seq.Items = append(seq.Items, fork)

			b.visited[join] = true

			if len(b.g.out[join]) == 0 {
				return nil, false, codegenFailure(b.g.node(join).ID, "parallel join %q has no continuation", b.g.node(join).ID)
			}

			cur = b.g.index[b.g.edge(b.g.out[join][0]).Target]

		case models.NodeTypeParallelJoin:
			return nil, false, codegenFailure(node.ID, "parallel join %q has no matching gateway", node.ID)

		default:
			next, err := b.appendSteps(seq, cur)
			if err != nil {
				return nil, false, err
			}

			cur = next
		}
	}

	return seq, cur == stop && stop != -1, nil
}

// appendSteps emits the step for the node at index cur, following the whole
// fused chain when cur heads one, and returns the index of the next node.
func (b *builder) appendSteps(seq *Sequence, cur int) (int, error) {
	node := b.g.node(cur)

	if chain, ok := b.chains[node.ID]; ok {
		last := cur

		for k, id := range chain {
			i := b.g.index[id]
			if k > 0 {
				b.visited[i] = true
			}

			step, err := b.newStep(b.g.node(i))
			if err != nil {
				return -1, err
			}

			seq.Items = append(seq.Items, step)
			last = i
		}

		return b.singleSuccessor(last)
	}

	step, err := b.newStep(node)
	if err != nil {
		return -1, err
	}

	seq.Items = append(seq.Items, step)

	return b.singleSuccessor(cur)
}

func (b *builder) singleSuccessor(cur int) (int, error) {
	node := b.g.node(cur)

	switch len(b.g.out[cur]) {
	case 0:
		return -1, codegenFailure(node.ID, "node %q has no outgoing edge and is not an end node", node.ID)
	case 1:
		return b.g.index[b.g.edge(b.g.out[cur][0]).Target], nil
	default:
		return -1, codegenFailure(node.ID,
			"node %q has %d outgoing edges but is not a decision or parallel gateway", node.ID, len(b.g.out[cur]))
	}
}

func (b *builder) newStep(node *models.WorkflowNode) (*Step, error) {
	step := &Step{Node: node}

	switch node.Type {
	case models.NodeTypeWaitTimer:
		step.Timer = &models.WaitTimerConfig{}
		if err := models.DecodeConfig(node.Config, step.Timer); err != nil {
			return nil, codegenFailure(node.ID, "wait_timer config: %v", err)
		}
	case models.NodeTypeWaitSignal:
		step.Signal = &models.WaitSignalConfig{}
		if err := models.DecodeConfig(node.Config, step.Signal); err != nil {
			return nil, codegenFailure(node.ID, "wait_signal config: %v", err)
		}
	case models.NodeTypeSubWorkflow:
		step.Child = &models.SubWorkflowConfig{}
		if err := models.DecodeConfig(node.Config, step.Child); err != nil {
			return nil, codegenFailure(node.ID, "sub_workflow config: %v", err)
		}
	default:
		step.Identifier = b.resolver.Resolve(node.Label, node.Type)
	}

	b.steps = append(b.steps, step)

	return step, nil
}

// buildBranch structures a decision node: each outgoing edge becomes a
// conditioned case (or the default), every case built up to the decision's
// reconvergence point. Returns the reconvergence node index, or -1 when
// every branch runs to its own end.
func (b *builder) buildBranch(cur int) (*Branch, int, error) {
	node := b.g.node(cur)
	join := b.dom.reconvergence(cur)

	branch := &Branch{Decision: node}

	for _, ei := range b.g.out[cur] {
		edge := b.g.edge(ei)
		target := b.g.index[edge.Target]

		var body *Sequence

		if target == join {
			body = &Sequence{}
		} else {
			var err error

			body, _, err = b.buildRegion(target, join)
			if err != nil {
				return nil, -1, err
			}
		}

		if edge.HasCondition() {
			branch.Cases = append(branch.Cases, ConditionCase{
				Expression: *edge.Condition,
				EdgeID:     edge.ID,
				Body:       body,
			})
		} else {
			branch.Default = body
		}
	}

	return branch, join, nil
}

// buildFork structures a parallel gateway. Its reconvergence point must be
// a parallel join, and every branch must reach it; anything else is an
// unbalanced fork the target runtime cannot express.
func (b *builder) buildFork(cur int) (*Fork, int, error) {
	node := b.g.node(cur)

	join := b.dom.reconvergence(cur)
	if join == -1 || b.g.node(join).Type != models.NodeTypeParallelJoin {
		return nil, -1, codegenFailure(node.ID, "parallel gateway %q has no matching parallel join", node.ID)
	}

	fork := &Fork{Gateway: node, Join: b.g.node(join)}

	for _, ei := range b.g.out[cur] {
		edge := b.g.edge(ei)
		target := b.g.index[edge.Target]

		if target == join {
			return nil, -1, codegenFailure(node.ID, "parallel gateway %q has an empty branch into its join", node.ID)
		}

		body, reachedJoin, err := b.buildRegion(target, join)
		if err != nil {
			return nil, -1, err
		}

		if !reachedJoin {
			return nil, -1, codegenFailure(node.ID,
				"branch of parallel gateway %q terminates without reaching join %q", node.ID, b.g.node(join).ID)
		}

		fork.Branches = append(fork.Branches, body)
	}

	return fork, join, nil
}
