package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniroute/workflow-compiler/pkg/models"
)

func TestOptimizeRemovesDeadNodes(t *testing.T) {
	t.Parallel()

	def := linearDefinition()
	def.Nodes = append(def.Nodes,
		node("orphan", models.NodeTypeActivity, "Orphan"),
		node("sink", models.NodeTypeActivity, "Sink"),
		node("sink2", models.NodeTypeActivity, "Deeper Sink"),
	)
	// sink is reachable from start but never reaches an end node; sink2
	// becomes dead once sink is removed.
	def.Edges = append(def.Edges,
		flowEdge("e3", "send", "sink"),
		flowEdge("e4", "sink", "sink2"),
	)

	result := Optimize(def)

	ids := make([]string, 0, len(result.Definition.Nodes))
	for _, n := range result.Definition.Nodes {
		ids = append(ids, n.ID)
	}

	assert.Equal(t, []string{"start", "send", "end"}, ids)
	assert.Len(t, result.Definition.Edges, 2)

	// The input definition is never mutated.
	assert.Len(t, def.Nodes, 6)
	assert.Len(t, def.Edges, 4)
}

func TestOptimizeKeepsLiveGraphIntact(t *testing.T) {
	t.Parallel()

	def := approvalDefinition()

	result := Optimize(def)

	assert.Equal(t, def.Nodes, result.Definition.Nodes)
	assert.Equal(t, def.Edges, result.Definition.Edges)
}

func TestOptimizeFusesTrivialChains(t *testing.T) {
	t.Parallel()

	def := definition("Chained",
		[]*models.WorkflowNode{
			node("start", models.NodeTypeStart, "Start"),
			node("a", models.NodeTypeActivity, "First"),
			node("b", models.NodeTypeActivity, "Second"),
			node("c", models.NodeTypeActivity, "Third"),
			node("end", models.NodeTypeEnd, "End"),
		},
		[]*models.WorkflowEdge{
			flowEdge("e1", "start", "a"),
			flowEdge("e2", "a", "b"),
			flowEdge("e3", "b", "c"),
			flowEdge("e4", "c", "end"),
		})

	result := Optimize(def)

	require.Len(t, result.Chains, 1)
	assert.Equal(t, []string{"a", "b", "c"}, result.Chains[0])
}

func TestOptimizeChainsStopAtControlNodes(t *testing.T) {
	t.Parallel()

	// Branch bodies are single activities, so no chain reaches length 2.
	result := Optimize(approvalDefinition())

	assert.Empty(t, result.Chains)
}

func TestOptimizeChainsExcludeWaits(t *testing.T) {
	t.Parallel()

	def := definition("Interrupted",
		[]*models.WorkflowNode{
			node("start", models.NodeTypeStart, "Start"),
			node("a", models.NodeTypeActivity, "First"),
			node("b", models.NodeTypeActivity, "Second"),
			configNode("wait", models.NodeTypeWaitTimer, "Cool Down", map[string]any{"duration": "5s"}),
			node("c", models.NodeTypeActivity, "Third"),
			node("d", models.NodeTypeActivity, "Fourth"),
			node("end", models.NodeTypeEnd, "End"),
		},
		[]*models.WorkflowEdge{
			flowEdge("e1", "start", "a"),
			flowEdge("e2", "a", "b"),
			flowEdge("e3", "b", "wait"),
			flowEdge("e4", "wait", "c"),
			flowEdge("e5", "c", "d"),
			flowEdge("e6", "d", "end"),
		})

	result := Optimize(def)

	require.Len(t, result.Chains, 2)
	assert.Equal(t, []string{"a", "b"}, result.Chains[0])
	assert.Equal(t, []string{"c", "d"}, result.Chains[1])
}

func TestOptimizeIsDeterministic(t *testing.T) {
	t.Parallel()

	def := approvalDefinition()
	def.Nodes = append(def.Nodes, node("orphan", models.NodeTypeActivity, "Orphan"))

	first := Optimize(def)
	second := Optimize(def)

	assert.Equal(t, first.Definition, second.Definition)
	assert.Equal(t, first.Chains, second.Chains)
}
