package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniroute/workflow-compiler/pkg/models"
)

func sampleDefinition(name string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:    name,
		Version: "1.0.0",
		Nodes: []*models.WorkflowNode{
			{ID: "start", Type: models.NodeTypeStart},
			{ID: "end", Type: models.NodeTypeEnd},
		},
		Edges: []*models.WorkflowEdge{
			{ID: "e1", Source: "start", Target: "end"},
		},
	}
}

func TestKeyIsStable(t *testing.T) {
	t.Parallel()

	first, err := Key(sampleDefinition("Order Approval"))
	require.NoError(t, err)

	second, err := Key(sampleDefinition("Order Approval"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "compiled:")
}

func TestKeyChangesWithDefinition(t *testing.T) {
	t.Parallel()

	first, err := Key(sampleDefinition("Order Approval"))
	require.NoError(t, err)

	second, err := Key(sampleDefinition("Order Rejection"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNoopAlwaysMisses(t *testing.T) {
	t.Parallel()

	store := NewNoop()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "compiled:abc", &models.CompiledWorkflow{}))

	compiled, ok, err := store.Get(ctx, "compiled:abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, compiled)

	assert.NoError(t, store.Close())
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedis("not-a-url", time.Hour)
	assert.Error(t, err)
}
