package codegen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniroute/workflow-compiler/pkg/compiler"
	"github.com/omniroute/workflow-compiler/pkg/models"
)

func node(id string, nodeType models.NodeType, label string) *models.WorkflowNode {
	return &models.WorkflowNode{ID: id, Type: nodeType, Label: label}
}

func configNode(id string, nodeType models.NodeType, label string, config map[string]any) *models.WorkflowNode {
	return &models.WorkflowNode{ID: id, Type: nodeType, Label: label, Config: config}
}

func flowEdge(id, source, target string) *models.WorkflowEdge {
	return &models.WorkflowEdge{ID: id, Source: source, Target: target}
}

func condEdge(id, source, target, condition string) *models.WorkflowEdge {
	return &models.WorkflowEdge{ID: id, Source: source, Target: target, Condition: &condition}
}

// approvalDefinition is a start -> activity -> decision -> two activities ->
// end flow with one declared variable.
func approvalDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:    "Order Approval",
		Version: "1.0.0",
		Nodes: []*models.WorkflowNode{
			node("start", models.NodeTypeStart, "Start"),
			node("send", models.NodeTypeActivity, "Send Email"),
			node("check", models.NodeTypeDecision, "Check Amount"),
			node("escalate", models.NodeTypeActivity, "Escalate"),
			node("approve", models.NodeTypeActivity, "Approve"),
			node("end", models.NodeTypeEnd, "End"),
		},
		Edges: []*models.WorkflowEdge{
			flowEdge("e1", "start", "send"),
			flowEdge("e2", "send", "check"),
			condEdge("e3", "check", "escalate", "amount > 100"),
			flowEdge("e4", "check", "approve"),
			flowEdge("e5", "escalate", "end"),
			flowEdge("e6", "approve", "end"),
		},
		Variables: []*models.Variable{
			{Name: "amount", Type: "number", DefaultValue: float64(0)},
		},
	}
}

func compile(t *testing.T, def *models.WorkflowDefinition) *models.CompiledWorkflow {
	t.Helper()

	renderer, err := NewRenderer()
	require.NoError(t, err)

	compiled, failures := compiler.New(renderer).Compile(context.Background(), def)
	require.Empty(t, failures)
	require.NotNil(t, compiled)

	return compiled
}

func TestNewRendererParsesTemplates(t *testing.T) {
	t.Parallel()

	_, err := NewRenderer()
	assert.NoError(t, err)
}

func TestRenderedWorkflowCode(t *testing.T) {
	t.Parallel()

	compiled := compile(t, approvalDefinition())
	code := compiled.WorkflowCode

	assert.Contains(t, code, "package order_approval")
	assert.Contains(t, code, "func OrderApproval(ctx workflow.Context, input OrderApprovalInput) (*OrderApprovalResult, error)")
	assert.Contains(t, code, `"go.temporal.io/sdk/workflow"`)
	assert.Contains(t, code, "workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, opts), SendEmailActivity, vars)")
	assert.Contains(t, code, `if evalCondition(vars, "amount > 100") {`)
	assert.Contains(t, code, "} else {")
	assert.Contains(t, code, "EscalateActivity")
	assert.Contains(t, code, "ApproveActivity")
	assert.Contains(t, code, "func evalCondition(vars map[string]any, expr string) bool")
	assert.Contains(t, code, `vars["amount"] = 0`)
	assert.Contains(t, code, "// Code generated by the OmniRoute workflow compiler. DO NOT EDIT.")
}

func TestRenderedActivityStubs(t *testing.T) {
	t.Parallel()

	compiled := compile(t, approvalDefinition())
	code := compiled.ActivityCode

	assert.Contains(t, code, "package order_approval")
	assert.Contains(t, code, "func SendEmailActivity(ctx context.Context, vars map[string]any) (map[string]any, error)")
	assert.Contains(t, code, "func EscalateActivity(ctx context.Context, vars map[string]any) (map[string]any, error)")
	assert.Contains(t, code, "func ApproveActivity(ctx context.Context, vars map[string]any) (map[string]any, error)")
}

func TestRenderedWorkerBootstrap(t *testing.T) {
	t.Parallel()

	compiled := compile(t, approvalDefinition())
	code := compiled.WorkerCode

	assert.Contains(t, code, `const TaskQueue = "order_approval-task-queue"`)
	assert.Contains(t, code, "w.RegisterWorkflow(OrderApproval)")
	assert.Contains(t, code, "w.RegisterActivity(SendEmailActivity)")
	assert.Contains(t, code, "w.RegisterActivity(EscalateActivity)")
	assert.Contains(t, code, "w.RegisterActivity(ApproveActivity)")
}

func TestRenderedTestHarness(t *testing.T) {
	t.Parallel()

	compiled := compile(t, approvalDefinition())
	code := compiled.TestCode

	assert.Contains(t, code, "func TestOrderApproval(t *testing.T)")
	assert.Contains(t, code, "env.OnActivity(SendEmailActivity, mock.Anything, mock.Anything)")
	assert.Contains(t, code, "env.ExecuteWorkflow(OrderApproval, OrderApprovalInput{Vars: map[string]any{}})")
	assert.Contains(t, code, "require.NoError(t, env.GetWorkflowError())")
}

func TestCompileIsByteIdentical(t *testing.T) {
	t.Parallel()

	first := compile(t, approvalDefinition())
	second := compile(t, approvalDefinition())

	assert.Equal(t, first.WorkflowCode, second.WorkflowCode)
	assert.Equal(t, first.ActivityCode, second.ActivityCode)
	assert.Equal(t, first.WorkerCode, second.WorkerCode)
	assert.Equal(t, first.TestCode, second.TestCode)
	assert.Equal(t, first.Metadata, second.Metadata)
}

func TestRenderedWaitsAndChildWorkflow(t *testing.T) {
	t.Parallel()

	def := &models.WorkflowDefinition{
		Name:    "Fulfillment Gate",
		Version: "1.0.0",
		Nodes: []*models.WorkflowNode{
			node("start", models.NodeTypeStart, "Start"),
			configNode("timer", models.NodeTypeWaitTimer, "Cool Down", map[string]any{"duration": "30s"}),
			configNode("signal", models.NodeTypeWaitSignal, "Wait Approval", map[string]any{"signal_name": "approval"}),
			configNode("child", models.NodeTypeSubWorkflow, "Fulfillment", map[string]any{"workflow_name": "Fulfillment"}),
			node("end", models.NodeTypeEnd, "End"),
		},
		Edges: []*models.WorkflowEdge{
			flowEdge("e1", "start", "timer"),
			flowEdge("e2", "timer", "signal"),
			flowEdge("e3", "signal", "child"),
			flowEdge("e4", "child", "end"),
		},
	}

	compiled := compile(t, def)

	assert.Contains(t, compiled.WorkflowCode, "workflow.Sleep(ctx, 30 * time.Second)")
	assert.Contains(t, compiled.WorkflowCode, `workflow.GetSignalChannel(ctx, "approval").Receive(ctx, &signal)`)
	assert.Contains(t, compiled.WorkflowCode, `workflow.ExecuteChildWorkflow(ctx, "Fulfillment", vars)`)
	assert.Contains(t, compiled.WorkflowCode, `"time"`)

	assert.Equal(t, []string{"approval"}, compiled.Metadata.Signals)
	assert.Contains(t, compiled.TestCode, `env.SignalWorkflow("approval", nil)`)
	assert.Contains(t, compiled.TestCode, "env.RegisterDelayedCallback(func() {")
}

func TestRenderedFork(t *testing.T) {
	t.Parallel()

	def := &models.WorkflowDefinition{
		Name:    "Checkout",
		Version: "1.0.0",
		Nodes: []*models.WorkflowNode{
			node("start", models.NodeTypeStart, "Start"),
			node("fork", models.NodeTypeParallelGateway, "Fork"),
			node("charge", models.NodeTypeActivity, "Charge Card"),
			node("reserve", models.NodeTypeActivity, "Reserve Stock"),
			node("join", models.NodeTypeParallelJoin, "Join"),
			configNode("notify", models.NodeTypeNotification, "Notify Customer", map[string]any{"channel": "email"}),
			node("end", models.NodeTypeEnd, "End"),
		},
		Edges: []*models.WorkflowEdge{
			flowEdge("e1", "start", "fork"),
			flowEdge("e2", "fork", "charge"),
			flowEdge("e3", "fork", "reserve"),
			flowEdge("e4", "charge", "join"),
			flowEdge("e5", "reserve", "join"),
			flowEdge("e6", "join", "notify"),
			flowEdge("e7", "notify", "end"),
		},
	}

	compiled := compile(t, def)
	code := compiled.WorkflowCode

	assert.Contains(t, code, "wg1 := workflow.NewWaitGroup(ctx)")
	assert.Contains(t, code, "wg1.Add(2)")
	assert.Contains(t, code, "workflow.Go(ctx, func(ctx workflow.Context) {")
	assert.Contains(t, code, "var branchErr1 error")
	assert.Contains(t, code, "var branchErr2 error")
	assert.Contains(t, code, "wg1.Wait(ctx)")
	assert.Contains(t, code, "if branchErr1 != nil {")
	assert.Contains(t, code, "return nil, branchErr1")
}

func TestRenderedRetryPolicy(t *testing.T) {
	t.Parallel()

	def := approvalDefinition()
	def.Nodes[1].Retries = &models.RetryPolicy{
		MaxAttempts:        3,
		InitialInterval:    "1s",
		MaxInterval:        "1m",
		BackoffCoefficient: 2,
	}

	compiled := compile(t, def)
	code := compiled.WorkflowCode

	assert.Contains(t, code, "RetryPolicy: &temporal.RetryPolicy{")
	assert.Contains(t, code, "InitialInterval:    1 * time.Second,")
	assert.Contains(t, code, "BackoffCoefficient: 2,")
	assert.Contains(t, code, "MaximumInterval:    1 * time.Minute,")
	assert.Contains(t, code, "MaximumAttempts:    3,")
	assert.Contains(t, code, `"go.temporal.io/sdk/temporal"`)
}

func TestGoDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       time.Duration
		expected string
	}{
		{2 * time.Hour, "2 * time.Hour"},
		{90 * time.Second, "90 * time.Second"},
		{time.Minute, "1 * time.Minute"},
		{250 * time.Millisecond, "250 * time.Millisecond"},
		{0, "0 * time.Hour"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, goDuration(tt.in))
		})
	}
}

func TestGoLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       any
		expected string
	}{
		{"string", "high", `"high"`},
		{"bool", true, "true"},
		{"number", float64(42), "42"},
		{"array", []any{float64(1), "two"}, `[]any{1, "two"}`},
		{"object keys sorted", map[string]any{"b": float64(2), "a": float64(1)}, `map[string]any{"a": 1, "b": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, goLiteral(tt.in))
		})
	}
}
