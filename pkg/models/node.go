package models

import "time"

// NodeType selects the behavior of a workflow node. Tags are snake_case on
// the wire to match the visual editor.
type NodeType string

const (
	NodeTypeStart           NodeType = "start"
	NodeTypeEnd             NodeType = "end"
	NodeTypeActivity        NodeType = "activity"
	NodeTypeDecision        NodeType = "decision"
	NodeTypeParallelGateway NodeType = "parallel_gateway"
	NodeTypeParallelJoin    NodeType = "parallel_join"
	NodeTypeWaitTimer       NodeType = "wait_timer"
	NodeTypeWaitSignal      NodeType = "wait_signal"
	NodeTypeSubWorkflow     NodeType = "sub_workflow"
	NodeTypeHTTPCall        NodeType = "http_call"
	NodeTypeDatabaseQuery   NodeType = "database_query"
	NodeTypeTransform       NodeType = "transform"
	NodeTypeNotification    NodeType = "notification"
)

// Position is editor-only layout data, ignored by the compiler.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RetryPolicy configures retries for nodes that perform external work.
// Intervals use Go duration syntax ("5s", "1m").
type RetryPolicy struct {
	MaxAttempts        int     `json:"max_attempts"        validate:"min=1"`
	InitialInterval    string  `json:"initial_interval"    validate:"required"`
	MaxInterval        string  `json:"max_interval"        validate:"required"`
	BackoffCoefficient float64 `json:"backoff_coefficient" validate:"gte=1"`
}

// ParseInitialInterval returns the initial backoff interval.
func (p *RetryPolicy) ParseInitialInterval() (time.Duration, error) {
	return time.ParseDuration(p.InitialInterval)
}

// ParseMaxInterval returns the backoff interval ceiling.
func (p *RetryPolicy) ParseMaxInterval() (time.Duration, error) {
	return time.ParseDuration(p.MaxInterval)
}

// WorkflowNode is one node of the workflow graph. Config carries the
// per-variant payload; the validator decodes it eagerly into the typed
// structures in config.go so nothing downstream sees an untyped blob.
type WorkflowNode struct {
	ID       string         `json:"id"        validate:"required"`
	Type     NodeType       `json:"node_type" validate:"required"`
	Label    string         `json:"label"`
	Config   map[string]any `json:"config"`
	Position Position       `json:"position"`
	Retries  *RetryPolicy   `json:"retries,omitempty"`
}

// IsActivityClass reports whether the node compiles to a work-unit
// invocation and therefore contributes an activity stub.
func (n *WorkflowNode) IsActivityClass() bool {
	switch n.Type {
	case NodeTypeActivity, NodeTypeHTTPCall, NodeTypeDatabaseQuery,
		NodeTypeTransform, NodeTypeNotification:
		return true
	default:
		return false
	}
}

// PerformsExternalWork reports whether a retry policy is meaningful for the
// node's variant.
func (n *WorkflowNode) PerformsExternalWork() bool {
	switch n.Type {
	case NodeTypeActivity, NodeTypeHTTPCall, NodeTypeDatabaseQuery, NodeTypeNotification:
		return true
	default:
		return false
	}
}

// IsControl reports whether the node is pure control flow (no step emitted).
func (n *WorkflowNode) IsControl() bool {
	switch n.Type {
	case NodeTypeStart, NodeTypeEnd, NodeTypeDecision,
		NodeTypeParallelGateway, NodeTypeParallelJoin:
		return true
	default:
		return false
	}
}

// WorkflowEdge transfers control between two nodes. Only edges leaving a
// decision node may carry a condition; a missing condition on a decision
// edge marks the default branch.
type WorkflowEdge struct {
	ID        string  `json:"id"     validate:"required"`
	Source    string  `json:"source" validate:"required"`
	Target    string  `json:"target" validate:"required"`
	Condition *string `json:"condition,omitempty"`
	Label     *string `json:"label,omitempty"`
}

// HasCondition reports whether the edge carries a non-empty condition.
func (e *WorkflowEdge) HasCondition() bool {
	return e.Condition != nil && *e.Condition != ""
}
