// Package models defines the workflow definition graph exchanged with the
// visual editor and the compiled artifacts returned to it. Field names and
// enumerated tags are part of the wire contract and must stay stable.
package models

import (
	"github.com/google/uuid"
)

// WorkflowDefinition is the immutable input to one compile invocation.
type WorkflowDefinition struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"                  validate:"required,min=3"`
	Version     string          `json:"version"               validate:"required"`
	Description string          `json:"description,omitempty"`
	Nodes       []*WorkflowNode `json:"nodes"                 validate:"required,min=1,dive"`
	Edges       []*WorkflowEdge `json:"edges"                 validate:"dive"`
	Variables   []*Variable     `json:"variables"             validate:"dive"`
	Triggers    []*Trigger      `json:"triggers"              validate:"dive"`
}

// Variable declares a workflow variable that condition expressions and
// generated workflow inputs may reference.
type Variable struct {
	Name         string `json:"name"     validate:"required"`
	Type         string `json:"var_type" validate:"required,oneof=string number boolean object array"`
	DefaultValue any    `json:"default_value,omitempty"`
}

// TriggerType identifies how a workflow run is started.
type TriggerType string

const (
	TriggerTypeManual   TriggerType = "manual"
	TriggerTypeSchedule TriggerType = "schedule"
	TriggerTypeWebhook  TriggerType = "webhook"
	TriggerTypeEvent    TriggerType = "event"
)

// Trigger attaches a start condition to a workflow. The compiler validates
// trigger configuration but generates no code from it; runtime wiring of
// triggers belongs to the host platform.
type Trigger struct {
	Type   TriggerType    `json:"trigger_type" validate:"required,oneof=manual schedule webhook event"`
	Config map[string]any `json:"config"`
}

// VariableNames returns the set of declared variable names.
func (d *WorkflowDefinition) VariableNames() map[string]struct{} {
	names := make(map[string]struct{}, len(d.Variables))
	for _, v := range d.Variables {
		names[v.Name] = struct{}{}
	}

	return names
}

// NodeByID returns the node with the given id, or nil.
func (d *WorkflowDefinition) NodeByID(id string) *WorkflowNode {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}
