package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Typed per-variant node configuration. The validator decodes every node's
// raw config into one of these eagerly, so code generation never touches an
// untyped payload.

// WaitTimerConfig configures a wait_timer node.
type WaitTimerConfig struct {
	Duration string `json:"duration"`
}

// ParseDuration returns the configured duration.
func (c *WaitTimerConfig) ParseDuration() (time.Duration, error) {
	return time.ParseDuration(c.Duration)
}

// WaitSignalConfig configures a wait_signal node.
type WaitSignalConfig struct {
	SignalName string `json:"signal_name"`
}

// SubWorkflowConfig configures a sub_workflow node.
type SubWorkflowConfig struct {
	WorkflowName string `json:"workflow_name"`
}

// HTTPCallConfig configures an http_call node.
type HTTPCallConfig struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// DatabaseQueryConfig configures a database_query node.
type DatabaseQueryConfig struct {
	Query string `json:"query"`
}

// NotificationConfig configures a notification node.
type NotificationConfig struct {
	Channel  string `json:"channel"`
	Template string `json:"template"`
}

// TransformConfig configures a transform node.
type TransformConfig struct {
	Expression string `json:"expression"`
}

// configSchemas holds the JSON Schema for each variant that requires
// configuration. Variants absent from the map accept any (or no) config.
var configSchemas = map[NodeType]map[string]any{
	NodeTypeWaitTimer: {
		"type":     "object",
		"required": []any{"duration"},
		"properties": map[string]any{
			"duration": map[string]any{"type": "string", "minLength": 1},
		},
	},
	NodeTypeWaitSignal: {
		"type":     "object",
		"required": []any{"signal_name"},
		"properties": map[string]any{
			"signal_name": map[string]any{"type": "string", "minLength": 1},
		},
	},
	NodeTypeSubWorkflow: {
		"type":     "object",
		"required": []any{"workflow_name"},
		"properties": map[string]any{
			"workflow_name": map[string]any{"type": "string", "minLength": 1},
		},
	},
	NodeTypeHTTPCall: {
		"type":     "object",
		"required": []any{"url"},
		"properties": map[string]any{
			"url":    map[string]any{"type": "string", "minLength": 1},
			"method": map[string]any{"type": "string"},
		},
	},
	NodeTypeDatabaseQuery: {
		"type":     "object",
		"required": []any{"query"},
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "minLength": 1},
		},
	},
	NodeTypeNotification: {
		"type":     "object",
		"required": []any{"channel"},
		"properties": map[string]any{
			"channel":  map[string]any{"type": "string", "minLength": 1},
			"template": map[string]any{"type": "string"},
		},
	},
}

// ConfigSchema returns the JSON Schema for a node variant, or nil when the
// variant takes no required configuration.
func ConfigSchema(t NodeType) map[string]any {
	return configSchemas[t]
}

// DecodeConfig decodes a raw config map into the typed structure out via a
// JSON round trip.
func DecodeConfig(config map[string]any, out any) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	return nil
}
