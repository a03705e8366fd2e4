// Package compiler implements the compile pipeline that turns a visual
// workflow definition into generated Temporal Go source: structural
// validation, graph optimization, control-flow structuring, and code
// generation.
package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies a compile failure. Every kind is caused by the
// submitted definition and is recoverable by editing the graph.
type FailureKind string

const (
	// FailureValidation covers structural problems found by the validator.
	FailureValidation FailureKind = "validation_error"
	// FailureConfig covers malformed per-variant config payloads.
	FailureConfig FailureKind = "config_error"
	// FailureCycle is reported when the control-flow graph contains a cycle.
	FailureCycle FailureKind = "cycle_detected"
	// FailureCodeGen is reported when a validly acyclic graph cannot be
	// expressed as structured control flow.
	FailureCodeGen FailureKind = "codegen_error"
)

// Failure is one compile problem, tied to the offending node or edge when
// one can be named.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	NodeID  string      `json:"node_id,omitempty"`
	EdgeID  string      `json:"edge_id,omitempty"`
}

func (f Failure) Error() string {
	switch {
	case f.NodeID != "":
		return fmt.Sprintf("%s: %s (node %s)", f.Kind, f.Message, f.NodeID)
	case f.EdgeID != "":
		return fmt.Sprintf("%s: %s (edge %s)", f.Kind, f.Message, f.EdgeID)
	default:
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
}

// Failures accumulates every problem found in one pass so a single call
// reports all of them at once.
type Failures []Failure

func (fs Failures) Error() string {
	msgs := make([]string, len(fs))
	for i, f := range fs {
		msgs[i] = f.Error()
	}

	return strings.Join(msgs, "; ")
}

// Messages returns the human-readable message list surfaced on the wire.
func (fs Failures) Messages() []string {
	msgs := make([]string, len(fs))
	for i, f := range fs {
		msgs[i] = f.Error()
	}

	return msgs
}

func validationFailure(nodeID, format string, args ...any) Failure {
	return Failure{Kind: FailureValidation, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

func configFailure(nodeID, format string, args ...any) Failure {
	return Failure{Kind: FailureConfig, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

func cycleFailure(edgeID, format string, args ...any) Failure {
	return Failure{Kind: FailureCycle, EdgeID: edgeID, Message: fmt.Sprintf(format, args...)}
}

func codegenFailure(nodeID, format string, args ...any) Failure {
	return Failure{Kind: FailureCodeGen, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

// IsCodeGenError reports whether err carries a codegen failure.
func IsCodeGenError(err error) bool {
	var f Failure
	if errors.As(err, &f) {
		return f.Kind == FailureCodeGen
	}

	var fs Failures
	if errors.As(err, &fs) {
		for _, f := range fs {
			if f.Kind == FailureCodeGen {
				return true
			}
		}
	}

	return false
}

// IsCycleDetected reports whether err carries a cycle failure.
func IsCycleDetected(err error) bool {
	var f Failure
	if errors.As(err, &f) {
		return f.Kind == FailureCycle
	}

	var fs Failures
	if errors.As(err, &fs) {
		for _, f := range fs {
			if f.Kind == FailureCycle {
				return true
			}
		}
	}

	return false
}
