// Package web provides the HTTP request and response types and handlers of
// the workflow compiler API.
package web

import "github.com/omniroute/workflow-compiler/pkg/models"

// CompileRequest is the body of POST /api/v1/compile.
type CompileRequest struct {
	Workflow *models.WorkflowDefinition `json:"workflow" validate:"required"`
}

// CompileResponse reports the outcome of a compile call. Compile problems
// are data, not transport errors: the response is 200 with Success false
// and the accumulated messages.
type CompileResponse struct {
	Success  bool                     `json:"success"`
	Compiled *models.CompiledWorkflow `json:"compiled,omitempty"`
	Error    *string                  `json:"error,omitempty"`
	Errors   []string                 `json:"errors,omitempty"`
}

// ValidateRequest is the body of POST /api/v1/validate.
type ValidateRequest struct {
	Workflow *models.WorkflowDefinition `json:"workflow" validate:"required"`
}

// ValidateResponse reports every problem found in the definition. Errors is
// always present, empty when the definition is compilable.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
