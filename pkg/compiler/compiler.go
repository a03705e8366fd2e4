package compiler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/omniroute/workflow-compiler/pkg/log"
	"github.com/omniroute/workflow-compiler/pkg/models"
)

// Renderer produces the four source artifacts from a structured program.
// The concrete implementation lives in pkg/codegen.
type Renderer interface {
	Workflow(prog *StructuredProgram, def *models.WorkflowDefinition, meta models.CompilationMetadata) (string, error)
	Activities(meta models.CompilationMetadata) (string, error)
	Worker(meta models.CompilationMetadata) (string, error)
	Test(meta models.CompilationMetadata) (string, error)
}

// Compiler runs the full pipeline: validate, optimize, structure, render.
// It holds no per-request state and is safe for concurrent use.
type Compiler struct {
	renderer Renderer
	logger   *slog.Logger
}

// New creates a compiler around the given renderer.
func New(renderer Renderer) *Compiler {
	return &Compiler{
		renderer: renderer,
		logger:   log.WithModule("compiler"),
	}
}

// ValidateOnly runs structural validation without generating any code.
// An empty result means the definition is compilable.
func (c *Compiler) ValidateOnly(ctx context.Context, def *models.WorkflowDefinition) Failures {
	failures := Validate(def)

	c.logger.DebugContext(ctx, "workflow validated",
		"workflow", def.Name,
		"failures", len(failures))

	return failures
}

// Compile turns a workflow definition into the four generated artifacts.
// Either every artifact is produced or none are; on failure the returned
// list carries every problem found in the failing phase.
func (c *Compiler) Compile(ctx context.Context, def *models.WorkflowDefinition) (*models.CompiledWorkflow, Failures) {
	if failures := Validate(def); len(failures) > 0 {
		c.logger.InfoContext(ctx, "workflow rejected",
			"workflow", def.Name,
			"failures", len(failures))

		return nil, failures
	}

	optimized := Optimize(def)

	prog, err := Build(optimized, NewIdentifierResolver())
	if err != nil {
		c.logger.InfoContext(ctx, "workflow not structurable",
			"workflow", def.Name,
			"error", err)

		return nil, asFailures(err)
	}

	meta := buildMetadata(optimized.Definition, prog)

	workflowCode, err := c.renderer.Workflow(prog, optimized.Definition, meta)
	if err != nil {
		return nil, asFailures(err)
	}

	activityCode, err := c.renderer.Activities(meta)
	if err != nil {
		return nil, asFailures(err)
	}

	workerCode, err := c.renderer.Worker(meta)
	if err != nil {
		return nil, asFailures(err)
	}

	testCode, err := c.renderer.Test(meta)
	if err != nil {
		return nil, asFailures(err)
	}

	c.logger.InfoContext(ctx, "workflow compiled",
		"workflow", meta.WorkflowName,
		"package", meta.PackageName,
		"activities", len(meta.Activities),
		"complexity", meta.EstimatedComplexity)

	return &models.CompiledWorkflow{
		WorkflowCode: workflowCode,
		ActivityCode: activityCode,
		WorkerCode:   workerCode,
		TestCode:     testCode,
		Metadata:     meta,
	}, nil
}

// buildMetadata derives the compile summary from the optimized definition
// and the structured program. Activity identifiers are deduplicated in
// first-appearance order; complexity counts every node except the start.
func buildMetadata(def *models.WorkflowDefinition, prog *StructuredProgram) models.CompilationMetadata {
	workflowName := PascalCase(def.Name)
	if workflowName == "" {
		workflowName = "Workflow"
	}

	packageName := SnakeCase(def.Name)
	if packageName == "" {
		packageName = "workflow"
	}

	activities := make([]string, 0, len(prog.Steps))
	seen := make(map[string]struct{}, len(prog.Steps))

	var signals []string

	for _, step := range prog.Steps {
		switch {
		case step.Node.IsActivityClass():
			if _, dup := seen[step.Identifier]; dup {
				continue
			}

			seen[step.Identifier] = struct{}{}

			activities = append(activities, step.Identifier)
		case step.Signal != nil:
			signals = appendUnique(signals, step.Signal.SignalName)
		}
	}

	if signals == nil {
		signals = []string{}
	}

	complexity := len(def.Nodes)

	for _, node := range def.Nodes {
		if node.Type == models.NodeTypeStart {
			complexity--
		}
	}

	return models.CompilationMetadata{
		WorkflowName:        workflowName,
		PackageName:         packageName,
		Activities:          activities,
		Signals:             signals,
		Queries:             []string{},
		EstimatedComplexity: complexity,
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}

	return append(list, v)
}

func asFailures(err error) Failures {
	var fs Failures
	if errors.As(err, &fs) {
		return fs
	}

	var f Failure
	if errors.As(err, &f) {
		return Failures{f}
	}

	return Failures{codegenFailure("", "%v", err)}
}
