// Package codegen renders the structured program into the four Temporal
// source artifacts: workflow logic, activity stubs, worker bootstrap, and a
// replay test. All output is deterministic: the same definition always
// renders byte-identical artifacts.
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/omniroute/workflow-compiler/pkg/compiler"
	"github.com/omniroute/workflow-compiler/pkg/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer holds the parsed code templates. Construct it once at startup;
// a template that fails to parse is a packaging defect, not a per-request
// condition.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing code templates: %w", err)
	}

	return &Renderer{templates: templates}, nil
}

type workflowData struct {
	PackageName    string
	WorkflowName   string
	Description    string
	Imports        string
	Defaults       []variableDefault
	Body           string
	UsesConditions bool
}

type variableDefault struct {
	Name    string
	Literal string
}

type artifactData struct {
	PackageName  string
	WorkflowName string
	Activities   []string
	Signals      []string
}

// Workflow renders the workflow logic artifact.
func (r *Renderer) Workflow(prog *compiler.StructuredProgram, def *models.WorkflowDefinition, meta models.CompilationMetadata) (string, error) {
	body := &bodyRenderer{indent: 1}
	body.renderSequence(prog.Root, returnFail)

	return r.render("workflow.go.tmpl", workflowData{
		PackageName:    meta.PackageName,
		WorkflowName:   meta.WorkflowName,
		Description:    def.Description,
		Imports:        workflowImports(body),
		Defaults:       variableDefaults(def.Variables),
		Body:           strings.TrimRight(body.out.String(), "\n"),
		UsesConditions: body.usesConds,
	})
}

// Activities renders one stub per distinct activity identifier.
func (r *Renderer) Activities(meta models.CompilationMetadata) (string, error) {
	return r.render("activities.go.tmpl", artifactData{
		PackageName: meta.PackageName,
		Activities:  meta.Activities,
	})
}

// Worker renders the worker bootstrap artifact.
func (r *Renderer) Worker(meta models.CompilationMetadata) (string, error) {
	return r.render("worker.go.tmpl", artifactData{
		PackageName:  meta.PackageName,
		WorkflowName: meta.WorkflowName,
		Activities:   meta.Activities,
	})
}

// Test renders the replay test artifact.
func (r *Renderer) Test(meta models.CompilationMetadata) (string, error) {
	return r.render("workflow_test.go.tmpl", artifactData{
		PackageName:  meta.PackageName,
		WorkflowName: meta.WorkflowName,
		Activities:   meta.Activities,
		Signals:      meta.Signals,
	})
}

func (r *Renderer) render(name string, data any) (string, error) {
	var buf bytes.Buffer

	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}

	return buf.String(), nil
}

func workflowImports(body *bodyRenderer) string {
	var std []string

	if body.usesConds {
		std = append(std, "fmt", "strconv", "strings")
	}

	if body.usesTime {
		std = append(std, "time")
	}

	third := []string{}
	if body.usesRetry {
		third = append(third, "go.temporal.io/sdk/temporal")
	}

	third = append(third, "go.temporal.io/sdk/workflow")

	var b strings.Builder

	b.WriteString("import (\n")

	for _, path := range std {
		fmt.Fprintf(&b, "\t%q\n", path)
	}

	if len(std) > 0 {
		b.WriteString("\n")
	}

	for _, path := range third {
		fmt.Fprintf(&b, "\t%q\n", path)
	}

	b.WriteString(")")

	return b.String()
}

func variableDefaults(vars []*models.Variable) []variableDefault {
	var defaults []variableDefault

	for _, v := range vars {
		if v.DefaultValue == nil {
			continue
		}

		defaults = append(defaults, variableDefault{
			Name:    v.Name,
			Literal: goLiteral(v.DefaultValue),
		})
	}

	return defaults
}

// goLiteral renders a decoded JSON value as a Go expression. Map keys are
// sorted so the output is stable across compiles.
func goLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = goLiteral(item)
		}

		return "[]any{" + strings.Join(parts, ", ") + "}"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + goLiteral(t[k])
		}

		return "map[string]any{" + strings.Join(parts, ", ") + "}"
	default:
		return "nil"
	}
}
