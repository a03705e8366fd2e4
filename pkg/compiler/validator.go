package compiler

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/robfig/cron/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/omniroute/workflow-compiler/pkg/models"
)

// Validate runs every structural check over the definition and accumulates
// all failures instead of stopping at the first, so one call reports every
// problem at once. It is read-only over the definition.
//
// Graph-shape checks (reachability, cycles, degree rules) are skipped when
// the node/edge references themselves are broken, since they would only
// produce noise on top of the duplicate-id and dangling-edge failures.
func Validate(def *models.WorkflowDefinition) Failures {
	var failures Failures

	failures = append(failures, checkNodeConfigs(def)...)
	failures = append(failures, checkTriggers(def)...)

	referencesOK := true

	seen := make(map[string]struct{}, len(def.Nodes))
	for _, node := range def.Nodes {
		if _, dup := seen[node.ID]; dup {
			failures = append(failures, validationFailure(node.ID, "duplicate node id %q", node.ID))

			referencesOK = false
		}

		seen[node.ID] = struct{}{}
	}

	for _, edge := range def.Edges {
		if _, ok := seen[edge.Source]; !ok {
			failures = append(failures, Failure{
				Kind:    FailureValidation,
				EdgeID:  edge.ID,
				Message: "edge source references unknown node " + edge.Source,
			})

			referencesOK = false
		}

		if _, ok := seen[edge.Target]; !ok {
			failures = append(failures, Failure{
				Kind:    FailureValidation,
				EdgeID:  edge.ID,
				Message: "edge target references unknown node " + edge.Target,
			})

			referencesOK = false
		}
	}

	starts, ends := 0, 0

	for _, node := range def.Nodes {
		switch node.Type {
		case models.NodeTypeStart:
			starts++
		case models.NodeTypeEnd:
			ends++
		}
	}

	if starts == 0 {
		failures = append(failures, validationFailure("", "missing start node"))
	}

	if starts > 1 {
		failures = append(failures, validationFailure("", "workflow has %d start nodes, exactly one is required", starts))
	}

	if ends == 0 {
		failures = append(failures, validationFailure("", "missing end node"))
	}

	if !referencesOK {
		return failures
	}

	g := newGraph(def)

	failures = append(failures, checkDegrees(g, starts)...)
	failures = append(failures, checkCycles(g)...)
	failures = append(failures, checkDecisions(g)...)
	failures = append(failures, checkForkJoinBalance(g)...)

	if starts == 1 && ends > 0 {
		reachable := g.reachableFrom(g.start)
		endReachable := false

		for _, e := range g.ends {
			if reachable[e] {
				endReachable = true

				break
			}
		}

		if !endReachable {
			failures = append(failures, validationFailure("", "no end node is reachable from the start node"))
		}
	}

	return failures
}

// checkDegrees enforces the in/out-degree rules of the start and end nodes.
func checkDegrees(g *graph, starts int) Failures {
	var failures Failures

	for i, node := range g.def.Nodes {
		switch node.Type {
		case models.NodeTypeStart:
			if starts != 1 {
				continue
			}

			if len(g.in[i]) > 0 {
				failures = append(failures, validationFailure(node.ID, "start node must have no incoming edges"))
			}

			if len(g.out[i]) != 1 {
				failures = append(failures, validationFailure(node.ID, "start node must have exactly one outgoing edge, found %d", len(g.out[i])))
			}
		case models.NodeTypeEnd:
			if len(g.out[i]) > 0 {
				failures = append(failures, validationFailure(node.ID, "end node must have no outgoing edges"))
			}
		default:
		}
	}

	return failures
}

// checkCycles runs a depth-first traversal with an in-progress set; any
// edge reaching a node currently in progress closes a cycle and is reported
// by its edge id.
func checkCycles(g *graph) Failures {
	const (
		white = iota
		gray
		black
	)

	var failures Failures

	state := make([]int, len(g.def.Nodes))

	var visit func(i int)

	visit = func(i int) {
		state[i] = gray

		for _, ei := range g.out[i] {
			edge := g.edge(ei)
			next := g.index[edge.Target]

			switch state[next] {
			case gray:
				failures = append(failures, cycleFailure(edge.ID,
					"cycle detected: edge %q (%s -> %s) closes a cycle", edge.ID, edge.Source, edge.Target))
			case white:
				visit(next)
			}
		}

		state[i] = black
	}

	for i := range g.def.Nodes {
		if state[i] == white {
			visit(i)
		}
	}

	return failures
}

// checkDecisions enforces the branching rules: decisions need at least two
// outgoing edges, at most one default (unconditioned) edge, and at least
// one condition; conditions may appear only on decision edges and may
// reference only declared variables.
func checkDecisions(g *graph) Failures {
	var failures Failures

	declared := g.def.VariableNames()

	for i, node := range g.def.Nodes {
		outgoing := g.out[i]

		if node.Type != models.NodeTypeDecision {
			for _, ei := range outgoing {
				if g.edge(ei).HasCondition() {
					failures = append(failures, Failure{
						Kind:    FailureValidation,
						EdgeID:  g.edge(ei).ID,
						Message: "condition on edge leaving non-decision node " + node.ID,
					})
				}
			}

			continue
		}

		if len(outgoing) < 2 {
			failures = append(failures, validationFailure(node.ID, "decision node must have at least 2 outgoing edges, found %d", len(outgoing)))
		}

		defaults, conditions := 0, 0

		for _, ei := range outgoing {
			edge := g.edge(ei)
			if !edge.HasCondition() {
				defaults++

				continue
			}

			conditions++

			failures = append(failures, checkConditionExpression(edge, declared)...)
		}

		if defaults > 1 {
			failures = append(failures, validationFailure(node.ID, "decision node has %d default edges, at most one outgoing edge may omit a condition", defaults))
		}

		if conditions == 0 && len(outgoing) >= 2 {
			failures = append(failures, validationFailure(node.ID, "decision node has no conditioned edges"))
		}
	}

	return failures
}

// checkConditionExpression parses the edge condition and verifies that
// every referenced variable is declared on the workflow and that the
// expression is one the generated workflow can evaluate.
func checkConditionExpression(edge *models.WorkflowEdge, declared map[string]struct{}) Failures {
	var failures Failures

	expr, diags := hclsyntax.ParseExpression([]byte(*edge.Condition), edge.ID, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return Failures{{
			Kind:    FailureValidation,
			EdgeID:  edge.ID,
			Message: "invalid condition expression: " + diags.Error(),
		}}
	}

	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, ok := declared[name]; !ok {
			failures = append(failures, Failure{
				Kind:    FailureValidation,
				EdgeID:  edge.ID,
				Message: "condition references undeclared variable " + name,
			})
		}
	}

	return append(failures, checkConditionShape(edge, expr)...)
}

var comparisonOps = map[string]struct{}{
	"==": {}, "!=": {}, ">": {}, ">=": {}, "<": {}, "<=": {},
}

// checkConditionShape restricts conditions to what the generated workflow
// evaluates at runtime: a bare variable, or a whitespace-separated
// "<variable> <operator> <literal>" comparison. Anything richer the HCL
// parser accepts (boolean operators, function calls, arithmetic) would
// silently evaluate to false in the generated code, so it is rejected here.
func checkConditionShape(edge *models.WorkflowEdge, expr hcl.Expression) Failures {
	unsupported := func(reason string) Failures {
		return Failures{{
			Kind:   FailureValidation,
			EdgeID: edge.ID,
			Message: fmt.Sprintf("unsupported condition %q: %s; conditions must be a variable or %q",
				*edge.Condition, reason, "<variable> <operator> <literal>"),
		}}
	}

	fields := strings.Fields(*edge.Condition)

	switch len(fields) {
	case 1:
		if _, ok := expr.(*hclsyntax.ScopeTraversalExpr); !ok {
			return unsupported("single term is not a variable reference")
		}
	case 3:
		if _, ok := comparisonOps[fields[1]]; !ok {
			return unsupported(fmt.Sprintf("operator %q is not a comparison", fields[1]))
		}

		binary, ok := expr.(*hclsyntax.BinaryOpExpr)
		if !ok {
			return unsupported("expression is not a comparison")
		}

		if _, ok := binary.LHS.(*hclsyntax.ScopeTraversalExpr); !ok {
			return unsupported("left-hand side is not a variable reference")
		}

		switch binary.RHS.(type) {
		case *hclsyntax.LiteralValueExpr, *hclsyntax.TemplateExpr, *hclsyntax.UnaryOpExpr:
		default:
			return unsupported("right-hand side is not a literal")
		}
	default:
		return unsupported("expression is not a single comparison")
	}

	return nil
}

// checkForkJoinBalance performs the cheap structural half of fork/join
// matching: degree rules and an equal count of gateways and joins. The
// precise pairing needs the dominance computation and is reported by the
// control-flow builder.
func checkForkJoinBalance(g *graph) Failures {
	var failures Failures

	gateways, joins := 0, 0

	for i, node := range g.def.Nodes {
		switch node.Type {
		case models.NodeTypeParallelGateway:
			gateways++

			if len(g.out[i]) < 2 {
				failures = append(failures, validationFailure(node.ID, "parallel gateway must have at least 2 outgoing edges, found %d", len(g.out[i])))
			}
		case models.NodeTypeParallelJoin:
			joins++

			if len(g.in[i]) < 2 {
				failures = append(failures, validationFailure(node.ID, "parallel join must have at least 2 incoming edges, found %d", len(g.in[i])))
			}

			if len(g.out[i]) > 1 {
				failures = append(failures, validationFailure(node.ID, "parallel join must have at most one outgoing edge, found %d", len(g.out[i])))
			}
		default:
		}
	}

	if gateways != joins {
		failures = append(failures, validationFailure("", "unmatched fork/join: %d parallel gateways but %d parallel joins", gateways, joins))
	}

	return failures
}

// checkNodeConfigs validates every node's variant config payload against
// its JSON schema and decodes it into the typed form, reporting the
// offending node id on failure.
func checkNodeConfigs(def *models.WorkflowDefinition) Failures {
	var failures Failures

	for _, node := range def.Nodes {
		schema := models.ConfigSchema(node.Type)
		if schema != nil {
			config := node.Config
			if config == nil {
				config = map[string]any{}
			}

			result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
			if err != nil {
				failures = append(failures, configFailure(node.ID, "config validation failed: %v", err))

				continue
			}

			if !result.Valid() {
				for _, desc := range result.Errors() {
					failures = append(failures, configFailure(node.ID, "invalid %s config: %s", node.Type, desc.String()))
				}

				continue
			}
		}

		failures = append(failures, checkTypedConfig(node)...)

		if node.Retries != nil {
			failures = append(failures, checkRetryPolicy(node)...)
		}
	}

	return failures
}

// checkTypedConfig decodes the schema-valid payload and verifies values the
// schema cannot express, like duration syntax.
func checkTypedConfig(node *models.WorkflowNode) Failures {
	switch node.Type {
	case models.NodeTypeWaitTimer:
		var config models.WaitTimerConfig
		if err := models.DecodeConfig(node.Config, &config); err != nil {
			return Failures{configFailure(node.ID, "wait_timer config: %v", err)}
		}

		if _, err := config.ParseDuration(); err != nil {
			return Failures{configFailure(node.ID, "wait_timer duration %q is not a valid duration", config.Duration)}
		}
	case models.NodeTypeWaitSignal:
		var config models.WaitSignalConfig
		if err := models.DecodeConfig(node.Config, &config); err != nil {
			return Failures{configFailure(node.ID, "wait_signal config: %v", err)}
		}
	case models.NodeTypeSubWorkflow:
		var config models.SubWorkflowConfig
		if err := models.DecodeConfig(node.Config, &config); err != nil {
			return Failures{configFailure(node.ID, "sub_workflow config: %v", err)}
		}
	default:
	}

	return nil
}

func checkRetryPolicy(node *models.WorkflowNode) Failures {
	var failures Failures

	if !node.PerformsExternalWork() {
		failures = append(failures, validationFailure(node.ID, "retry policy is only meaningful on nodes that perform external work, not %s", node.Type))
	}

	policy := node.Retries

	if policy.MaxAttempts < 1 {
		failures = append(failures, validationFailure(node.ID, "retry policy max_attempts must be at least 1"))
	}

	if _, err := policy.ParseInitialInterval(); err != nil {
		failures = append(failures, validationFailure(node.ID, "retry policy initial_interval %q is not a valid duration", policy.InitialInterval))
	}

	if _, err := policy.ParseMaxInterval(); err != nil {
		failures = append(failures, validationFailure(node.ID, "retry policy max_interval %q is not a valid duration", policy.MaxInterval))
	}

	if policy.BackoffCoefficient < 1 {
		failures = append(failures, validationFailure(node.ID, "retry policy backoff_coefficient must be >= 1"))
	}

	return failures
}

// checkTriggers validates trigger configuration shape. No code is generated
// from triggers; they are validated so the editor learns about problems at
// compile time rather than at deployment.
func checkTriggers(def *models.WorkflowDefinition) Failures {
	var failures Failures

	for i, trigger := range def.Triggers {
		switch trigger.Type {
		case models.TriggerTypeSchedule:
			expr, _ := trigger.Config["cron"].(string)
			if expr == "" {
				failures = append(failures, validationFailure("", "schedule trigger %d requires a cron expression", i))

				continue
			}

			if _, err := cron.ParseStandard(expr); err != nil {
				failures = append(failures, validationFailure("", "schedule trigger %d has invalid cron expression %q: %v", i, expr, err))
			}
		case models.TriggerTypeWebhook:
			if path, _ := trigger.Config["path"].(string); path == "" {
				failures = append(failures, validationFailure("", "webhook trigger %d requires a path", i))
			}
		case models.TriggerTypeEvent:
			if event, _ := trigger.Config["event"].(string); event == "" {
				failures = append(failures, validationFailure("", "event trigger %d requires an event name", i))
			}
		case models.TriggerTypeManual:
		default:
		}
	}

	return failures
}
