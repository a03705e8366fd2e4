package codegen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/omniroute/workflow-compiler/pkg/compiler"
	"github.com/omniroute/workflow-compiler/pkg/models"
)

// bodyRenderer walks the structured program and emits the workflow
// function body. It also records which imports and helpers the rendered
// statements need so the surrounding template stays minimal.
type bodyRenderer struct {
	out       strings.Builder
	indent    int
	forkSeq   int
	errSeq    int
	usesTime  bool
	usesRetry bool
	usesConds bool
}

// failStmts returns the statements that abort the current scope with the
// error held in errExpr.
type failStmts func(errExpr string) []string

func returnFail(errExpr string) []string {
	return []string{"return nil, " + errExpr}
}

func branchFail(errVar string) failStmts {
	return func(errExpr string) []string {
		return []string{errVar + " = " + errExpr, "return"}
	}
}

func (r *bodyRenderer) line(format string, args ...any) {
	if format == "" {
		r.out.WriteByte('\n')

		return
	}

	r.out.WriteString(strings.Repeat("\t", r.indent))
	fmt.Fprintf(&r.out, format, args...)
	r.out.WriteByte('\n')
}

func (r *bodyRenderer) fail(fail failStmts, errExpr string) {
	r.indent++

	for _, stmt := range fail(errExpr) {
		r.line("%s", stmt)
	}

	r.indent--
}

func (r *bodyRenderer) renderSequence(seq *compiler.Sequence, fail failStmts) {
	for i, item := range seq.Items {
		if i > 0 {
			r.line("")
		}

		switch node := item.(type) {
		case *compiler.Step:
			r.renderStep(node, fail)
		case *compiler.Branch:
			r.renderBranch(node, fail)
		case *compiler.Fork:
			r.renderFork(node, fail)
		case *compiler.Sequence:
			r.renderSequence(node, fail)
		}
	}
}

func (r *bodyRenderer) renderStep(step *compiler.Step, fail failStmts) {
	node := step.Node

	switch node.Type {
	case models.NodeTypeWaitTimer:
		d, _ := step.Timer.ParseDuration()
		r.usesTime = true
		r.line("if err := workflow.Sleep(ctx, %s); err != nil {", goDuration(d))
		r.fail(fail, "err")
		r.line("}")

	case models.NodeTypeWaitSignal:
		r.line("{")
		r.indent++
		r.line("var signal any")
		r.line("workflow.GetSignalChannel(ctx, %q).Receive(ctx, &signal)", step.Signal.SignalName)
		r.indent--
		r.line("}")

	case models.NodeTypeSubWorkflow:
		r.line("if err := workflow.ExecuteChildWorkflow(ctx, %q, vars).Get(ctx, nil); err != nil {", step.Child.WorkflowName)
		r.fail(fail, "err")
		r.line("}")

	default:
		r.renderActivity(step, fail)
	}
}

func (r *bodyRenderer) renderActivity(step *compiler.Step, fail failStmts) {
	node := step.Node

	r.usesTime = true

	if node.Label != "" {
		r.line("// %s", node.Label)
	}

	r.line("{")
	r.indent++
	r.line("opts := workflow.ActivityOptions{")
	r.indent++
	r.line("StartToCloseTimeout: 10 * time.Minute,")

	if node.Retries != nil {
		r.usesRetry = true

		initial, _ := node.Retries.ParseInitialInterval()
		ceiling, _ := node.Retries.ParseMaxInterval()

		r.line("RetryPolicy: &temporal.RetryPolicy{")
		r.indent++
		r.line("InitialInterval:    %s,", goDuration(initial))
		r.line("BackoffCoefficient: %s,", strconv.FormatFloat(node.Retries.BackoffCoefficient, 'g', -1, 64))
		r.line("MaximumInterval:    %s,", goDuration(ceiling))
		r.line("MaximumAttempts:    %d,", node.Retries.MaxAttempts)
		r.indent--
		r.line("},")
	}

	r.indent--
	r.line("}")
	r.line("if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, opts), %s, vars).Get(ctx, &vars); err != nil {", step.Identifier)
	r.fail(fail, "err")
	r.line("}")
	r.indent--
	r.line("}")
}

func (r *bodyRenderer) renderBranch(branch *compiler.Branch, fail failStmts) {
	r.usesConds = true

	for i, c := range branch.Cases {
		if i == 0 {
			r.line("if evalCondition(vars, %q) {", c.Expression)
		} else {
			r.line("} else if evalCondition(vars, %q) {", c.Expression)
		}

		r.indent++
		r.renderSequence(c.Body, fail)
		r.indent--
	}

	if branch.Default != nil {
		r.line("} else {")
		r.indent++
		r.renderSequence(branch.Default, fail)
		r.indent--
	}

	r.line("}")
}

func (r *bodyRenderer) renderFork(fork *compiler.Fork, fail failStmts) {
	r.forkSeq++
	wg := fmt.Sprintf("wg%d", r.forkSeq)

	r.line("%s := workflow.NewWaitGroup(ctx)", wg)
	r.line("%s.Add(%d)", wg, len(fork.Branches))

	errVars := make([]string, len(fork.Branches))

	for i, body := range fork.Branches {
		r.errSeq++
		errVars[i] = fmt.Sprintf("branchErr%d", r.errSeq)

		r.line("")
		r.line("var %s error", errVars[i])
		r.line("")
		r.line("workflow.Go(ctx, func(ctx workflow.Context) {")
		r.indent++
		r.line("defer %s.Done()", wg)
		r.line("")
		r.renderSequence(body, branchFail(errVars[i]))
		r.indent--
		r.line("})")
	}

	r.line("")
	r.line("%s.Wait(ctx)", wg)

	for _, errVar := range errVars {
		r.line("")
		r.line("if %s != nil {", errVar)
		r.fail(fail, errVar)
		r.line("}")
	}
}

// goDuration renders a duration as a readable Go expression in the largest
// exact unit.
func goDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%d * time.Hour", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d * time.Minute", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%d * time.Second", d/time.Second)
	case d%time.Millisecond == 0:
		return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond)
	case d%time.Microsecond == 0:
		return fmt.Sprintf("%d * time.Microsecond", d/time.Microsecond)
	default:
		return fmt.Sprintf("%d * time.Nanosecond", d)
	}
}
