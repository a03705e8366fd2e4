package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/omniroute/workflow-compiler/pkg/cache"
	"github.com/omniroute/workflow-compiler/pkg/compiler"
	"github.com/omniroute/workflow-compiler/pkg/log"
	"github.com/omniroute/workflow-compiler/pkg/tracing"
)

// APIHandlers serves the compile and validate endpoints. The tracer is
// optional; when nil no spans are recorded.
type APIHandlers struct {
	compiler  *compiler.Compiler
	store     cache.Store
	validator *validator.Validate
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewAPIHandlers(
	comp *compiler.Compiler,
	store cache.Store,
	validate *validator.Validate,
	tracer trace.Tracer,
) *APIHandlers {
	return &APIHandlers{
		compiler:  comp,
		store:     store,
		validator: validate,
		tracer:    tracer,
		logger:    log.WithModule("web"),
	}
}

func (h *APIHandlers) CompileWorkflow(c fiber.Ctx) error {
	var req CompileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.Workflow == nil {
		return badRequest(c, "workflow is required")
	}

	ctx := c.Context()

	if h.tracer != nil {
		var span trace.Span

		ctx, span = tracing.StartSpan(ctx, h.tracer, "compile",
			attribute.String(tracing.WorkflowNameKey, req.Workflow.Name),
			attribute.String(tracing.WorkflowVersionKey, req.Workflow.Version),
		)
		defer span.End()
	}

	if err := h.validator.Struct(req.Workflow); err != nil {
		return c.JSON(failedCompile(definitionErrors(err)))
	}

	key, keyErr := cache.Key(req.Workflow)
	if keyErr == nil {
		compiled, hit, err := h.store.Get(ctx, key)
		if err != nil {
			h.logger.WarnContext(ctx, "cache lookup failed", "error", err)
		} else if hit {
			h.logger.DebugContext(ctx, "cache hit", "workflow", req.Workflow.Name)
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(tracing.CacheHitKey, true))

			return c.JSON(CompileResponse{Success: true, Compiled: compiled})
		}
	}

	compiled, failures := h.compiler.Compile(ctx, req.Workflow)
	if len(failures) > 0 {
		tracing.SetError(trace.SpanFromContext(ctx), failures,
			attribute.Int(tracing.FailureCountKey, len(failures)))

		return c.JSON(failedCompile(failures.Messages()))
	}

	if keyErr == nil {
		if err := h.store.Set(ctx, key, compiled); err != nil {
			h.logger.WarnContext(ctx, "failed to store compiled workflow", "error", err)
		}
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(tracing.PackageNameKey, compiled.Metadata.PackageName),
	)

	return c.JSON(CompileResponse{Success: true, Compiled: compiled})
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var req ValidateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.Workflow == nil {
		return badRequest(c, "workflow is required")
	}

	if err := h.validator.Struct(req.Workflow); err != nil {
		return c.JSON(ValidateResponse{Valid: false, Errors: definitionErrors(err)})
	}

	failures := h.compiler.ValidateOnly(c.Context(), req.Workflow)

	return c.JSON(ValidateResponse{
		Valid:  len(failures) == 0,
		Errors: failures.Messages(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"message":   "OmniRoute workflow compiler is healthy",
		"timestamp": time.Now().UTC(),
	})
}

func failedCompile(msgs []string) CompileResponse {
	var summary *string

	if len(msgs) > 0 {
		joined := msgs[0]
		for _, msg := range msgs[1:] {
			joined += "; " + msg
		}

		summary = &joined
	}

	return CompileResponse{Success: false, Error: summary, Errors: msgs}
}
