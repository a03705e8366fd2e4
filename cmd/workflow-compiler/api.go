// Package main provides the OmniRoute workflow compiler API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/omniroute/workflow-compiler/pkg/cache"
	"github.com/omniroute/workflow-compiler/pkg/compiler"
	"github.com/omniroute/workflow-compiler/pkg/web"
)

type API struct {
	logger   *slog.Logger
	compiler *compiler.Compiler
	store    cache.Store
	tracer   trace.Tracer
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	comp *compiler.Compiler,
	store cache.Store,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:   logger,
		compiler: comp,
		store:    store,
		tracer:   tracer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.compiler, a.store, a.validate, a.tracer)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("OmniRoute Workflow Compiler")
	})

	api := app.Group("/api/v1")
	api.Post("/compile", handlers.CompileWorkflow)
	api.Post("/validate", handlers.ValidateWorkflow)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
