package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/omniroute/workflow-compiler/pkg/cache"
	"github.com/omniroute/workflow-compiler/pkg/codegen"
	"github.com/omniroute/workflow-compiler/pkg/compiler"
	"github.com/omniroute/workflow-compiler/pkg/log"
	"github.com/omniroute/workflow-compiler/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort     = 9090
	defaultCacheTTL = 24 * time.Hour
)

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "workflow-compiler",
		Usage:                 "Compile visual workflow definitions into Temporal Go source",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the compiled artifact cache (disabled when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "cache-ttl",
				Usage:   "How long compiled artifacts stay cached",
				Value:   defaultCacheTTL,
				Sources: cli.EnvVars("CACHE_TTL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing of compile requests",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger.InfoContext(ctx, "Initializing OmniRoute workflow compiler")

			// A template that fails to parse is a packaging defect; refuse
			// to start rather than fail every request later.
			renderer, err := codegen.NewRenderer()
			if err != nil {
				return err
			}

			store, err := newStore(command)
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close cache", "error", err)
				}
			}()

			var tracer trace.Tracer

			if command.Bool("tracing") {
				tracer, err = tracing.NewTracer(ctx, "workflow-compiler")
				if err != nil {
					return err
				}
			}

			api := NewAPI(
				logger,
				compiler.New(renderer),
				store,
				tracer,
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func newStore(command *cli.Command) (cache.Store, error) {
	url := command.String("redis-url")
	if url == "" {
		return cache.NewNoop(), nil
	}

	return cache.NewRedis(url, command.Duration("cache-ttl"))
}
