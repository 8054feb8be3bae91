package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/driftlabs/cascade/pkg/cmd"
	"github.com/driftlabs/cascade/pkg/log"
	"github.com/driftlabs/cascade/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "cascade-worker",
		EnableShellCompletion: true,
		Usage:                 "Consume trigger events and execute matching workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for in-app notifications (in-memory when empty)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces (OTEL_EXPORTER_OTLP_ENDPOINT)",
				Value:   false,
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("cascade-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Cascade worker")

			if command.Bool("tracing") {
				tracerProvider, err := otelhelper.NewTracerProvider(ctx, "cascade-worker")
				if err != nil {
					return err
				}

				defer func() {
					err := tracerProvider.Shutdown(ctx)
					if err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), "cascade-worker", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			store := cmd.NewCRMStore(persistence, logger)
			notifier := cmd.NewNotifier(ctx, command.String("redis-url"), logger)
			registry := cmd.NewRegistry(logger, store, notifier)

			worker := NewWorker(workerID, persistence, eventBus, registry, logger)

			err := worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
