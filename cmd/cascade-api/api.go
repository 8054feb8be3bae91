// Package main provides the Cascade trigger API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/driftlabs/cascade/pkg/eventbus"
	"github.com/driftlabs/cascade/pkg/persistence"
	"github.com/driftlabs/cascade/pkg/web"
)

type API struct {
	logger        *slog.Logger
	persistence   persistence.Persistence
	eventBus      eventbus.EventBus
	internalToken string
	validate      *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	internalToken string,
) *API {
	return &API{
		logger:        logger,
		persistence:   persistence,
		eventBus:      eventBus,
		internalToken: internalToken,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.persistence, a.eventBus, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Cascade API")
	})

	internal := app.Group("/internal", web.InternalAuth(a.internalToken))
	internal.Post("/workflows/trigger", handlers.TriggerWorkflow)
	internal.Get("/workflow-executions", handlers.ListExecutions)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
