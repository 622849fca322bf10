// Package main provides the intake API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/helixworks/intake/pkg/catalog"
	"github.com/helixworks/intake/pkg/clients"
	"github.com/helixworks/intake/pkg/eventbus"
	"github.com/helixworks/intake/pkg/persistence"
	"github.com/helixworks/intake/pkg/services"
	"github.com/helixworks/intake/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate

	codegen      *clients.Codegen
	provisioning *clients.Provisioning
	report       *clients.Report
	tracer       trace.Tracer

	narrativeMin    int
	transitionDelay time.Duration
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	codegen *clients.Codegen,
	provisioning *clients.Provisioning,
	report *clients.Report,
	tracer trace.Tracer,
	narrativeMin int,
	transitionDelay time.Duration,
) *API {
	return &API{
		logger:          logger,
		persistence:     persistence,
		eventBus:        eventBus,
		codegen:         codegen,
		provisioning:    provisioning,
		report:          report,
		tracer:          tracer,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		narrativeMin:    narrativeMin,
		transitionDelay: transitionDelay,
	}
}

func (a *API) App() *fiber.App {
	sessionOpts := []services.SessionOption{
		services.WithCatalog(catalog.New(catalog.WithNarrativeMinLen(a.narrativeMin))),
		services.WithTransitionDelay(a.transitionDelay),
	}

	handlers := web.NewAPIHandlers(
		a.persistence,
		a.eventBus,
		a.codegen,
		a.provisioning,
		a.report,
		a.tracer,
		a.validate,
		a.logger,
		sessionOpts...,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Intake API")
	})

	s := app.Group("/sessions")
	s.Post("/", handlers.StartSession)
	s.Get("/current", handlers.GetSession)
	s.Patch("/current/answers", handlers.UpdateAnswers)
	s.Post("/current/advance", handlers.Advance)
	s.Post("/current/retreat", handlers.Retreat)
	s.Post("/current/reset", handlers.Reset)
	s.Get("/current/preview", handlers.Preview)
	s.Post("/current/preview/regenerate", handlers.RegeneratePreview)
	s.Post("/current/exit/self-serve", handlers.ExitSelfServe)
	s.Post("/current/exit/expert", handlers.ExitExpert)
	s.Post("/current/exit/save-for-later", handlers.ExitSaveForLater)

	app.Get("/saved", handlers.ListSaved)
	app.Get("/saved/:key", handlers.GetSaved)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	if err := services.RegisterAutosave(a.eventBus, a.persistence, a.logger); err != nil {
		return err
	}

	if err := a.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
