package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/helixworks/intake/pkg/catalog"
	"github.com/helixworks/intake/pkg/clients"
	"github.com/helixworks/intake/pkg/cmd"
	"github.com/helixworks/intake/pkg/log"
	"github.com/helixworks/intake/pkg/otelhelper"
	"github.com/helixworks/intake/pkg/sequencer"
)

const defaultPort = 9094

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "intake-api",
		Usage:                 "Run the guided intake session API",
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
				Name:     "database-url",
				Usage:    "Database connection URL for draft persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "codegen-url",
				Usage:   "Base URL of the code-generation service",
				Sources: cli.EnvVars("CODEGEN_URL"),
			},
			&cli.StringFlag{
				Name:     "provisioning-url",
				Usage:    "Base URL of the project-provisioning service",
				Required: true,
				Sources:  cli.EnvVars("PROVISIONING_URL"),
			},
			&cli.StringFlag{
				Name:    "report-url",
				Usage:   "Base URL of the report mailer service",
				Sources: cli.EnvVars("REPORT_URL"),
			},
			&cli.IntFlag{
				Name:    "narrative-min",
				Usage:   "Minimum workflow narrative length to pass the workflow step",
				Value:   catalog.DefaultNarrativeMinLen,
				Sources: cli.EnvVars("NARRATIVE_MIN_LENGTH"),
			},
			&cli.DurationFlag{
				Name:    "transition-delay",
				Usage:   "Delay between a requested and a committed step transition",
				Value:   sequencer.DefaultTransitionDelay,
				Sources: cli.EnvVars("TRANSITION_DELAY"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Intake API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var tracer trace.Tracer

			if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
				t, err := otelhelper.NewTracer(ctx, "intake-api")
				if err != nil {
					logger.WarnContext(ctx, "Failed to initialize tracer, continuing without", "error", err)
				} else {
					tracer = t
				}
			}

			var codegen *clients.Codegen
			if url := command.String("codegen-url"); url != "" {
				codegen = clients.NewCodegen(url)
			}

			var report *clients.Report
			if url := command.String("report-url"); url != "" {
				report = clients.NewReport(url)
			}

			provisioning := clients.NewProvisioning(command.String("provisioning-url"))

			api := NewAPI(
				logger,
				persistence,
				eventBus,
				codegen,
				provisioning,
				report,
				tracer,
				command.Int("narrative-min"),
				command.Duration("transition-delay"),
			)

			err := api.Start(ctx, command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
