package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/praxisflow/praxis/pkg/audit"
	"github.com/praxisflow/praxis/pkg/cmd"
	"github.com/praxisflow/praxis/pkg/config"
	"github.com/praxisflow/praxis/pkg/log"
	"github.com/praxisflow/praxis/pkg/otelhelper"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "praxis-api",
		Usage:                 "Author and validate practice workflows",
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
				Usage:    "Database connection URL (postgres:// or a file:// root)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka or none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the validation verdict cache (empty disables caching)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "seed-config",
				Usage:   "Path to a YAML file of workflows to ensure on startup",
				Sources: cli.EnvVars("SEED_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron schedule for the workflow integrity sweeper (empty disables sweeping)",
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry trace export",
				Sources: cli.EnvVars("OTEL_TRACING"),
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

			logger.InfoContext(ctx, "Initializing Praxis API")

			if command.Bool("tracing") {
				if _, err := otelhelper.NewTracer(ctx, "praxis-api"); err != nil {
					return err
				}
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			if seedPath := command.String("seed-config"); seedPath != "" {
				seed, err := config.LoadSeedFile(seedPath)
				if err != nil {
					return err
				}

				if err := seed.Apply(ctx, logger, persistence); err != nil {
					return err
				}
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			verdicts, err := cmd.NewVerdictCache(ctx, logger, command.String("redis-url"))
			if err != nil {
				return err
			}

			if schedule := command.String("sweep-schedule"); schedule != "" {
				sweeper := audit.NewSweeper(persistence, eventBus, logger)
				if err := sweeper.Start(ctx, schedule); err != nil {
					return err
				}

				defer sweeper.Stop()
			}

			api := NewAPI(logger, persistence, eventBus, verdicts)

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
