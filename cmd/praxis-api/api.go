// Package main provides the Praxis workflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/praxisflow/praxis/pkg/cache"
	"github.com/praxisflow/praxis/pkg/eventbus"
	"github.com/praxisflow/praxis/pkg/persistence"
	"github.com/praxisflow/praxis/pkg/services"
	"github.com/praxisflow/praxis/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	verdicts    cache.VerdictCache
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	verdicts cache.VerdictCache,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		verdicts:    verdicts,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.eventBus, a.logger)
	stepService := services.NewStep(a.persistence, a.eventBus, a.logger)
	transitionService := services.NewTransition(a.persistence, a.eventBus, a.logger)
	validationService := services.NewValidation(a.persistence, a.verdicts, a.eventBus, a.logger)
	transferService := services.NewTransfer(a.persistence, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(
		workflowService,
		stepService,
		transitionService,
		validationService,
		transferService,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Praxis Workflow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/import", handlers.ImportWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/deactivate", handlers.DeactivateWorkflow)
	w.Post("/:id/duplicate", handlers.DuplicateWorkflow)
	w.Get("/:id/validate", handlers.ValidateWorkflow)
	w.Get("/:id/export", handlers.ExportWorkflow)

	// Step endpoints:
	w.Get("/:id/steps", handlers.GetWorkflowSteps)
	w.Post("/:id/steps", handlers.CreateWorkflowStep)
	w.Put("/:id/steps/positions", handlers.UpdateStepPositions)
	w.Get("/:id/steps/:stepId", handlers.GetWorkflowStep)
	w.Patch("/:id/steps/:stepId", handlers.UpdateWorkflowStep)
	w.Delete("/:id/steps/:stepId", handlers.DeleteWorkflowStep)

	// Transition endpoints:
	w.Get("/:id/transitions", handlers.GetWorkflowTransitions)
	w.Post("/:id/transitions", handlers.CreateWorkflowTransition)
	w.Get("/:id/transitions/:transitionId", handlers.GetWorkflowTransition)
	w.Patch("/:id/transitions/:transitionId", handlers.UpdateWorkflowTransition)
	w.Delete("/:id/transitions/:transitionId", handlers.DeleteWorkflowTransition)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
