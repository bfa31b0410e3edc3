// Package audit periodically revalidates every stored workflow and reports
// graphs that have drifted into an invalid state, for example through direct
// database edits or partially failed imports.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/praxisflow/praxis/pkg/eventbus"
	"github.com/praxisflow/praxis/pkg/events"
	"github.com/praxisflow/praxis/pkg/persistence"
	"github.com/praxisflow/praxis/pkg/validation"
)

const sweepPageSize = 100

// Sweeper walks all workflows on a cron schedule and publishes a validation
// verdict for each.
type Sweeper struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	cron        *cron.Cron
}

// NewSweeper creates a new integrity sweeper.
func NewSweeper(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "audit_sweeper"),
		cron:        cron.New(),
	}
}

// Start schedules sweeps with the given cron expression and begins running.
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.ErrorContext(ctx, "integrity sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "integrity sweeper started", "schedule", schedule)

	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep revalidates every workflow once. Invalid workflows are logged at
// warn; every verdict is published for downstream consumers.
func (s *Sweeper) Sweep(ctx context.Context) error {
	offset := 0
	checked := 0
	invalid := 0

	for {
		page, err := s.persistence.WorkflowRepository().ListWorkflows(ctx, persistence.ListWorkflowsOptions{
			Limit:        sweepPageSize,
			Offset:       offset,
			IncludeGraph: true,
		})
		if err != nil {
			return fmt.Errorf("failed to list workflows: %w", err)
		}

		for _, workflow := range page.Workflows {
			result := validation.ValidateWorkflow(workflow)
			checked++

			if !result.Valid {
				invalid++

				s.logger.WarnContext(ctx, "workflow failed integrity sweep",
					"workflow_id", workflow.ID,
					"workflow_name", workflow.Name,
					"errors", result.Errors(),
				)
			}

			if s.publisher != nil {
				event := events.NewWorkflowValidated(workflow.ID, workflow.Version, result)
				if err := s.publisher.Publish(ctx, workflow.ID, event); err != nil {
					s.logger.WarnContext(ctx, "failed to publish sweep verdict",
						"workflow_id", workflow.ID, "error", err)
				}
			}
		}

		if !page.HasNextPage {
			break
		}

		offset += sweepPageSize
	}

	s.logger.InfoContext(ctx, "integrity sweep completed", "checked", checked, "invalid", invalid)

	return nil
}
