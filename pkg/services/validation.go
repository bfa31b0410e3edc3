package services

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/praxisflow/praxis/pkg/cache"
	"github.com/praxisflow/praxis/pkg/eventbus"
	"github.com/praxisflow/praxis/pkg/events"
	"github.com/praxisflow/praxis/pkg/otelhelper"
	"github.com/praxisflow/praxis/pkg/persistence"
	"github.com/praxisflow/praxis/pkg/validation"
)

// Validation computes and caches structural verdicts for workflow graphs.
// Verdicts are cached per (workflow, version); any structural edit bumps the
// version, so stale verdicts are never served.
type Validation struct {
	persistence persistence.Persistence
	verdicts    cache.VerdictCache
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewValidation creates a new validation service.
func NewValidation(
	persistence persistence.Persistence,
	verdicts cache.VerdictCache,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Validation {
	if verdicts == nil {
		verdicts = cache.NoopVerdictCache{}
	}

	return &Validation{
		persistence: persistence,
		verdicts:    verdicts,
		publisher:   publisher,
		logger:      logger.With("module", "validation_service"),
		tracer:      otel.Tracer("praxis.validation"),
	}
}

// ValidateWorkflow returns the structural verdict for the workflow. Cached
// verdicts are served when the workflow version matches; otherwise the graph
// is walked, the verdict cached, and a validated event published.
func (v *Validation) ValidateWorkflow(ctx context.Context, workflowID string) (*validation.Result, error) {
	ctx, span := otelhelper.StartSpan(ctx, v.tracer, "workflow.validate",
		attribute.String(otelhelper.WorkflowIDKey, workflowID))
	defer span.End()

	workflow, err := v.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.WorkflowIDKey, workflowID))

		return nil, err
	}

	if workflow == nil {
		otelhelper.SetError(span, ErrWorkflowNotFound, attribute.String(otelhelper.WorkflowIDKey, workflowID))

		return nil, ErrWorkflowNotFound
	}

	span.SetAttributes(attribute.Int64(otelhelper.WorkflowVersionKey, workflow.Version))

	cached, err := v.verdicts.Get(ctx, workflow.ID, workflow.Version)
	if err != nil {
		// Cache trouble is not a validation failure; recompute.
		v.logger.WarnContext(ctx, "verdict cache read failed", "workflow_id", workflow.ID, "error", err)
	}

	if cached != nil {
		span.SetAttributes(attribute.Bool(otelhelper.ValidationCachedKey, true))

		return cached, nil
	}

	result := validation.ValidateWorkflow(workflow)

	span.SetAttributes(
		attribute.Bool(otelhelper.ValidationCachedKey, false),
		attribute.Bool(otelhelper.ValidationValidKey, result.Valid),
		attribute.Int(otelhelper.ValidationIssuesKey, len(result.Issues)),
	)

	if err := v.verdicts.Set(ctx, workflow.ID, workflow.Version, result); err != nil {
		v.logger.WarnContext(ctx, "verdict cache write failed", "workflow_id", workflow.ID, "error", err)
	}

	publishEvent(ctx, v.publisher, v.logger, workflow.ID,
		events.NewWorkflowValidated(workflow.ID, workflow.Version, result))

	return &result, nil
}
