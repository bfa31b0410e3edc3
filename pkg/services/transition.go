package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/praxisflow/praxis/pkg/eventbus"
	"github.com/praxisflow/praxis/pkg/events"
	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

// CreateTransitionRequest represents the request to create a new transition
// between two steps of the same workflow.
type CreateTransitionRequest struct {
	FromStepID  string `validate:"required,uuid"`
	ToStepID    string `validate:"required,uuid"`
	Name        string `validate:"max=255"`
	Description string `validate:"max=2000"`

	RequiresInvoiceRaised bool
	RequiresInvoicePaid   bool
	RequiresAssignment    bool

	AllowedRoles []string

	SendNotification     bool
	NotificationTemplate string
}

// UpdateTransitionRequest represents the request to update an existing
// transition. Endpoints are immutable; reroute by delete and recreate.
type UpdateTransitionRequest struct {
	Name        string `validate:"max=255"`
	Description string `validate:"max=2000"`

	RequiresInvoiceRaised bool
	RequiresInvoicePaid   bool
	RequiresAssignment    bool

	AllowedRoles []string

	SendNotification     bool
	NotificationTemplate string
}

// Transition handles transition-related business operations.
type Transition struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewTransition creates a new transition service.
func NewTransition(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Transition {
	return &Transition{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "transition_service"),
	}
}

// ListTransitions returns every transition of the workflow.
func (t *Transition) ListTransitions(ctx context.Context, workflowID string) ([]*models.Transition, error) {
	if _, err := t.fetchWorkflow(ctx, workflowID); err != nil {
		return nil, err
	}

	return t.persistence.TransitionRepository().GetTransitionsByWorkflow(ctx, workflowID)
}

// GetTransition retrieves a specific transition from the specified workflow.
func (t *Transition) GetTransition(ctx context.Context, workflowID, transitionID string) (*models.Transition, error) {
	transition, err := t.persistence.TransitionRepository().GetTransitionByWorkflow(ctx, workflowID, transitionID)
	if err != nil {
		return nil, err
	}

	if transition == nil {
		return nil, persistence.ErrTransitionNotFound
	}

	return transition, nil
}

// CreateTransition creates a new transition. Both endpoints must reference
// steps that exist in the workflow. Self-loops are stored; the validator
// flags them as warnings.
func (t *Transition) CreateTransition(ctx context.Context, workflowID string, req *CreateTransitionRequest) (*models.Transition, error) {
	workflow, err := t.fetchWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.StepByID(req.FromStepID) == nil || workflow.StepByID(req.ToStepID) == nil {
		return nil, NewValidationError(
			"CreateTransition",
			"TRANSITION_ENDPOINT_MISSING",
			"transition endpoints must reference steps in the workflow",
			ErrTransitionEndpoint,
		)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = models.DefaultTransitionName
	}

	transition := &models.Transition{
		ID:          uuid.New().String(),
		FromStepID:  req.FromStepID,
		ToStepID:    req.ToStepID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),

		RequiresInvoiceRaised: req.RequiresInvoiceRaised,
		RequiresInvoicePaid:   req.RequiresInvoicePaid,
		RequiresAssignment:    req.RequiresAssignment,

		AllowedRoles: toRoles(req.AllowedRoles),

		SendNotification:     req.SendNotification,
		NotificationTemplate: strings.TrimSpace(req.NotificationTemplate),
	}

	if !models.ValidRoles(transition.AllowedRoles) {
		return nil, NewValidationError(
			"CreateTransition",
			"INVALID_ROLE",
			"one or more role identifiers are not recognized",
			ErrInvalidRole,
		)
	}

	if err := t.persistence.TransitionRepository().SaveTransition(ctx, workflowID, transition); err != nil {
		return nil, fmt.Errorf("failed to save transition: %w", err)
	}

	t.publish(ctx, workflowID, events.NewTransitionChanged(events.TransitionCreatedEvent, workflowID, transition))

	return transition, nil
}

// UpdateTransition updates the label, conditions, roles, and notification
// settings of an existing transition. Endpoints are preserved.
func (t *Transition) UpdateTransition(ctx context.Context, workflowID, transitionID string, req *UpdateTransitionRequest) (*models.Transition, error) {
	if _, err := t.fetchWorkflow(ctx, workflowID); err != nil {
		return nil, err
	}

	existing, err := t.GetTransition(ctx, workflowID, transitionID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = models.DefaultTransitionName
	}

	existing.Name = name
	existing.Description = strings.TrimSpace(req.Description)
	existing.RequiresInvoiceRaised = req.RequiresInvoiceRaised
	existing.RequiresInvoicePaid = req.RequiresInvoicePaid
	existing.RequiresAssignment = req.RequiresAssignment
	existing.AllowedRoles = toRoles(req.AllowedRoles)
	existing.SendNotification = req.SendNotification
	existing.NotificationTemplate = strings.TrimSpace(req.NotificationTemplate)

	if !models.ValidRoles(existing.AllowedRoles) {
		return nil, NewValidationError(
			"UpdateTransition",
			"INVALID_ROLE",
			"one or more role identifiers are not recognized",
			ErrInvalidRole,
		)
	}

	if err := t.persistence.TransitionRepository().SaveTransition(ctx, workflowID, existing); err != nil {
		return nil, fmt.Errorf("failed to update transition: %w", err)
	}

	t.publish(ctx, workflowID, events.NewTransitionChanged(events.TransitionUpdatedEvent, workflowID, existing))

	return existing, nil
}

// DeleteTransition removes a transition from the specified workflow.
func (t *Transition) DeleteTransition(ctx context.Context, workflowID, transitionID string) error {
	if _, err := t.fetchWorkflow(ctx, workflowID); err != nil {
		return err
	}

	transition, err := t.GetTransition(ctx, workflowID, transitionID)
	if err != nil {
		return err
	}

	if err := t.persistence.TransitionRepository().DeleteTransition(ctx, workflowID, transitionID); err != nil {
		return fmt.Errorf("failed to delete transition: %w", err)
	}

	t.publish(ctx, workflowID, events.NewTransitionChanged(events.TransitionDeletedEvent, workflowID, transition))

	return nil
}

func (t *Transition) fetchWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := t.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if workflow == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	return workflow, nil
}

func (t *Transition) publish(ctx context.Context, key string, event eventbus.Event) {
	publishEvent(ctx, t.publisher, t.logger, key, event)
}
