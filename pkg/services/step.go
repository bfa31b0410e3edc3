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

// CreateStepRequest represents the request to create a new workflow step.
type CreateStepRequest struct {
	Name           string `validate:"required,min=1,max=255"`
	DisplayName    string `validate:"max=255"`
	Description    string `validate:"max=2000"`
	StepType       string `validate:"required,oneof=start normal query end"`
	Color          string
	AllowedRoles   []string
	RequiredFields []string
	AutoAssign     bool
	NotifyRoles    []string
	NotifyClient   bool
	PositionX      float64
	PositionY      float64
}

// UpdateStepRequest represents the request to update an existing workflow
// step. The step type is immutable after creation.
type UpdateStepRequest struct {
	Name           string `validate:"required,min=1,max=255"`
	DisplayName    string `validate:"max=255"`
	Description    string `validate:"max=2000"`
	Color          string
	AllowedRoles   []string
	RequiredFields []string
	AutoAssign     bool
	NotifyRoles    []string
	NotifyClient   bool
}

// Step handles step-related business operations.
type Step struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewStep creates a new step service.
func NewStep(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Step {
	return &Step{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "step_service"),
	}
}

// ListSteps returns every step of the workflow.
func (s *Step) ListSteps(ctx context.Context, workflowID string) ([]*models.Step, error) {
	if err := s.requireWorkflow(ctx, workflowID); err != nil {
		return nil, err
	}

	return s.persistence.StepRepository().GetStepsByWorkflow(ctx, workflowID)
}

// GetStep retrieves a specific step from the specified workflow.
func (s *Step) GetStep(ctx context.Context, workflowID, stepID string) (*models.Step, error) {
	step, err := s.persistence.StepRepository().GetStepByWorkflow(ctx, workflowID, stepID)
	if err != nil {
		return nil, err
	}

	if step == nil {
		return nil, persistence.ErrStepNotFound
	}

	return step, nil
}

// CreateStep creates a new step in the specified workflow. The name is
// normalized to the internal key format and must be unique within the
// workflow.
func (s *Step) CreateStep(ctx context.Context, workflowID string, req *CreateStepRequest) (*models.Step, error) {
	workflow, err := s.fetchWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	step := &models.Step{
		ID:             uuid.New().String(),
		Name:           models.NormalizeStepName(req.Name),
		DisplayName:    strings.TrimSpace(req.DisplayName),
		Description:    strings.TrimSpace(req.Description),
		Type:           models.StepType(req.StepType),
		Color:          models.StepColor(req.Color),
		AllowedRoles:   toRoles(req.AllowedRoles),
		RequiredFields: req.RequiredFields,
		AutoAssign:     req.AutoAssign,
		NotifyRoles:    toRoles(req.NotifyRoles),
		NotifyClient:   req.NotifyClient,
		PositionX:      req.PositionX,
		PositionY:      req.PositionY,
	}

	if step.DisplayName == "" {
		step.DisplayName = strings.TrimSpace(req.Name)
	}

	if err := s.validateStep(step); err != nil {
		return nil, err
	}

	if existing := workflow.StepByName(step.Name); existing != nil {
		return nil, NewValidationError(
			"CreateStep",
			"DUPLICATE_STEP_NAME",
			fmt.Sprintf("a step named '%s' already exists in this workflow", step.Name),
			ErrDuplicateStepName,
		)
	}

	if err := s.persistence.StepRepository().SaveStep(ctx, workflowID, step); err != nil {
		return nil, fmt.Errorf("failed to save step: %w", err)
	}

	s.publish(ctx, workflowID, events.NewStepChanged(events.StepCreatedEvent, workflowID, step))

	return step, nil
}

// UpdateStep updates an existing step in the specified workflow. The step
// type is preserved; renames are re-normalized and re-checked for uniqueness.
func (s *Step) UpdateStep(ctx context.Context, workflowID, stepID string, req *UpdateStepRequest) (*models.Step, error) {
	workflow, err := s.fetchWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	existing, err := s.GetStep(ctx, workflowID, stepID)
	if err != nil {
		return nil, err
	}

	existing.Name = models.NormalizeStepName(req.Name)
	existing.DisplayName = strings.TrimSpace(req.DisplayName)
	existing.Description = strings.TrimSpace(req.Description)
	existing.Color = models.StepColor(req.Color)
	existing.AllowedRoles = toRoles(req.AllowedRoles)
	existing.RequiredFields = req.RequiredFields
	existing.AutoAssign = req.AutoAssign
	existing.NotifyRoles = toRoles(req.NotifyRoles)
	existing.NotifyClient = req.NotifyClient

	if existing.DisplayName == "" {
		existing.DisplayName = strings.TrimSpace(req.Name)
	}

	if err := s.validateStep(existing); err != nil {
		return nil, err
	}

	if other := workflow.StepByName(existing.Name); other != nil && other.ID != stepID {
		return nil, NewValidationError(
			"UpdateStep",
			"DUPLICATE_STEP_NAME",
			fmt.Sprintf("a step named '%s' already exists in this workflow", existing.Name),
			ErrDuplicateStepName,
		)
	}

	if err := s.persistence.StepRepository().SaveStep(ctx, workflowID, existing); err != nil {
		return nil, fmt.Errorf("failed to update step: %w", err)
	}

	s.publish(ctx, workflowID, events.NewStepChanged(events.StepUpdatedEvent, workflowID, existing))

	return existing, nil
}

// DeleteStep deletes a step and every transition that references it from the
// specified workflow.
func (s *Step) DeleteStep(ctx context.Context, workflowID, stepID string) error {
	if err := s.requireWorkflow(ctx, workflowID); err != nil {
		return err
	}

	step, err := s.GetStep(ctx, workflowID, stepID)
	if err != nil {
		return err
	}

	if err := s.persistence.StepRepository().DeleteStepWithTransitions(ctx, workflowID, stepID); err != nil {
		return fmt.Errorf("failed to delete step: %w", err)
	}

	s.publish(ctx, workflowID, events.NewStepChanged(events.StepDeletedEvent, workflowID, step))

	return nil
}

// UpdatePositions persists canvas coordinates for a batch of steps. Every
// referenced step must exist; the batch is applied atomically.
func (s *Step) UpdatePositions(ctx context.Context, workflowID string, positions []persistence.StepPosition) error {
	if len(positions) == 0 {
		return NewValidationError(
			"UpdatePositions",
			"EMPTY_POSITION_BATCH",
			"position update requires at least one step",
			ErrEmptyPositionBatch,
		)
	}

	if err := s.requireWorkflow(ctx, workflowID); err != nil {
		return err
	}

	if err := s.persistence.StepRepository().SavePositions(ctx, workflowID, positions); err != nil {
		return fmt.Errorf("failed to save positions: %w", err)
	}

	stepIDs := make([]string, 0, len(positions))
	for _, p := range positions {
		stepIDs = append(stepIDs, p.StepID)
	}

	s.publish(ctx, workflowID, events.NewStepsRepositioned(workflowID, stepIDs))

	return nil
}

func (s *Step) validateStep(step *models.Step) error {
	if step.Name == "" {
		return NewValidationError(
			"validateStep",
			"STEP_NAME_REQUIRED",
			"step name is required",
			ErrStepNameRequired,
		)
	}

	if !models.ValidStepType(step.Type) {
		return NewValidationError(
			"validateStep",
			"INVALID_STEP_TYPE",
			fmt.Sprintf("invalid step type '%s', allowed: start, normal, query, end", step.Type),
			ErrInvalidStepType,
		)
	}

	if !models.ValidStepColor(step.Color) {
		return NewValidationError(
			"validateStep",
			"INVALID_STEP_COLOR",
			fmt.Sprintf("invalid step color '%s'", step.Color),
			ErrInvalidStepColor,
		)
	}

	if !models.ValidRoles(step.AllowedRoles) || !models.ValidRoles(step.NotifyRoles) {
		return NewValidationError(
			"validateStep",
			"INVALID_ROLE",
			"one or more role identifiers are not recognized",
			ErrInvalidRole,
		)
	}

	return nil
}

func (s *Step) fetchWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if workflow == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	return workflow, nil
}

func (s *Step) requireWorkflow(ctx context.Context, workflowID string) error {
	_, err := s.fetchWorkflow(ctx, workflowID)

	return err
}

func (s *Step) publish(ctx context.Context, key string, event eventbus.Event) {
	publishEvent(ctx, s.publisher, s.logger, key, event)
}

// toRoles converts role identifiers, always returning a non-nil slice so an
// unrestricted set is stored and rendered as [] rather than null.
func toRoles(values []string) []models.Role {
	roles := make([]models.Role, 0, len(values))
	for _, v := range values {
		roles = append(roles, models.Role(v))
	}

	return roles
}

// nonNilRoles normalizes role sets arriving from documents or copies, which
// may be nil.
func nonNilRoles(roles []models.Role) []models.Role {
	if roles == nil {
		return []models.Role{}
	}

	return roles
}
