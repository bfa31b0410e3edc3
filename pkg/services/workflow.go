// Package services implements the business rules for workflow authoring.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/praxisflow/praxis/pkg/eventbus"
	"github.com/praxisflow/praxis/pkg/events"
	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "workflow_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	// Pagination
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0"`

	// Filtering
	ActiveOnly bool

	// Sorting
	SortBy    string `validate:"oneof=created_at updated_at name"`
	SortOrder string `validate:"oneof=asc desc"`

	// Data Loading Control
	IncludeGraph bool
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

// ListWorkflows retrieves workflows with filtering, sorting, and pagination.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	if err := w.validateListWorkflowsRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	opts := persistence.ListWorkflowsOptions{
		Limit:        req.Limit,
		Offset:       req.Offset,
		ActiveOnly:   req.ActiveOnly,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
		IncludeGraph: req.IncludeGraph,
	}

	result, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return &ListWorkflowsResponse{
		Workflows:   result.Workflows,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListWorkflowsRequest validates and sets defaults for the request.
func (w *Workflow) validateListWorkflowsRequest(req *ListWorkflowsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "name"}

	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	return nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// CreateWorkflowRequest holds the caller-supplied fields for a new workflow.
type CreateWorkflowRequest struct {
	Name        string `validate:"required,min=1,max=255"`
	Description string `validate:"max=2000"`
}

// Create adds a new, empty workflow to the repository. New workflows start
// active with no steps; the graph is built incrementally by the editor.
func (w *Workflow) Create(ctx context.Context, req CreateWorkflowRequest) (*models.Workflow, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError(
			"Create",
			"WORKFLOW_NAME_REQUIRED",
			"workflow name is required",
			ErrWorkflowNameRequired,
		)
	}

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
		Steps:       []*models.Step{},
		Transitions: []*models.Transition{},
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.publish(ctx, workflow.ID, events.NewWorkflowChanged(events.WorkflowCreatedEvent, workflow))

	return workflow, nil
}

// UpdateWorkflowRequest holds the mutable top-level fields of a workflow.
// Nil fields are left unchanged, making updates partial. ExpectedVersion,
// when non-zero, must match the stored version.
type UpdateWorkflowRequest struct {
	Name            *string `validate:"omitempty,min=1,max=255"`
	Description     *string `validate:"omitempty,max=2000"`
	ExpectedVersion int64   `validate:"min=0"`
}

// Update modifies the name and description of an existing workflow. Only the
// fields present in the request are touched.
func (w *Workflow) Update(ctx context.Context, workflowID string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if req.ExpectedVersion != 0 && req.ExpectedVersion != existing.Version {
		return nil, &ServiceError{
			Op:      "Update",
			Code:    "VERSION_CONFLICT",
			Message: fmt.Sprintf("workflow changed since version %d", req.ExpectedVersion),
			Err:     ErrVersionConflict,
		}
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewValidationError(
				"Update",
				"WORKFLOW_NAME_REQUIRED",
				"workflow name is required",
				ErrWorkflowNameRequired,
			)
		}

		existing.Name = name
	}

	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.publish(ctx, existing.ID, events.NewWorkflowChanged(events.WorkflowUpdatedEvent, existing))

	return existing, nil
}

// Activate marks a workflow as available for assignment to services.
func (w *Workflow) Activate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.IsActive {
		return existing, nil
	}

	existing.IsActive = true

	if err := w.persistence.WorkflowRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to activate workflow: %w", err)
	}

	w.publish(ctx, existing.ID, events.NewWorkflowChanged(events.WorkflowActivatedEvent, existing))

	return existing, nil
}

// Deactivate hides a workflow from assignment. The default workflow must
// always remain available, so deactivating it is rejected.
func (w *Workflow) Deactivate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.IsDefault {
		return nil, &ServiceError{
			Op:      "Deactivate",
			Code:    "DEFAULT_WORKFLOW_DEACTIVATE",
			Message: "the default workflow cannot be deactivated",
			Err:     ErrDefaultWorkflowDeactivate,
		}
	}

	if !existing.IsActive {
		return existing, nil
	}

	existing.IsActive = false

	if err := w.persistence.WorkflowRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to deactivate workflow: %w", err)
	}

	w.publish(ctx, existing.ID, events.NewWorkflowChanged(events.WorkflowDeactivatedEvent, existing))

	return existing, nil
}

// Delete removes a workflow by its ID. The default workflow cannot be deleted.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return err
	}

	if existing.IsDefault {
		return &ServiceError{
			Op:      "Delete",
			Code:    "DEFAULT_WORKFLOW_DELETE",
			Message: "the default workflow cannot be deleted",
			Err:     ErrDefaultWorkflowDelete,
		}
	}

	if err := w.persistence.WorkflowRepository().Delete(ctx, workflowID); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.publish(ctx, workflowID, events.NewWorkflowChanged(events.WorkflowDeletedEvent, existing))

	return nil
}

// Duplicate deep-copies a workflow, its steps, and its transitions under a
// new identity. Step and transition IDs are remapped so the copy is fully
// independent of the source. An empty name falls back to the source name with
// a " (Copy)" suffix. The copy starts inactive and is never default.
func (w *Workflow) Duplicate(ctx context.Context, workflowID, name string) (*models.Workflow, error) {
	source, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = duplicateName(source.Name)
	}

	duplicate := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Description: source.Description,
		IsActive:    false,
		IsDefault:   false,
		Steps:       make([]*models.Step, 0, len(source.Steps)),
		Transitions: make([]*models.Transition, 0, len(source.Transitions)),
	}

	stepIDs := make(map[string]string, len(source.Steps))

	for _, step := range source.Steps {
		cloned := *step
		cloned.ID = uuid.New().String()
		cloned.AllowedRoles = nonNilRoles(slices.Clone(step.AllowedRoles))
		cloned.RequiredFields = slices.Clone(step.RequiredFields)
		cloned.NotifyRoles = nonNilRoles(slices.Clone(step.NotifyRoles))
		stepIDs[step.ID] = cloned.ID
		duplicate.Steps = append(duplicate.Steps, &cloned)
	}

	for _, transition := range source.Transitions {
		fromID, fromOK := stepIDs[transition.FromStepID]
		toID, toOK := stepIDs[transition.ToStepID]

		// Orphaned edges do not survive duplication.
		if !fromOK || !toOK {
			continue
		}

		cloned := *transition
		cloned.ID = uuid.New().String()
		cloned.FromStepID = fromID
		cloned.ToStepID = toID
		cloned.AllowedRoles = nonNilRoles(slices.Clone(transition.AllowedRoles))
		duplicate.Transitions = append(duplicate.Transitions, &cloned)
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, duplicate); err != nil {
		return nil, fmt.Errorf("failed to duplicate workflow: %w", err)
	}

	w.publish(ctx, duplicate.ID, events.NewWorkflowDuplicated(source.ID, duplicate))

	return duplicate, nil
}

func duplicateName(name string) string {
	suffixed := name + " (Copy)"
	if len(suffixed) > 255 {
		return suffixed[:255]
	}

	return suffixed
}

func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	publishEvent(ctx, w.publisher, w.logger, key, event)
}

// publishEvent sends a lifecycle event on the bus. Publishing is best-effort:
// a bus failure is logged but never fails the mutation that triggered it.
func publishEvent(
	ctx context.Context,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
	key string,
	event eventbus.Event,
) {
	if publisher == nil {
		return
	}

	if err := publisher.Publish(ctx, key, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.GetType(),
			"key", key,
			"error", err,
		)
	}
}
