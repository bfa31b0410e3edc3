// Package persistence provides the data storage abstraction for workflows,
// steps and transitions.
package persistence

import (
	"context"

	"github.com/praxisflow/praxis/pkg/models"
)

// Persistence is the storage entry point. Implementations expose typed
// repositories plus lifecycle hooks.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	StepRepository() StepRepository
	TransitionRepository() TransitionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ListWorkflowsOptions controls filtering, sorting and pagination of workflow
// listings.
type ListWorkflowsOptions struct {
	Limit  int
	Offset int

	// ActiveOnly excludes inactive workflows, matching the editor's
	// "active_only" listing filter.
	ActiveOnly bool

	SortBy    string // created_at, updated_at, name
	SortOrder string // asc, desc

	// IncludeGraph loads steps and transitions; listings that only feed a
	// table can skip the graph.
	IncludeGraph bool
}

// WorkflowListResult is a page of workflows plus pagination metadata.
type WorkflowListResult struct {
	Workflows   []*models.Workflow
	TotalCount  int64
	HasNextPage bool
}

// WorkflowRepository stores workflow aggregates. GetByID returns (nil, nil)
// when no workflow exists with the given id.
type WorkflowRepository interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error

	// GetDefault returns the current default workflow, or (nil, nil) when
	// none is flagged.
	GetDefault(ctx context.Context) (*models.Workflow, error)
}

// StepRepository stores steps scoped to a workflow.
type StepRepository interface {
	GetStepsByWorkflow(ctx context.Context, workflowID string) ([]*models.Step, error)
	GetStepByWorkflow(ctx context.Context, workflowID, stepID string) (*models.Step, error)
	SaveStep(ctx context.Context, workflowID string, step *models.Step) error
	// DeleteStepWithTransitions removes the step and every transition that
	// references it as either endpoint, atomically.
	DeleteStepWithTransitions(ctx context.Context, workflowID, stepID string) error
	// SavePositions persists canvas coordinates for the given steps only.
	SavePositions(ctx context.Context, workflowID string, positions []StepPosition) error
}

// StepPosition is one entry of a batch canvas-position update.
type StepPosition struct {
	StepID    string  `json:"step_id"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
}

// TransitionRepository stores transitions scoped to a workflow.
type TransitionRepository interface {
	GetTransitionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Transition, error)
	GetTransitionByWorkflow(ctx context.Context, workflowID, transitionID string) (*models.Transition, error)
	SaveTransition(ctx context.Context, workflowID string, transition *models.Transition) error
	DeleteTransition(ctx context.Context, workflowID, transitionID string) error
}
