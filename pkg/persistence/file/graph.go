package file

// Step and transition repositories for file persistence. They work by reading
// the workflow document, mutating the embedded graph and writing it back.

import (
	"context"
	"fmt"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

type stepRepository struct {
	workflows *WorkflowRepository
}

func (sr *stepRepository) GetStepsByWorkflow(ctx context.Context, workflowID string) ([]*models.Step, error) {
	workflow, err := sr.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return workflow.Steps, nil
}

func (sr *stepRepository) GetStepByWorkflow(ctx context.Context, workflowID, stepID string) (*models.Step, error) {
	workflow, err := sr.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	step := workflow.StepByID(stepID)
	if step == nil {
		return nil, &persistence.StepError{Op: "GetStepByWorkflow", WorkflowID: workflowID, StepID: stepID, Err: persistence.ErrStepNotFound}
	}

	return step, nil
}

func (sr *stepRepository) SaveStep(ctx context.Context, workflowID string, step *models.Step) error {
	workflow, err := sr.load(ctx, workflowID)
	if err != nil {
		return err
	}

	for i, existing := range workflow.Steps {
		if existing.ID == step.ID {
			workflow.Steps[i] = step

			return sr.workflows.Save(ctx, workflow)
		}
	}

	workflow.Steps = append(workflow.Steps, step)

	return sr.workflows.Save(ctx, workflow)
}

func (sr *stepRepository) DeleteStepWithTransitions(ctx context.Context, workflowID, stepID string) error {
	workflow, err := sr.load(ctx, workflowID)
	if err != nil {
		return err
	}

	found := false
	steps := make([]*models.Step, 0, len(workflow.Steps))

	for _, step := range workflow.Steps {
		if step.ID == stepID {
			found = true

			continue
		}

		steps = append(steps, step)
	}

	if !found {
		return &persistence.StepError{Op: "DeleteStepWithTransitions", WorkflowID: workflowID, StepID: stepID, Err: persistence.ErrStepNotFound}
	}

	transitions := make([]*models.Transition, 0, len(workflow.Transitions))

	for _, transition := range workflow.Transitions {
		if transition.FromStepID == stepID || transition.ToStepID == stepID {
			continue
		}

		transitions = append(transitions, transition)
	}

	workflow.Steps = steps
	workflow.Transitions = transitions

	return sr.workflows.Save(ctx, workflow)
}

func (sr *stepRepository) SavePositions(ctx context.Context, workflowID string, positions []persistence.StepPosition) error {
	workflow, err := sr.load(ctx, workflowID)
	if err != nil {
		return err
	}

	for _, position := range positions {
		step := workflow.StepByID(position.StepID)
		if step == nil {
			return &persistence.StepError{Op: "SavePositions", WorkflowID: workflowID, StepID: position.StepID, Err: persistence.ErrStepNotFound}
		}

		step.PositionX = position.PositionX
		step.PositionY = position.PositionY
	}

	return sr.workflows.Save(ctx, workflow)
}

func (sr *stepRepository) load(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := sr.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow %s: %w", workflowID, err)
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("load", workflowID, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

type transitionRepository struct {
	workflows *WorkflowRepository
}

func (tr *transitionRepository) GetTransitionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Transition, error) {
	workflow, err := tr.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return workflow.Transitions, nil
}

func (tr *transitionRepository) GetTransitionByWorkflow(ctx context.Context, workflowID, transitionID string) (*models.Transition, error) {
	workflow, err := tr.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	transition := workflow.TransitionByID(transitionID)
	if transition == nil {
		return nil, &persistence.TransitionError{Op: "GetTransitionByWorkflow", WorkflowID: workflowID, TransitionID: transitionID, Err: persistence.ErrTransitionNotFound}
	}

	return transition, nil
}

func (tr *transitionRepository) SaveTransition(ctx context.Context, workflowID string, transition *models.Transition) error {
	workflow, err := tr.load(ctx, workflowID)
	if err != nil {
		return err
	}

	for i, existing := range workflow.Transitions {
		if existing.ID == transition.ID {
			workflow.Transitions[i] = transition

			return tr.workflows.Save(ctx, workflow)
		}
	}

	workflow.Transitions = append(workflow.Transitions, transition)

	return tr.workflows.Save(ctx, workflow)
}

func (tr *transitionRepository) DeleteTransition(ctx context.Context, workflowID, transitionID string) error {
	workflow, err := tr.load(ctx, workflowID)
	if err != nil {
		return err
	}

	for i, transition := range workflow.Transitions {
		if transition.ID == transitionID {
			workflow.Transitions = append(workflow.Transitions[:i], workflow.Transitions[i+1:]...)

			return tr.workflows.Save(ctx, workflow)
		}
	}

	return &persistence.TransitionError{Op: "DeleteTransition", WorkflowID: workflowID, TransitionID: transitionID, Err: persistence.ErrTransitionNotFound}
}

func (tr *transitionRepository) load(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := tr.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow %s: %w", workflowID, err)
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("load", workflowID, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}
