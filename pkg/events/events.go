// Package events defines event types published on workflow authoring changes.
// Downstream CRM consumers (notification fan-out, auto-assignment, service
// status tracking) subscribe to these.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/validation"
)

type EventType string

// Kafka topic for workflow authoring events.
const Topic = "praxis.workflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowCreatedEvent     EventType = "workflow.created"
	WorkflowUpdatedEvent     EventType = "workflow.updated"
	WorkflowDeletedEvent     EventType = "workflow.deleted"
	WorkflowActivatedEvent   EventType = "workflow.activated"
	WorkflowDeactivatedEvent EventType = "workflow.deactivated"
	WorkflowDuplicatedEvent  EventType = "workflow.duplicated"
	WorkflowValidatedEvent   EventType = "workflow.validated"

	// Graph mutation events.
	StepCreatedEvent       EventType = "workflow.step.created"
	StepUpdatedEvent       EventType = "workflow.step.updated"
	StepDeletedEvent       EventType = "workflow.step.deleted"
	StepsRepositionedEvent EventType = "workflow.steps.repositioned"

	TransitionCreatedEvent EventType = "workflow.transition.created"
	TransitionUpdatedEvent EventType = "workflow.transition.updated"
	TransitionDeletedEvent EventType = "workflow.transition.deleted"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

func (e BaseEvent) GetType() EventType {
	return e.Type
}

// WorkflowChanged covers workflow lifecycle events; Version carries the
// workflow version after the change.
type WorkflowChanged struct {
	BaseEvent

	Name    string `json:"name"`
	Version int64  `json:"version"`
}

// NewWorkflowChanged builds a lifecycle event for the given workflow.
func NewWorkflowChanged(eventType EventType, workflow *models.Workflow) WorkflowChanged {
	return WorkflowChanged{
		BaseEvent: NewBaseEvent(eventType, workflow.ID),
		Name:      workflow.Name,
		Version:   workflow.Version,
	}
}

// WorkflowDuplicated is published after a deep copy completes.
type WorkflowDuplicated struct {
	BaseEvent

	SourceWorkflowID string `json:"source_workflow_id"`
	Name             string `json:"name"`
	StepCount        int    `json:"step_count"`
	TransitionCount  int    `json:"transition_count"`
}

// NewWorkflowDuplicated builds the event for a completed duplication; the
// envelope references the copy, SourceWorkflowID the original.
func NewWorkflowDuplicated(sourceID string, copy *models.Workflow) WorkflowDuplicated {
	return WorkflowDuplicated{
		BaseEvent:        NewBaseEvent(WorkflowDuplicatedEvent, copy.ID),
		SourceWorkflowID: sourceID,
		Name:             copy.Name,
		StepCount:        len(copy.Steps),
		TransitionCount:  len(copy.Transitions),
	}
}

// StepChanged covers step create/update/delete.
type StepChanged struct {
	BaseEvent

	StepID   string `json:"step_id"`
	StepName string `json:"step_name"`
}

// NewStepChanged builds a graph mutation event for a single step.
func NewStepChanged(eventType EventType, workflowID string, step *models.Step) StepChanged {
	return StepChanged{
		BaseEvent: NewBaseEvent(eventType, workflowID),
		StepID:    step.ID,
		StepName:  step.Name,
	}
}

// StepsRepositioned is published after a batch canvas-position sync.
type StepsRepositioned struct {
	BaseEvent

	StepIDs []string `json:"step_ids"`
}

// NewStepsRepositioned builds the event for a batch position update.
func NewStepsRepositioned(workflowID string, stepIDs []string) StepsRepositioned {
	return StepsRepositioned{
		BaseEvent: NewBaseEvent(StepsRepositionedEvent, workflowID),
		StepIDs:   stepIDs,
	}
}

// TransitionChanged covers transition create/update/delete.
type TransitionChanged struct {
	BaseEvent

	TransitionID string `json:"transition_id"`
	FromStepID   string `json:"from_step_id"`
	ToStepID     string `json:"to_step_id"`
}

// NewTransitionChanged builds a graph mutation event for a single transition.
func NewTransitionChanged(eventType EventType, workflowID string, transition *models.Transition) TransitionChanged {
	return TransitionChanged{
		BaseEvent:    NewBaseEvent(eventType, workflowID),
		TransitionID: transition.ID,
		FromStepID:   transition.FromStepID,
		ToStepID:     transition.ToStepID,
	}
}

// WorkflowValidated carries a validation verdict, published whenever the
// graph is revalidated (on demand or by the integrity sweeper).
type WorkflowValidated struct {
	BaseEvent

	Version int64             `json:"version"`
	Result  validation.Result `json:"result"`
}

// NewWorkflowValidated builds the event for a validation verdict.
func NewWorkflowValidated(workflowID string, version int64, result validation.Result) WorkflowValidated {
	return WorkflowValidated{
		BaseEvent: NewBaseEvent(WorkflowValidatedEvent, workflowID),
		Version:   version,
		Result:    result,
	}
}
