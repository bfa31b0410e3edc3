package models

import "time"

// Workflow is a named graph of steps and transitions modeling how a service
// request progresses through the practice. Steps and transitions are added
// incrementally once the workflow has a persisted id; a workflow is created
// with name and description only.
type Workflow struct {
	ID          string `json:"id"`
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description"`

	// Inactive workflows are excluded from active-only listings and cannot
	// be assigned to new services.
	IsActive bool `json:"is_active"`
	// The default workflow is the fallback for services without an explicit
	// workflow. It cannot be deleted or deactivated.
	IsDefault bool `json:"is_default"`

	Steps       []*Step       `json:"steps"`
	Transitions []*Transition `json:"transitions"`

	// ServiceCount is derived and read-only: the number of services
	// currently bound to this workflow.
	ServiceCount int64 `json:"service_count"`

	// Version increments on every structural or metadata change and backs
	// optimistic concurrency: stale writes are rejected.
	Version int64 `json:"version"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// StepByID returns the step with the given id, or nil.
func (w *Workflow) StepByID(id string) *Step {
	for _, s := range w.Steps {
		if s.ID == id {
			return s
		}
	}

	return nil
}

// StepByName returns the step with the given internal name, or nil.
func (w *Workflow) StepByName(name string) *Step {
	for _, s := range w.Steps {
		if s.Name == name {
			return s
		}
	}

	return nil
}

// TransitionByID returns the transition with the given id, or nil.
func (w *Workflow) TransitionByID(id string) *Transition {
	for _, t := range w.Transitions {
		if t.ID == id {
			return t
		}
	}

	return nil
}

// TransitionsTouching returns every transition that references the step as
// either endpoint. Used to cascade transition deletion when a step is removed.
func (w *Workflow) TransitionsTouching(stepID string) []*Transition {
	touching := make([]*Transition, 0)

	for _, t := range w.Transitions {
		if t.FromStepID == stepID || t.ToStepID == stepID {
			touching = append(touching, t)
		}
	}

	return touching
}
