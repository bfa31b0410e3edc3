// Package file provides file-based persistence for workflows, steps and
// transitions. Each workflow is stored as a single JSON document with its
// graph embedded, so the step and transition repositories operate on the
// workflow document.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/praxisflow/praxis/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root           string
	workflowRepo   *WorkflowRepository
	stepRepo       *stepRepository
	transitionRepo *transitionRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	workflowRepo := NewWorkflowRepository(cleanRoot)

	return &Persistence{
		root:           cleanRoot,
		workflowRepo:   workflowRepo,
		stepRepo:       &stepRepository{workflows: workflowRepo},
		transitionRepo: &transitionRepository{workflows: workflowRepo},
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// WorkflowRepository returns the workflow repository implementation for file persistence.
func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

// StepRepository returns the step repository implementation for file persistence.
func (fp *Persistence) StepRepository() persistence.StepRepository {
	return fp.stepRepo
}

// TransitionRepository returns the transition repository implementation for file persistence.
func (fp *Persistence) TransitionRepository() persistence.TransitionRepository {
	return fp.transitionRepo
}
