package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

func TestPersistence_Close(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.Close(t.Context()))
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(t.Context()))
}

func linearWorkflow(id string) *models.Workflow {
	return &models.Workflow{
		ID:   id,
		Name: "Test Workflow",
		Steps: []*models.Step{
			{ID: "s1", Name: "received", DisplayName: "Received", Type: models.StepTypeStart},
			{ID: "s2", Name: "in_progress", DisplayName: "In Progress", Type: models.StepTypeNormal, Color: models.ColorBlue},
			{ID: "s3", Name: "completed", DisplayName: "Completed", Type: models.StepTypeEnd},
		},
		Transitions: []*models.Transition{
			{ID: "t1", FromStepID: "s1", ToStepID: "s2", Name: "Begin"},
			{ID: "t2", FromStepID: "s2", ToStepID: "s3", Name: "Finish"},
		},
	}
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	testDir := t.TempDir()
	p := NewPersistence(testDir)
	repo := p.WorkflowRepository()

	workflow := linearWorkflow("wf-1")
	require.NoError(t, repo.Save(t.Context(), workflow))

	// Document lands on disk under workflows/.
	_, err := os.Stat(filepath.Join(testDir, "workflows", "wf-1.json"))
	require.NoError(t, err)

	assert.False(t, workflow.CreatedAt.IsZero())
	assert.False(t, workflow.UpdatedAt.IsZero())
	assert.Equal(t, int64(1), workflow.Version)

	loaded, err := repo.GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, workflow.Name, loaded.Name)
	require.Len(t, loaded.Steps, 3)
	require.Len(t, loaded.Transitions, 2)
	assert.Equal(t, models.ColorBlue, loaded.Steps[1].Color)
}

func TestWorkflowRepository_GetByID_Missing(t *testing.T) {
	p := NewPersistence(t.TempDir())

	loaded, err := p.WorkflowRepository().GetByID(t.Context(), "nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestWorkflowRepository_SaveBumpsVersion(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	workflow := linearWorkflow("wf-1")
	require.NoError(t, repo.Save(t.Context(), workflow))
	require.NoError(t, repo.Save(t.Context(), workflow))
	require.NoError(t, repo.Save(t.Context(), workflow))

	loaded, err := repo.GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), loaded.Version)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	require.NoError(t, repo.Save(t.Context(), linearWorkflow("wf-1")))
	require.NoError(t, repo.Delete(t.Context(), "wf-1"))

	loaded, err := repo.GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting a missing workflow is not an error.
	assert.NoError(t, repo.Delete(t.Context(), "wf-1"))
}

func TestWorkflowRepository_ListWorkflows(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	names := []string{"Gamma", "Alpha", "Beta"}
	for i, name := range names {
		workflow := linearWorkflow("wf-" + name)
		workflow.Name = name
		workflow.IsActive = i != 0 // Gamma inactive
		require.NoError(t, repo.Save(t.Context(), workflow))
	}

	result, err := repo.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)

	require.Len(t, result.Workflows, 3)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.Equal(t, "Alpha", result.Workflows[0].Name)
	assert.Equal(t, "Gamma", result.Workflows[2].Name)

	active, err := repo.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active.Workflows, 2)
}

func TestWorkflowRepository_ListWorkflows_Pagination(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	for _, suffix := range []string{"a", "b", "c"} {
		workflow := linearWorkflow("wf-" + suffix)
		workflow.Name = suffix
		require.NoError(t, repo.Save(t.Context(), workflow))
	}

	page, err := repo.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{
		Limit:     2,
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)

	assert.Len(t, page.Workflows, 2)
	assert.True(t, page.HasNextPage)

	rest, err := repo.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{
		Limit:     2,
		Offset:    2,
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)

	assert.Len(t, rest.Workflows, 1)
	assert.False(t, rest.HasNextPage)
}

func TestWorkflowRepository_GetDefault(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	none, err := repo.GetDefault(t.Context())
	require.NoError(t, err)
	assert.Nil(t, none)

	standard := linearWorkflow("wf-default")
	standard.IsDefault = true
	require.NoError(t, repo.Save(t.Context(), standard))
	require.NoError(t, repo.Save(t.Context(), linearWorkflow("wf-other")))

	found, err := repo.GetDefault(t.Context())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "wf-default", found.ID)
}

func TestStepRepository_SaveAndDelete(t *testing.T) {
	p := NewPersistence(t.TempDir())
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), linearWorkflow("wf-1")))

	steps := p.StepRepository()

	loaded, err := steps.GetStepByWorkflow(t.Context(), "wf-1", "s2")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", loaded.Name)

	loaded.Color = models.ColorRed
	require.NoError(t, steps.SaveStep(t.Context(), "wf-1", loaded))

	reloaded, err := steps.GetStepByWorkflow(t.Context(), "wf-1", "s2")
	require.NoError(t, err)
	assert.Equal(t, models.ColorRed, reloaded.Color)

	// Deleting s2 cascades to both transitions that touch it.
	require.NoError(t, steps.DeleteStepWithTransitions(t.Context(), "wf-1", "s2"))

	workflow, err := p.WorkflowRepository().GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Len(t, workflow.Steps, 2)
	assert.Empty(t, workflow.Transitions)

	err = steps.DeleteStepWithTransitions(t.Context(), "wf-1", "s2")
	assert.ErrorIs(t, err, persistence.ErrStepNotFound)
}

func TestStepRepository_SavePositions(t *testing.T) {
	p := NewPersistence(t.TempDir())
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), linearWorkflow("wf-1")))

	steps := p.StepRepository()

	err := steps.SavePositions(t.Context(), "wf-1", []persistence.StepPosition{
		{StepID: "s1", PositionX: 50, PositionY: 75.5},
	})
	require.NoError(t, err)

	moved, err := steps.GetStepByWorkflow(t.Context(), "wf-1", "s1")
	require.NoError(t, err)
	assert.InDelta(t, 50, moved.PositionX, 0.001)
	assert.InDelta(t, 75.5, moved.PositionY, 0.001)

	err = steps.SavePositions(t.Context(), "wf-1", []persistence.StepPosition{
		{StepID: "ghost", PositionX: 1, PositionY: 1},
	})
	assert.ErrorIs(t, err, persistence.ErrStepNotFound)
}

func TestTransitionRepository_CRUD(t *testing.T) {
	p := NewPersistence(t.TempDir())
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), linearWorkflow("wf-1")))

	transitions := p.TransitionRepository()

	all, err := transitions.GetTransitionsByWorkflow(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	loaded, err := transitions.GetTransitionByWorkflow(t.Context(), "wf-1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "s1", loaded.FromStepID)

	loaded.RequiresInvoicePaid = true
	require.NoError(t, transitions.SaveTransition(t.Context(), "wf-1", loaded))

	reloaded, err := transitions.GetTransitionByWorkflow(t.Context(), "wf-1", "t1")
	require.NoError(t, err)
	assert.True(t, reloaded.RequiresInvoicePaid)

	require.NoError(t, transitions.DeleteTransition(t.Context(), "wf-1", "t1"))

	_, err = transitions.GetTransitionByWorkflow(t.Context(), "wf-1", "t1")
	assert.ErrorIs(t, err, persistence.ErrTransitionNotFound)

	err = transitions.DeleteTransition(t.Context(), "wf-1", "t1")
	assert.ErrorIs(t, err, persistence.ErrTransitionNotFound)
}
