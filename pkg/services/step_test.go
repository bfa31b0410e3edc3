package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

func TestStep_CreateStep(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	created, err := steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name:         "Awaiting Records",
		StepType:     "start",
		Color:        "blue",
		AllowedRoles: []string{"admin", "accountant"},
		PositionX:    120.5,
		PositionY:    80,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "awaiting_records", created.Name)
	assert.Equal(t, "Awaiting Records", created.DisplayName)
	assert.Equal(t, models.StepTypeStart, created.Type)
	assert.Equal(t, models.ColorBlue, created.Color)
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleAccountant}, created.AllowedRoles)
	assert.InDelta(t, 120.5, created.PositionX, 0.001)
}

func TestStep_CreateStep_EmptyRolesRenderAsList(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	created, err := steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name:     "Unrestricted",
		StepType: "normal",
	})
	require.NoError(t, err)

	require.NotNil(t, created.AllowedRoles)
	require.NotNil(t, created.NotifyRoles)

	data, err := json.Marshal(created)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"allowed_roles":[]`)
	assert.Contains(t, string(data), `"notify_roles":[]`)
}

func TestStep_CreateStep_NormalizesName(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	created, err := steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name:     "  Waiting   On Client  ",
		StepType: "query",
	})
	require.NoError(t, err)

	assert.Equal(t, "waiting_on_client", created.Name)
	assert.Equal(t, "Waiting   On Client", created.DisplayName)
}

func TestStep_CreateStep_DuplicateName(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	_, err = steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "In Progress", StepType: "normal",
	})
	require.NoError(t, err)

	// Same internal key after normalization.
	_, err = steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "IN   PROGRESS", StepType: "normal",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateStepName)
	assert.True(t, IsValidationError(err))
}

func TestStep_CreateStep_InvalidType(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	_, err = steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "Broken", StepType: "milestone",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStepType)
}

func TestStep_CreateStep_InvalidColor(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	_, err = steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "Broken", StepType: "normal", Color: "chartreuse",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStepColor)
}

func TestStep_CreateStep_InvalidRole(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	_, err = steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "Broken", StepType: "normal", AllowedRoles: []string{"intern"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestStep_CreateStep_WorkflowNotFound(t *testing.T) {
	_, steps, _, _ := newTestServices(t)

	_, err := steps.CreateStep(t.Context(), "missing", &CreateStepRequest{
		Name: "Orphan", StepType: "normal",
	})
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestStep_UpdateStep(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	created, err := steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "Draft", StepType: "normal",
	})
	require.NoError(t, err)

	updated, err := steps.UpdateStep(t.Context(), workflow.ID, created.ID, &UpdateStepRequest{
		Name:        "Under Review",
		DisplayName: "Under Review",
		Color:       "purple",
		NotifyRoles: []string{"senior_accountant"},
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "under_review", updated.Name)
	assert.Equal(t, models.ColorPurple, updated.Color)
	// Type survives updates.
	assert.Equal(t, models.StepTypeNormal, updated.Type)
}

func TestStep_UpdateStep_DuplicateNameRejected(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	_, err = steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "First", StepType: "normal",
	})
	require.NoError(t, err)

	second, err := steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "Second", StepType: "normal",
	})
	require.NoError(t, err)

	_, err = steps.UpdateStep(t.Context(), workflow.ID, second.ID, &UpdateStepRequest{Name: "First"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateStepName)
}

func TestStep_UpdateStep_SameNameAllowed(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	created, err := steps.CreateStep(t.Context(), workflow.ID, &CreateStepRequest{
		Name: "Stable", StepType: "normal",
	})
	require.NoError(t, err)

	_, err = steps.UpdateStep(t.Context(), workflow.ID, created.ID, &UpdateStepRequest{
		Name:  "Stable",
		Color: "yellow",
	})
	assert.NoError(t, err)
}

func TestStep_DeleteStep_CascadesTransitions(t *testing.T) {
	workflows, steps, transitions, _ := newTestServices(t)

	workflow, linear := createLinearWorkflow(t, workflows, steps, transitions)

	// Deleting the middle step removes both edges that touch it.
	require.NoError(t, steps.DeleteStep(t.Context(), workflow.ID, linear[1].ID))

	remaining, err := transitions.ListTransitions(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	remainingSteps, err := steps.ListSteps(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Len(t, remainingSteps, 2)
}

func TestStep_DeleteStep_NotFound(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	err = steps.DeleteStep(t.Context(), workflow.ID, "missing-step")
	assert.ErrorIs(t, err, persistence.ErrStepNotFound)
}

func TestStep_UpdatePositions(t *testing.T) {
	workflows, steps, transitions, _ := newTestServices(t)

	workflow, linear := createLinearWorkflow(t, workflows, steps, transitions)

	err := steps.UpdatePositions(t.Context(), workflow.ID, []persistence.StepPosition{
		{StepID: linear[0].ID, PositionX: 10, PositionY: 20},
		{StepID: linear[1].ID, PositionX: 200, PositionY: 20},
	})
	require.NoError(t, err)

	moved, err := steps.GetStep(t.Context(), workflow.ID, linear[0].ID)
	require.NoError(t, err)
	assert.InDelta(t, 10, moved.PositionX, 0.001)
	assert.InDelta(t, 20, moved.PositionY, 0.001)

	// Untouched steps keep their coordinates.
	untouched, err := steps.GetStep(t.Context(), workflow.ID, linear[2].ID)
	require.NoError(t, err)
	assert.InDelta(t, linear[2].PositionX, untouched.PositionX, 0.001)
}

func TestStep_UpdatePositions_UnknownStep(t *testing.T) {
	workflows, steps, transitions, _ := newTestServices(t)

	workflow, _ := createLinearWorkflow(t, workflows, steps, transitions)

	err := steps.UpdatePositions(t.Context(), workflow.ID, []persistence.StepPosition{
		{StepID: "missing-step", PositionX: 1, PositionY: 1},
	})
	assert.Error(t, err)
}

func TestStep_UpdatePositions_EmptyBatch(t *testing.T) {
	workflows, steps, _, _ := newTestServices(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Onboarding"})
	require.NoError(t, err)

	err = steps.UpdatePositions(t.Context(), workflow.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyPositionBatch)
}
