package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
	"github.com/praxisflow/praxis/pkg/persistence/file"
	"github.com/praxisflow/praxis/pkg/validation"
)

const seedYAML = `
workflows:
  - name: Standard Workflow
    description: Default service workflow
    is_default: true
    steps:
      - name: Received
        type: start
        color: gray
      - name: In Progress
        type: normal
        color: blue
        roles: [accountant, senior_accountant]
      - name: Completed
        type: end
        color: green
    transitions:
      - from: Received
        to: In Progress
        name: Begin work
      - from: In Progress
        to: Completed
        name: Finish
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workflows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadSeedFile(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)

	require.Len(t, seed.Workflows, 1)
	assert.Equal(t, "Standard Workflow", seed.Workflows[0].Name)
	assert.True(t, seed.Workflows[0].IsDefault)
	assert.Len(t, seed.Workflows[0].Steps, 3)
	assert.Len(t, seed.Workflows[0].Transitions, 2)
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestSeedFile_Apply(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)

	store := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, seed.Apply(t.Context(), logger, store))

	seeded, err := store.WorkflowRepository().GetDefault(t.Context())
	require.NoError(t, err)
	require.NotNil(t, seeded)

	assert.Equal(t, "Standard Workflow", seeded.Name)
	assert.True(t, seeded.IsActive)
	require.Len(t, seeded.Steps, 3)
	assert.Equal(t, "received", seeded.Steps[0].Name)
	assert.Equal(t, "Received", seeded.Steps[0].DisplayName)

	// Seeded graphs validate clean.
	result := validation.ValidateWorkflow(seeded)
	assert.True(t, result.Valid)

	// Applying twice is idempotent.
	require.NoError(t, seed.Apply(t.Context(), logger, store))

	all, err := store.WorkflowRepository().ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all.Workflows, 1)
}

func TestSeedFile_Apply_DetectsSeedBeyondFirstPage(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)

	store := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := store.WorkflowRepository()

	// The seeded name is created first so the default created_at desc sort
	// pushes it past the first listing page.
	require.NoError(t, repo.Save(t.Context(), &models.Workflow{
		ID:   "wf-seeded",
		Name: "Standard Workflow",
	}))

	for i := 0; i < 105; i++ {
		require.NoError(t, repo.Save(t.Context(), &models.Workflow{
			ID:   fmt.Sprintf("wf-%03d", i),
			Name: fmt.Sprintf("Workflow %03d", i),
		}))
	}

	require.NoError(t, seed.Apply(t.Context(), logger, store))

	all, err := repo.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(106), all.TotalCount, "existing seed name must be detected, not re-created")
}

func TestSeedFile_Apply_RejectsBrokenSeed(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, `
workflows:
  - name: Broken
    steps:
      - name: Only
        type: milestone
`))
	require.NoError(t, err)

	store := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Error(t, seed.Apply(t.Context(), logger, store))
}

func TestSeedWorkflow_BuildRemapsTransitions(t *testing.T) {
	seed := SeedWorkflow{
		Name: "Remap",
		Steps: []SeedStep{
			{Name: "Start Here", Type: "start"},
			{Name: "End Here", Type: "end"},
		},
		Transitions: []SeedTransition{
			{From: "start here", To: "END HERE"},
		},
	}

	workflow, err := seed.build()
	require.NoError(t, err)

	require.Len(t, workflow.Transitions, 1)
	assert.Equal(t, workflow.Steps[0].ID, workflow.Transitions[0].FromStepID)
	assert.Equal(t, workflow.Steps[1].ID, workflow.Transitions[0].ToStepID)
	assert.Equal(t, models.DefaultTransitionName, workflow.Transitions[0].Name)
}
