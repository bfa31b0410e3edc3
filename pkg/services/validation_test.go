package services

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisflow/praxis/pkg/events"
	"github.com/praxisflow/praxis/pkg/persistence/file"
	"github.com/praxisflow/praxis/pkg/validation"
)

// memoryVerdictCache is an in-process VerdictCache for observing hits.
type memoryVerdictCache struct {
	mu      sync.Mutex
	store   map[string]validation.Result
	getHits int
	sets    int
}

func newMemoryVerdictCache() *memoryVerdictCache {
	return &memoryVerdictCache{store: make(map[string]validation.Result)}
}

func (c *memoryVerdictCache) key(workflowID string, version int64) string {
	return workflowID + ":" + strconv.FormatInt(version, 10)
}

func (c *memoryVerdictCache) Get(_ context.Context, workflowID string, version int64) (*validation.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.store[c.key(workflowID, version)]
	if !ok {
		return nil, nil
	}

	c.getHits++

	return &result, nil
}

func (c *memoryVerdictCache) Set(_ context.Context, workflowID string, version int64, result validation.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++
	c.store[c.key(workflowID, version)] = result

	return nil
}

func newValidationFixture(t *testing.T) (*Workflow, *Step, *Transition, *Validation, *memoryVerdictCache, *capturePublisher) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	verdicts := newMemoryVerdictCache()
	logger := testLogger()

	return NewWorkflow(persistence, publisher, logger),
		NewStep(persistence, publisher, logger),
		NewTransition(persistence, publisher, logger),
		NewValidation(persistence, verdicts, publisher, logger),
		verdicts,
		publisher
}

func TestValidation_ValidWorkflow(t *testing.T) {
	workflows, steps, transitions, validator, _, publisher := newValidationFixture(t)

	workflow, _ := createLinearWorkflow(t, workflows, steps, transitions)

	result, err := validator.ValidateWorkflow(t.Context(), workflow.ID)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors())

	var validated *events.WorkflowValidated

	for _, evt := range publisher.published() {
		if wv, ok := evt.(events.WorkflowValidated); ok {
			validated = &wv
		}
	}

	require.NotNil(t, validated)
	assert.True(t, validated.Result.Valid)
}

func TestValidation_EmptyWorkflowInvalid(t *testing.T) {
	workflows, _, _, validator, _, _ := newValidationFixture(t)

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Empty"})
	require.NoError(t, err)

	result, err := validator.ValidateWorkflow(t.Context(), workflow.ID)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors())
}

func TestValidation_WorkflowNotFound(t *testing.T) {
	_, _, _, validator, _, _ := newValidationFixture(t)

	_, err := validator.ValidateWorkflow(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestValidation_VerdictCachedPerVersion(t *testing.T) {
	workflows, steps, transitions, validator, verdicts, _ := newValidationFixture(t)

	workflow, linear := createLinearWorkflow(t, workflows, steps, transitions)

	first, err := validator.ValidateWorkflow(t.Context(), workflow.ID)
	require.NoError(t, err)
	require.True(t, first.Valid)
	assert.Equal(t, 1, verdicts.sets)

	// Same version: served from cache, no recomputation stored.
	second, err := validator.ValidateWorkflow(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Valid, second.Valid)
	assert.Equal(t, 1, verdicts.sets)
	assert.Equal(t, 1, verdicts.getHits)

	// A structural edit bumps the version, so the stale verdict is bypassed.
	require.NoError(t, steps.DeleteStep(t.Context(), workflow.ID, linear[2].ID))

	third, err := validator.ValidateWorkflow(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.False(t, third.Valid)
	assert.Equal(t, 2, verdicts.sets)
}

func TestValidation_NilCacheUsesNoop(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	workflows := NewWorkflow(persistence, nil, testLogger())
	validator := NewValidation(persistence, nil, nil, testLogger())

	workflow, err := workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Uncached"})
	require.NoError(t, err)

	result, err := validator.ValidateWorkflow(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}
