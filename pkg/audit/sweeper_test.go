package audit

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisflow/praxis/pkg/eventbus"
	"github.com/praxisflow/praxis/pkg/events"
	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence/file"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func TestSweeper_Sweep(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	publisher := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	valid := &models.Workflow{
		ID:   "wf-valid",
		Name: "Valid",
		Steps: []*models.Step{
			{ID: "s1", Name: "begin", DisplayName: "Begin", Type: models.StepTypeStart},
			{ID: "s2", Name: "done", DisplayName: "Done", Type: models.StepTypeEnd},
		},
		Transitions: []*models.Transition{
			{ID: "t1", FromStepID: "s1", ToStepID: "s2", Name: "Finish"},
		},
	}
	require.NoError(t, persistence.WorkflowRepository().Save(t.Context(), valid))

	broken := &models.Workflow{
		ID:   "wf-broken",
		Name: "Broken",
		Steps: []*models.Step{
			{ID: "s1", Name: "begin", DisplayName: "Begin", Type: models.StepTypeStart},
		},
		Transitions: []*models.Transition{},
	}
	require.NoError(t, persistence.WorkflowRepository().Save(t.Context(), broken))

	sweeper := NewSweeper(persistence, publisher, logger)
	require.NoError(t, sweeper.Sweep(t.Context()))

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	require.Len(t, publisher.events, 2)

	verdicts := make(map[string]bool, 2)

	for _, evt := range publisher.events {
		validated, ok := evt.(events.WorkflowValidated)
		require.True(t, ok)
		verdicts[validated.WorkflowID] = validated.Result.Valid
	}

	assert.True(t, verdicts["wf-valid"])
	assert.False(t, verdicts["wf-broken"])
}

func TestSweeper_Start_InvalidSchedule(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sweeper := NewSweeper(persistence, nil, logger)
	err := sweeper.Start(t.Context(), "not a schedule")
	assert.Error(t, err)
}
