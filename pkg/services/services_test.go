package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/praxisflow/praxis/pkg/eventbus"
	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence/file"
)

// capturePublisher records every published event for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *capturePublisher) published() []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]eventbus.Event(nil), p.events...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string {
	return &s
}

// newTestServices wires every service against a file-backed store rooted in a
// temp dir, sharing one capturing publisher.
func newTestServices(t *testing.T) (*Workflow, *Step, *Transition, *capturePublisher) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	logger := testLogger()

	return NewWorkflow(persistence, publisher, logger),
		NewStep(persistence, publisher, logger),
		NewTransition(persistence, publisher, logger),
		publisher
}

// createLinearWorkflow builds a workflow with start -> work -> end, returning
// the workflow and its three steps in order.
func createLinearWorkflow(t *testing.T, workflows *Workflow, steps *Step, transitions *Transition) (*models.Workflow, []*models.Step) {
	t.Helper()

	ctx := t.Context()

	workflow, err := workflows.Create(ctx, CreateWorkflowRequest{Name: "Annual Accounts"})
	require.NoError(t, err)

	start, err := steps.CreateStep(ctx, workflow.ID, &CreateStepRequest{
		Name: "Received", StepType: "start",
	})
	require.NoError(t, err)

	work, err := steps.CreateStep(ctx, workflow.ID, &CreateStepRequest{
		Name: "In Progress", StepType: "normal", Color: "blue",
	})
	require.NoError(t, err)

	end, err := steps.CreateStep(ctx, workflow.ID, &CreateStepRequest{
		Name: "Completed", StepType: "end", Color: "green",
	})
	require.NoError(t, err)

	_, err = transitions.CreateTransition(ctx, workflow.ID, &CreateTransitionRequest{
		FromStepID: start.ID, ToStepID: work.ID, Name: "Begin work",
	})
	require.NoError(t, err)

	_, err = transitions.CreateTransition(ctx, workflow.ID, &CreateTransitionRequest{
		FromStepID: work.ID, ToStepID: end.ID, Name: "Finish",
	})
	require.NoError(t, err)

	return workflow, []*models.Step{start, work, end}
}
