package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/praxisflow/praxis/pkg/eventbus"
	"github.com/praxisflow/praxis/pkg/events"
	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
	"github.com/praxisflow/praxis/pkg/schema"
)

// DocumentFormatVersion is bumped if the transfer document shape ever
// changes incompatibly.
const DocumentFormatVersion = 1

// WorkflowDocument is the portable transfer format. It carries no identity
// or lifecycle state; imports always create a fresh workflow.
type WorkflowDocument struct {
	FormatVersion int              `json:"format_version"`
	Workflow      DocumentWorkflow `json:"workflow"`
}

// DocumentWorkflow is the workflow payload of a transfer document.
type DocumentWorkflow struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Steps       []*models.Step       `json:"steps"`
	Transitions []*models.Transition `json:"transitions"`
}

// Transfer handles workflow export and import.
type Transfer struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewTransfer creates a new transfer service.
func NewTransfer(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Transfer {
	return &Transfer{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "transfer_service"),
	}
}

// Export renders a workflow as a transfer document. Step and transition IDs
// are kept so edges stay resolvable; they are remapped again on import.
func (t *Transfer) Export(ctx context.Context, workflowID string) (*WorkflowDocument, error) {
	workflow, err := t.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return &WorkflowDocument{
		FormatVersion: DocumentFormatVersion,
		Workflow: DocumentWorkflow{
			Name:        workflow.Name,
			Description: workflow.Description,
			Steps:       workflow.Steps,
			Transitions: workflow.Transitions,
		},
	}, nil
}

// Import creates a new workflow from a transfer document. The payload is
// schema-validated first, then every step and transition gets a fresh ID with
// edges remapped. Imported workflows start inactive.
func (t *Transfer) Import(ctx context.Context, payload []byte) (*models.Workflow, error) {
	if err := schema.ValidateDocument(payload); err != nil {
		return nil, NewValidationError(
			"Import",
			"INVALID_DOCUMENT",
			err.Error(),
			ErrInvalidRequest,
		)
	}

	var doc WorkflowDocument

	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, NewValidationError(
			"Import",
			"INVALID_DOCUMENT",
			"malformed workflow document: "+err.Error(),
			ErrInvalidRequest,
		)
	}

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(doc.Workflow.Name),
		Description: strings.TrimSpace(doc.Workflow.Description),
		IsActive:    false,
		Steps:       make([]*models.Step, 0, len(doc.Workflow.Steps)),
		Transitions: make([]*models.Transition, 0, len(doc.Workflow.Transitions)),
	}

	stepIDs := make(map[string]string, len(doc.Workflow.Steps))
	names := make(map[string]bool, len(doc.Workflow.Steps))

	for _, step := range doc.Workflow.Steps {
		imported := *step

		imported.Name = models.NormalizeStepName(step.Name)
		if imported.DisplayName == "" {
			imported.DisplayName = step.Name
		}

		if !models.ValidStepType(imported.Type) {
			return nil, NewValidationError(
				"Import",
				"INVALID_STEP_TYPE",
				fmt.Sprintf("step '%s' has invalid type '%s'", step.Name, step.Type),
				ErrInvalidStepType,
			)
		}

		if !models.ValidRoles(imported.AllowedRoles) || !models.ValidRoles(imported.NotifyRoles) {
			return nil, NewValidationError(
				"Import",
				"INVALID_ROLE",
				fmt.Sprintf("step '%s' references unknown roles", step.Name),
				ErrInvalidRole,
			)
		}

		if names[imported.Name] {
			return nil, NewValidationError(
				"Import",
				"DUPLICATE_STEP_NAME",
				fmt.Sprintf("document contains duplicate step name '%s'", imported.Name),
				ErrDuplicateStepName,
			)
		}

		names[imported.Name] = true

		imported.ID = uuid.New().String()
		imported.AllowedRoles = nonNilRoles(imported.AllowedRoles)
		imported.NotifyRoles = nonNilRoles(imported.NotifyRoles)
		stepIDs[step.ID] = imported.ID
		workflow.Steps = append(workflow.Steps, &imported)
	}

	for _, transition := range doc.Workflow.Transitions {
		fromID, fromOK := stepIDs[transition.FromStepID]
		toID, toOK := stepIDs[transition.ToStepID]

		if !fromOK || !toOK {
			return nil, NewValidationError(
				"Import",
				"TRANSITION_ENDPOINT_MISSING",
				fmt.Sprintf("transition '%s' references a step not present in the document", transition.ID),
				ErrTransitionEndpoint,
			)
		}

		if !models.ValidRoles(transition.AllowedRoles) {
			return nil, NewValidationError(
				"Import",
				"INVALID_ROLE",
				fmt.Sprintf("transition '%s' references unknown roles", transition.ID),
				ErrInvalidRole,
			)
		}

		imported := *transition
		imported.ID = uuid.New().String()
		imported.FromStepID = fromID
		imported.ToStepID = toID
		imported.AllowedRoles = nonNilRoles(imported.AllowedRoles)

		if strings.TrimSpace(imported.Name) == "" {
			imported.Name = models.DefaultTransitionName
		}

		workflow.Transitions = append(workflow.Transitions, &imported)
	}

	if err := t.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to import workflow: %w", err)
	}

	publishEvent(ctx, t.publisher, t.logger, workflow.ID,
		events.NewWorkflowChanged(events.WorkflowCreatedEvent, workflow))

	return workflow, nil
}
