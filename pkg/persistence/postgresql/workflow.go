package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , name
  , description
  , is_active
  , is_default
  , service_count
  , version
  , created_at
  , updated_at
  , deleted_at
`

// ListWorkflows returns paginated and filtered workflows.
func (r *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	// Set defaults
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	// Validate sort parameters against allowlist (security)
	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	if opts.SortOrder != "asc" && opts.SortOrder != "desc" {
		return nil, fmt.Errorf("invalid sort order: %s", opts.SortOrder)
	}

	where := "WHERE deleted_at IS NULL"
	if opts.ActiveOnly {
		where += " AND is_active"
	}

	var totalCount int64

	countQuery := "SELECT COUNT(*) FROM workflows " + where

	err := r.db.QueryRowContext(ctx, countQuery).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}

	// Sort column and order are allowlisted above, safe to interpolate.
	query := fmt.Sprintf(
		"SELECT %s FROM workflows %s ORDER BY %s %s LIMIT $1 OFFSET $2",
		workflowColumns, where, opts.SortBy, opts.SortOrder,
	)

	rows, err := r.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		if opts.IncludeGraph {
			if err := r.loadGraph(ctx, workflow); err != nil {
				return nil, err
			}
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return &persistence.WorkflowListResult{
		Workflows:   workflows,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(workflows)) < totalCount,
	}, nil
}

// GetByID retrieves a workflow with its full graph, or (nil, nil) when absent.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE id = $1 AND deleted_at IS NULL", workflowColumns)

	row := r.db.QueryRowContext(ctx, query, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	if err := r.loadGraph(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// GetDefault returns the workflow flagged as default, or (nil, nil).
func (r *WorkflowRepository) GetDefault(ctx context.Context) (*models.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE is_default AND deleted_at IS NULL", workflowColumns)

	row := r.db.QueryRowContext(ctx, query)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	if err := r.loadGraph(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// Save writes the workflow and replaces its graph in a single transaction.
// The stored version increments on every save.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now
	workflow.Version++

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	workflowQuery := `
		INSERT INTO workflows (id, name, description, is_active, is_default,
service_count, version, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			is_active = EXCLUDED.is_active,
			is_default = EXCLUDED.is_default,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = tx.ExecContext(ctx, workflowQuery,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.IsActive,
		workflow.IsDefault,
		workflow.ServiceCount,
		workflow.Version,
		workflow.CreatedAt,
		workflow.UpdatedAt,
		workflow.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow base: %w", err)
	}

	// Replace the graph (for updates)
	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_transitions WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing transitions: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_steps WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing steps: %w", err)
	}

	if err = saveSteps(ctx, tx, workflow.ID, workflow.Steps); err != nil {
		return err
	}

	if err = saveTransitions(ctx, tx, workflow.ID, workflow.Transitions); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete soft deletes a workflow by setting deleted_at.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (*models.Workflow, error) {
	var workflow models.Workflow

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.IsActive,
		&workflow.IsDefault,
		&workflow.ServiceCount,
		&workflow.Version,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&workflow.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Steps = make([]*models.Step, 0)
	workflow.Transitions = make([]*models.Transition, 0)

	return &workflow, nil
}

func (r *WorkflowRepository) loadGraph(ctx context.Context, workflow *models.Workflow) error {
	steps, err := loadSteps(ctx, r.db, r.logger, workflow.ID)
	if err != nil {
		return err
	}

	transitions, err := loadTransitions(ctx, r.db, r.logger, workflow.ID)
	if err != nil {
		return err
	}

	workflow.Steps = steps
	workflow.Transitions = transitions

	return nil
}

// querier abstracts *sql.DB and *sql.Tx for graph reads and writes.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadSteps(ctx context.Context, q querier, logger *slog.Logger, workflowID string) ([]*models.Step, error) {
	query := `
		SELECT id, name, display_name, description, step_type, color,
		       allowed_roles, required_fields, auto_assign, notify_roles,
		       notify_client, position_x, position_y
		FROM workflow_steps
		WHERE workflow_id = $1
		ORDER BY created_at
	`

	rows, err := q.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow steps: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	steps := make([]*models.Step, 0)

	for rows.Next() {
		var (
			step               models.Step
			allowedRolesJSON   []byte
			requiredFieldsJSON []byte
			notifyRolesJSON    []byte
		)

		err := rows.Scan(
			&step.ID,
			&step.Name,
			&step.DisplayName,
			&step.Description,
			&step.Type,
			&step.Color,
			&allowedRolesJSON,
			&requiredFieldsJSON,
			&step.AutoAssign,
			&notifyRolesJSON,
			&step.NotifyClient,
			&step.PositionX,
			&step.PositionY,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		if err := json.Unmarshal(allowedRolesJSON, &step.AllowedRoles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allowed roles: %w", err)
		}

		if err := json.Unmarshal(requiredFieldsJSON, &step.RequiredFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required fields: %w", err)
		}

		if err := json.Unmarshal(notifyRolesJSON, &step.NotifyRoles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notify roles: %w", err)
		}

		steps = append(steps, &step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

func loadTransitions(ctx context.Context, q querier, logger *slog.Logger, workflowID string) ([]*models.Transition, error) {
	query := `
		SELECT id, from_step_id, to_step_id, name, description,
		       requires_invoice_raised, requires_invoice_paid, requires_assignment,
		       allowed_roles, send_notification, notification_template
		FROM workflow_transitions
		WHERE workflow_id = $1
		ORDER BY created_at
	`

	rows, err := q.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow transitions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	transitions := make([]*models.Transition, 0)

	for rows.Next() {
		var (
			transition       models.Transition
			allowedRolesJSON []byte
		)

		err := rows.Scan(
			&transition.ID,
			&transition.FromStepID,
			&transition.ToStepID,
			&transition.Name,
			&transition.Description,
			&transition.RequiresInvoiceRaised,
			&transition.RequiresInvoicePaid,
			&transition.RequiresAssignment,
			&allowedRolesJSON,
			&transition.SendNotification,
			&transition.NotificationTemplate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}

		if err := json.Unmarshal(allowedRolesJSON, &transition.AllowedRoles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allowed roles: %w", err)
		}

		transitions = append(transitions, &transition)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}

	return transitions, nil
}

func saveSteps(ctx context.Context, q querier, workflowID string, steps []*models.Step) error {
	query := `
		INSERT INTO workflow_steps (workflow_id, id, name, display_name, description,
step_type, color, allowed_roles, required_fields, auto_assign, notify_roles,
notify_client, position_x, position_y, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (workflow_id, id) DO UPDATE SET
			name = EXCLUDED.name,
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			step_type = EXCLUDED.step_type,
			color = EXCLUDED.color,
			allowed_roles = EXCLUDED.allowed_roles,
			required_fields = EXCLUDED.required_fields,
			auto_assign = EXCLUDED.auto_assign,
			notify_roles = EXCLUDED.notify_roles,
			notify_client = EXCLUDED.notify_client,
			position_x = EXCLUDED.position_x,
			position_y = EXCLUDED.position_y,
			updated_at = NOW()
	`

	for _, step := range steps {
		allowedRolesJSON, err := json.Marshal(rolesOrEmpty(step.AllowedRoles))
		if err != nil {
			return fmt.Errorf("failed to marshal allowed roles: %w", err)
		}

		requiredFieldsJSON, err := json.Marshal(stringsOrEmpty(step.RequiredFields))
		if err != nil {
			return fmt.Errorf("failed to marshal required fields: %w", err)
		}

		notifyRolesJSON, err := json.Marshal(rolesOrEmpty(step.NotifyRoles))
		if err != nil {
			return fmt.Errorf("failed to marshal notify roles: %w", err)
		}

		_, err = q.ExecContext(ctx, query,
			workflowID,
			step.ID,
			step.Name,
			step.DisplayName,
			step.Description,
			step.Type,
			step.Color,
			allowedRolesJSON,
			requiredFieldsJSON,
			step.AutoAssign,
			notifyRolesJSON,
			step.NotifyClient,
			step.PositionX,
			step.PositionY,
		)
		if err != nil {
			return fmt.Errorf("failed to save step %s: %w", step.ID, err)
		}
	}

	return nil
}

func saveTransitions(ctx context.Context, q querier, workflowID string, transitions []*models.Transition) error {
	query := `
		INSERT INTO workflow_transitions (workflow_id, id, from_step_id, to_step_id,
name, description, requires_invoice_raised, requires_invoice_paid,
requires_assignment, allowed_roles, send_notification, notification_template, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (workflow_id, id) DO UPDATE SET
			from_step_id = EXCLUDED.from_step_id,
			to_step_id = EXCLUDED.to_step_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			requires_invoice_raised = EXCLUDED.requires_invoice_raised,
			requires_invoice_paid = EXCLUDED.requires_invoice_paid,
			requires_assignment = EXCLUDED.requires_assignment,
			allowed_roles = EXCLUDED.allowed_roles,
			send_notification = EXCLUDED.send_notification,
			notification_template = EXCLUDED.notification_template,
			updated_at = NOW()
	`

	for _, transition := range transitions {
		allowedRolesJSON, err := json.Marshal(rolesOrEmpty(transition.AllowedRoles))
		if err != nil {
			return fmt.Errorf("failed to marshal allowed roles: %w", err)
		}

		_, err = q.ExecContext(ctx, query,
			workflowID,
			transition.ID,
			transition.FromStepID,
			transition.ToStepID,
			transition.Name,
			transition.Description,
			transition.RequiresInvoiceRaised,
			transition.RequiresInvoicePaid,
			transition.RequiresAssignment,
			allowedRolesJSON,
			transition.SendNotification,
			transition.NotificationTemplate,
		)
		if err != nil {
			return fmt.Errorf("failed to save transition %s: %w", transition.ID, err)
		}
	}

	return nil
}

// rolesOrEmpty keeps JSONB columns as [] instead of null.
func rolesOrEmpty(roles []models.Role) []models.Role {
	if roles == nil {
		return []models.Role{}
	}

	return roles
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
