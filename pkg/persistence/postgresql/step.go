package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

// StepRepository handles step-related database operations. Every mutation
// bumps the owning workflow's version so cached validation verdicts expire.
type StepRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStepRepository creates a new step repository.
func NewStepRepository(db *sql.DB, logger *slog.Logger) *StepRepository {
	return &StepRepository{db: db, logger: logger}
}

func (r *StepRepository) GetStepsByWorkflow(ctx context.Context, workflowID string) ([]*models.Step, error) {
	return loadSteps(ctx, r.db, r.logger, workflowID)
}

func (r *StepRepository) GetStepByWorkflow(ctx context.Context, workflowID, stepID string) (*models.Step, error) {
	steps, err := loadSteps(ctx, r.db, r.logger, workflowID)
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		if step.ID == stepID {
			return step, nil
		}
	}

	return nil, &persistence.StepError{Op: "GetStepByWorkflow", WorkflowID: workflowID, StepID: stepID, Err: persistence.ErrStepNotFound}
}

// SaveStep inserts or updates a single step.
func (r *StepRepository) SaveStep(ctx context.Context, workflowID string, step *models.Step) error {
	return r.inTransaction(ctx, "SaveStep", workflowID, func(tx *sql.Tx) error {
		return saveSteps(ctx, tx, workflowID, []*models.Step{step})
	})
}

// DeleteStepWithTransitions removes the step and cascades to every transition
// referencing it, atomically.
func (r *StepRepository) DeleteStepWithTransitions(ctx context.Context, workflowID, stepID string) error {
	return r.inTransaction(ctx, "DeleteStepWithTransitions", workflowID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM workflow_transitions WHERE workflow_id = $1 AND (from_step_id = $2 OR to_step_id = $2)",
			workflowID, stepID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete referencing transitions: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			"DELETE FROM workflow_steps WHERE workflow_id = $1 AND id = $2",
			workflowID, stepID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete step: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return &persistence.StepError{Op: "DeleteStepWithTransitions", WorkflowID: workflowID, StepID: stepID, Err: persistence.ErrStepNotFound}
		}

		return nil
	})
}

// SavePositions updates canvas coordinates for the given steps only.
func (r *StepRepository) SavePositions(ctx context.Context, workflowID string, positions []persistence.StepPosition) error {
	if len(positions) == 0 {
		return nil
	}

	return r.inTransaction(ctx, "SavePositions", workflowID, func(tx *sql.Tx) error {
		query := `
			UPDATE workflow_steps
			SET position_x = $3, position_y = $4, updated_at = NOW()
			WHERE workflow_id = $1 AND id = $2
		`

		for _, position := range positions {
			result, err := tx.ExecContext(ctx, query, workflowID, position.StepID, position.PositionX, position.PositionY)
			if err != nil {
				return fmt.Errorf("failed to update position for step %s: %w", position.StepID, err)
			}

			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}

			if rowsAffected == 0 {
				return &persistence.StepError{Op: "SavePositions", WorkflowID: workflowID, StepID: position.StepID, Err: persistence.ErrStepNotFound}
			}
		}

		return nil
	})
}

func (r *StepRepository) inTransaction(ctx context.Context, op, workflowID string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = touchWorkflow(ctx, tx, workflowID); err != nil {
		return persistence.NewWorkflowError(op, workflowID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// touchWorkflow bumps the workflow's version and updated_at after a graph
// mutation. Reports ErrWorkflowNotFound when the workflow does not exist.
func touchWorkflow(ctx context.Context, q querier, workflowID string) error {
	result, err := q.ExecContext(ctx,
		"UPDATE workflows SET version = version + 1, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL",
		workflowID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch workflow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}
