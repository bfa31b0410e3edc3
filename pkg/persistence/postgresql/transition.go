package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/praxisflow/praxis/pkg/models"
	"github.com/praxisflow/praxis/pkg/persistence"
)

// TransitionRepository handles transition-related database operations. Every
// mutation bumps the owning workflow's version so cached validation verdicts
// expire.
type TransitionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTransitionRepository creates a new transition repository.
func NewTransitionRepository(db *sql.DB, logger *slog.Logger) *TransitionRepository {
	return &TransitionRepository{db: db, logger: logger}
}

func (r *TransitionRepository) GetTransitionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Transition, error) {
	return loadTransitions(ctx, r.db, r.logger, workflowID)
}

func (r *TransitionRepository) GetTransitionByWorkflow(ctx context.Context, workflowID, transitionID string) (*models.Transition, error) {
	transitions, err := loadTransitions(ctx, r.db, r.logger, workflowID)
	if err != nil {
		return nil, err
	}

	for _, transition := range transitions {
		if transition.ID == transitionID {
			return transition, nil
		}
	}

	return nil, &persistence.TransitionError{Op: "GetTransitionByWorkflow", WorkflowID: workflowID, TransitionID: transitionID, Err: persistence.ErrTransitionNotFound}
}

// SaveTransition inserts or updates a single transition.
func (r *TransitionRepository) SaveTransition(ctx context.Context, workflowID string, transition *models.Transition) error {
	return r.inTransaction(ctx, "SaveTransition", workflowID, func(tx *sql.Tx) error {
		return saveTransitions(ctx, tx, workflowID, []*models.Transition{transition})
	})
}

// DeleteTransition removes a single transition.
func (r *TransitionRepository) DeleteTransition(ctx context.Context, workflowID, transitionID string) error {
	return r.inTransaction(ctx, "DeleteTransition", workflowID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"DELETE FROM workflow_transitions WHERE workflow_id = $1 AND id = $2",
			workflowID, transitionID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete transition: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return &persistence.TransitionError{Op: "DeleteTransition", WorkflowID: workflowID, TransitionID: transitionID, Err: persistence.ErrTransitionNotFound}
		}

		return nil
	})
}

func (r *TransitionRepository) inTransaction(ctx context.Context, op, workflowID string, fn func(tx *sql.Tx) error) error {
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
