package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/persistence"
)

// ExecutionRepository handles execution record operations. Records are only
// ever inserted and updated; nothing here deletes.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (r *ExecutionRepository) Create(ctx context.Context, execution *models.WorkflowExecution) error {
	if execution.ExecutedAt.IsZero() {
		execution.ExecutedAt = time.Now().UTC()
	}

	triggerDataJSON, err := json.Marshal(execution.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	executionDataJSON, err := json.Marshal(execution.ExecutionData)
	if err != nil {
		return fmt.Errorf("failed to marshal execution data: %w", err)
	}

	query := `
		INSERT INTO workflow_executions
			(id, workflow_id, company_id, status, triggered_by, triggered_by_id, trigger_data, execution_data, execution_time_ms, error_message, error_stack, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.CompanyID,
		string(execution.Status),
		execution.TriggeredBy,
		execution.TriggeredByID,
		triggerDataJSON,
		executionDataJSON,
		execution.ExecutionTimeMs,
		execution.ErrorMessage,
		execution.ErrorStack,
		execution.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	return nil
}

// SetNodeResult merges one node's result into execution_data with jsonb_set,
// so concurrent writes for different nodes never clobber each other.
func (r *ExecutionRepository) SetNodeResult(ctx context.Context, executionID, nodeID string, result models.NodeResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal node result: %w", err)
	}

	query := `
		UPDATE workflow_executions
		SET execution_data = jsonb_set(execution_data, ARRAY[$2], $3::jsonb, true)
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, executionID, nodeID, resultJSON)
	if err != nil {
		return fmt.Errorf("failed to set node result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrExecutionNotFound
	}

	return nil
}

func (r *ExecutionRepository) Finalize(ctx context.Context, executionID string, status models.ExecutionStatus, timeMs int64, errorMessage, errorStack string) error {
	query := `
		UPDATE workflow_executions
		SET status = $2, execution_time_ms = $3, error_message = $4, error_stack = $5
		WHERE id = $1 AND status = $6
	`

	res, err := r.db.ExecContext(ctx, query,
		executionID,
		string(status),
		timeMs,
		errorMessage,
		errorStack,
		string(models.ExecutionStatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to finalize execution: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		// Either the record is missing or it is already terminal.
		_, err := r.GetByID(ctx, executionID)
		if err != nil {
			return err
		}

		return persistence.ErrExecutionFinalized
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `
		SELECT id, workflow_id, company_id, status, triggered_by, triggered_by_id, trigger_data, execution_data, execution_time_ms, error_message, error_stack, executed_at
		FROM workflow_executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, workflow_id, company_id, status, triggered_by, triggered_by_id, trigger_data, execution_data, execution_time_ms, error_message, error_stack, executed_at
		FROM workflow_executions
		WHERE workflow_id = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	execution := &models.WorkflowExecution{}

	var triggerDataJSON, executionDataJSON []byte

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.CompanyID,
		&execution.Status,
		&execution.TriggeredBy,
		&execution.TriggeredByID,
		&triggerDataJSON,
		&executionDataJSON,
		&execution.ExecutionTimeMs,
		&execution.ErrorMessage,
		&execution.ErrorStack,
		&execution.ExecutedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(triggerDataJSON, &execution.TriggerData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
	}

	err = json.Unmarshal(executionDataJSON, &execution.ExecutionData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution data: %w", err)
	}

	return execution, nil
}
