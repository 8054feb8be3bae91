package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/persistence"
)

// Recorder persists the audit trail of a run. Begin writes synchronously
// before any node executes, so a crash mid-run leaves a running-status record
// rather than no record. Node results and finalization are best-effort: a
// storage hiccup is logged and must not fail the run itself.
type Recorder struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewRecorder(p persistence.Persistence, logger *slog.Logger) *Recorder {
	return &Recorder{
		persistence: p,
		logger:      logger.With("module", "execution_recorder"),
	}
}

// Begin persists the initial running record.
func (r *Recorder) Begin(ctx context.Context, execution *models.WorkflowExecution) error {
	err := r.persistence.CreateExecution(ctx, execution)
	if err != nil {
		return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	return nil
}

// RecordNodeResult merges one node's result into the stored execution.
// Results for other nodes are never clobbered; execution data accumulates.
func (r *Recorder) RecordNodeResult(ctx context.Context, executionID, nodeID string, result models.NodeResult) {
	err := r.persistence.SetExecutionNodeResult(ctx, executionID, nodeID, result)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to record node result",
			"execution_id", executionID,
			"node_id", nodeID,
			"error", err)
	}
}

// Finalize writes the terminal status, timing and error detail.
func (r *Recorder) Finalize(ctx context.Context, execution *models.WorkflowExecution) {
	err := r.persistence.FinalizeExecution(
		ctx,
		execution.ID,
		execution.Status,
		execution.ExecutionTimeMs,
		execution.ErrorMessage,
		execution.ErrorStack,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to finalize execution",
			"execution_id", execution.ID,
			"status", execution.Status,
			"error", err)
	}
}
