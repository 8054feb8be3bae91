// Package persistence provides the storage abstraction for workflow
// definitions and execution records.
package persistence

import (
	"context"

	"github.com/driftlabs/cascade/pkg/models"
)

// Persistence is the engine's storage contract. Workflows are read-mostly
// (the dashboard owns writes); execution records are append/update only and
// never deleted by the engine.
type Persistence interface {
	Workflows(ctx context.Context, companyID string) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)

	// WorkflowsByTrigger returns only enabled workflows for the company and
	// trigger type. Disabled workflows are never dispatched.
	WorkflowsByTrigger(ctx context.Context, companyID string, trigger models.TriggerType) ([]*models.Workflow, error)

	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error

	// CreateExecution persists the initial running record synchronously,
	// before any node executes.
	CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error

	// SetExecutionNodeResult merges one node's result into the execution's
	// execution_data without clobbering results for other nodes.
	SetExecutionNodeResult(ctx context.Context, executionID, nodeID string, result models.NodeResult) error

	// FinalizeExecution writes the terminal status, timing and error detail.
	FinalizeExecution(ctx context.Context, executionID string, status models.ExecutionStatus, timeMs int64, errorMessage, errorStack string) error

	ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
