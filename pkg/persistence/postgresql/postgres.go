// Package postgresql provides PostgreSQL persistence for workflows and
// execution records.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/persistence/sqlbase"
	_ "github.com/lib/pq" // postgres driver
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
}

// NewPersistence connects, runs migrations and wires the repositories.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		workflowRepo:  NewWorkflowRepository(database, logger),
		executionRepo: NewExecutionRepository(database, logger),
	}, nil
}

// DB exposes the underlying connection pool so the CRM store can share it.
func (p *Persistence) DB() *sql.DB {
	return p.db
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context, companyID string) ([]*models.Workflow, error) {
	return p.workflowRepo.GetAll(ctx, companyID)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

func (p *Persistence) WorkflowsByTrigger(ctx context.Context, companyID string, trigger models.TriggerType) ([]*models.Workflow, error) {
	return p.workflowRepo.GetByTrigger(ctx, companyID, trigger)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflowRepo.Save(ctx, workflow)
}

func (p *Persistence) CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return p.executionRepo.Create(ctx, execution)
}

func (p *Persistence) SetExecutionNodeResult(ctx context.Context, executionID, nodeID string, result models.NodeResult) error {
	return p.executionRepo.SetNodeResult(ctx, executionID, nodeID, result)
}

func (p *Persistence) FinalizeExecution(ctx context.Context, executionID string, status models.ExecutionStatus, timeMs int64, errorMessage, errorStack string) error {
	return p.executionRepo.Finalize(ctx, executionID, status, timeMs, errorMessage, errorStack)
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return p.executionRepo.GetByID(ctx, id)
}

func (p *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	return p.executionRepo.GetByWorkflow(ctx, workflowID, limit)
}
