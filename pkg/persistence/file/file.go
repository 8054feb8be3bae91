// Package file provides JSON-file persistence for workflows and execution
// records, used by tests and local development.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/persistence"
	"github.com/google/uuid"
)

// Persistence stores one JSON file per workflow under <root>/workflows and
// one per execution under <root>/executions. A single mutex serializes
// writes; concurrent runs only ever touch their own execution file, but the
// per-node merge is read-modify-write and must not interleave.
type Persistence struct {
	root string
	mu   sync.Mutex
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (p *Persistence) workflowPath(id string) string {
	return filepath.Join(p.root, "workflows", id+".json")
}

func (p *Persistence) executionPath(id string) string {
	return filepath.Join(p.root, "executions", id+".json")
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context, companyID string) ([]*models.Workflow, error) {
	all, err := p.loadWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(all))

	for _, w := range all {
		if companyID == "" || w.CompanyID == companyID {
			workflows = append(workflows, w)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	workflow := &models.Workflow{}

	err := readJSON(p.workflowPath(id), workflow)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to read workflow %s: %w", id, err)
	}

	return workflow, nil
}

func (p *Persistence) WorkflowsByTrigger(ctx context.Context, companyID string, trigger models.TriggerType) ([]*models.Workflow, error) {
	all, err := p.loadWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Workflow, 0)

	for _, w := range all {
		if w.Enabled && w.CompanyID == companyID && w.TriggerType == trigger {
			matches = append(matches, w)
		}
	}

	return matches, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return writeJSON(p.workflowPath(workflow.ID), workflow)
}

func (p *Persistence) CreateExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if execution.ExecutionData == nil {
		execution.ExecutionData = make(map[string]models.NodeResult)
	}

	return writeJSON(p.executionPath(execution.ID), execution)
}

func (p *Persistence) SetExecutionNodeResult(_ context.Context, executionID, nodeID string, result models.NodeResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	execution, err := p.readExecution(executionID)
	if err != nil {
		return err
	}

	if execution.ExecutionData == nil {
		execution.ExecutionData = make(map[string]models.NodeResult)
	}

	execution.ExecutionData[nodeID] = result

	return writeJSON(p.executionPath(executionID), execution)
}

func (p *Persistence) FinalizeExecution(_ context.Context, executionID string, status models.ExecutionStatus, timeMs int64, errorMessage, errorStack string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	execution, err := p.readExecution(executionID)
	if err != nil {
		return err
	}

	if execution.Status.IsTerminal() {
		return persistence.ErrExecutionFinalized
	}

	execution.Status = status
	execution.ExecutionTimeMs = timeMs
	execution.ErrorMessage = errorMessage
	execution.ErrorStack = errorStack

	return writeJSON(p.executionPath(executionID), execution)
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.readExecution(id)
}

func (p *Persistence) ExecutionsByWorkflow(_ context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	root := os.DirFS(filepath.Join(p.root, "executions"))

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.WorkflowExecution, 0)

	for _, file := range files {
		execution, err := p.readExecution(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].ExecutedAt.After(executions[j].ExecutedAt)
	})

	if limit > 0 && len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}

func (p *Persistence) loadWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(filepath.Join(p.root, "workflows"))

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(files))

	for _, file := range files {
		workflow, err := p.WorkflowByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (p *Persistence) readExecution(id string) (*models.WorkflowExecution, error) {
	execution := &models.WorkflowExecution{}

	err := readJSON(p.executionPath(id), execution)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	return execution, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
