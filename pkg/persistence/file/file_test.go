package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/persistence"
)

func testWorkflow(id, companyID string, trigger models.TriggerType, enabled bool) *models.Workflow {
	return &models.Workflow{
		ID:          id,
		CompanyID:   companyID,
		Name:        "Workflow " + id,
		TriggerType: trigger,
		Enabled:     enabled,
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeTrigger},
		},
	}
}

func TestWorkflowRoundTrip(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	workflow := testWorkflow("wf-1", "company-1", models.TriggerPurchaseIntent, true)
	require.NoError(t, p.SaveWorkflow(ctx, workflow))
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "company-1", loaded.CompanyID)
	assert.Equal(t, models.TriggerPurchaseIntent, loaded.TriggerType)
	require.Len(t, loaded.Nodes, 1)

	_, err = p.WorkflowByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestSaveWorkflow_AssignsID(t *testing.T) {
	p := NewPersistence(t.TempDir())

	workflow := testWorkflow("", "company-1", models.TriggerContactCreated, true)
	require.NoError(t, p.SaveWorkflow(context.Background(), workflow))
	assert.NotEmpty(t, workflow.ID)
}

func TestWorkflowsByTrigger(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	require.NoError(t, p.SaveWorkflow(ctx, testWorkflow("wf-1", "company-1", models.TriggerPurchaseIntent, true)))
	require.NoError(t, p.SaveWorkflow(ctx, testWorkflow("wf-2", "company-1", models.TriggerPurchaseIntent, false)))
	require.NoError(t, p.SaveWorkflow(ctx, testWorkflow("wf-3", "company-1", models.TriggerDealCreated, true)))
	require.NoError(t, p.SaveWorkflow(ctx, testWorkflow("wf-4", "company-2", models.TriggerPurchaseIntent, true)))

	matches, err := p.WorkflowsByTrigger(ctx, "company-1", models.TriggerPurchaseIntent)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "wf-1", matches[0].ID)
}

func TestExecutionLifecycle(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	execution := &models.WorkflowExecution{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		CompanyID:  "company-1",
		Status:     models.ExecutionStatusRunning,
		ExecutedAt: time.Now().UTC(),
	}
	require.NoError(t, p.CreateExecution(ctx, execution))

	require.NoError(t, p.SetExecutionNodeResult(ctx, "exec-1", "node-a", models.SuccessResult(map[string]any{"dealId": "d-1"})))
	require.NoError(t, p.SetExecutionNodeResult(ctx, "exec-1", "node-b", models.FailedResult("contact not found")))

	// Merging node results never clobbers earlier ones.
	loaded, err := p.ExecutionByID(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, loaded.ExecutionData, 2)
	assert.True(t, loaded.ExecutionData["node-a"].Success)
	assert.False(t, loaded.ExecutionData["node-b"].Success)

	require.NoError(t, p.FinalizeExecution(ctx, "exec-1", models.ExecutionStatusPartialFailure, 125, "", ""))

	loaded, err = p.ExecutionByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPartialFailure, loaded.Status)
	assert.Equal(t, int64(125), loaded.ExecutionTimeMs)

	// Terminal records cannot be finalized twice.
	err = p.FinalizeExecution(ctx, "exec-1", models.ExecutionStatusSuccess, 1, "", "")
	assert.ErrorIs(t, err, persistence.ErrExecutionFinalized)
}

func TestExecutionsByWorkflow(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	base := time.Now().UTC()

	for i, id := range []string{"exec-old", "exec-mid", "exec-new"} {
		require.NoError(t, p.CreateExecution(ctx, &models.WorkflowExecution{
			ID:         id,
			WorkflowID: "wf-1",
			Status:     models.ExecutionStatusSuccess,
			ExecutedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	require.NoError(t, p.CreateExecution(ctx, &models.WorkflowExecution{
		ID:         "exec-other",
		WorkflowID: "wf-2",
		Status:     models.ExecutionStatusSuccess,
		ExecutedAt: base,
	}))

	executions, err := p.ExecutionsByWorkflow(ctx, "wf-1", 0)
	require.NoError(t, err)
	require.Len(t, executions, 3)
	assert.Equal(t, "exec-new", executions[0].ID)
	assert.Equal(t, "exec-old", executions[2].ID)

	limited, err := p.ExecutionsByWorkflow(ctx, "wf-1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "exec-new", limited[0].ID)

	_, err = p.ExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}
