package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/driftlabs/cascade/pkg/crm"
	crmpostgres "github.com/driftlabs/cascade/pkg/crm/postgres"
	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/persistence"
	"github.com/driftlabs/cascade/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDB(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"workflow_executions", "deals", "pipeline_stages", "contacts", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("cascade_test"),
			postgres.WithUsername("cascade"),
			postgres.WithPassword("cascade"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDB(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDB(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx
}

func testWorkflow(companyID string, trigger models.TriggerType, enabled bool) *models.Workflow {
	return &models.Workflow{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Name:        "Test workflow",
		TriggerType: trigger,
		Enabled:     enabled,
		TriggerConfig: map[string]any{
			"min_confidence": 0.8,
		},
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeTrigger},
			{ID: "tag", Type: models.NodeTypeAction, Data: models.NodeData{
				Label:  "Tag the contact",
				Config: map[string]any{"type": "add_tag", "tag": "hot-lead"},
			}},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "trigger", Target: "tag"},
		},
	}
}

func TestWorkflowRoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)

	companyID := uuid.New().String()
	workflow := testWorkflow(companyID, models.TriggerPurchaseIntent, true)

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err := p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, companyID, loaded.CompanyID)
	assert.Equal(t, models.TriggerPurchaseIntent, loaded.TriggerType)
	assert.True(t, loaded.Enabled)
	require.Len(t, loaded.Nodes, 2)
	assert.Equal(t, "add_tag", loaded.Nodes[1].ActionType())
	require.Len(t, loaded.Edges, 1)

	// Saving again updates in place.
	workflow.Name = "Renamed workflow"
	workflow.Enabled = false
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err = p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed workflow", loaded.Name)
	assert.False(t, loaded.Enabled)

	_, err = p.WorkflowByID(ctx, uuid.New().String())
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowsByTrigger_FiltersDisabledAndForeign(t *testing.T) {
	p, ctx := setupTestDB(t)

	companyID := uuid.New().String()

	enabled := testWorkflow(companyID, models.TriggerPurchaseIntent, true)
	disabled := testWorkflow(companyID, models.TriggerPurchaseIntent, false)
	otherTrigger := testWorkflow(companyID, models.TriggerDealCreated, true)
	otherCompany := testWorkflow(uuid.New().String(), models.TriggerPurchaseIntent, true)

	for _, w := range []*models.Workflow{enabled, disabled, otherTrigger, otherCompany} {
		require.NoError(t, p.SaveWorkflow(ctx, w))
	}

	matches, err := p.WorkflowsByTrigger(ctx, companyID, models.TriggerPurchaseIntent)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, enabled.ID, matches[0].ID)
}

func TestExecutionLifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)

	companyID := uuid.New().String()
	workflow := testWorkflow(companyID, models.TriggerPurchaseIntent, true)
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	execution := &models.WorkflowExecution{
		ID:            uuid.New().String(),
		WorkflowID:    workflow.ID,
		CompanyID:     companyID,
		Status:        models.ExecutionStatusRunning,
		TriggeredBy:   "conversation",
		TriggeredByID: "conv-1",
		TriggerData:   map[string]any{"intent": "buy_plan"},
		ExecutedAt:    time.Now().UTC(),
	}
	require.NoError(t, p.CreateExecution(ctx, execution))

	require.NoError(t, p.SetExecutionNodeResult(ctx, execution.ID, "tag", models.SuccessResult(map[string]any{"contactId": "c-1"})))
	require.NoError(t, p.SetExecutionNodeResult(ctx, execution.ID, "deal", models.FailedResult("contact not found")))

	loaded, err := p.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, loaded.Status)
	require.Len(t, loaded.ExecutionData, 2)
	assert.True(t, loaded.ExecutionData["tag"].Success)
	assert.Equal(t, "contact not found", loaded.ExecutionData["deal"].Error)

	require.NoError(t, p.FinalizeExecution(ctx, execution.ID, models.ExecutionStatusPartialFailure, 321, "", ""))

	loaded, err = p.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPartialFailure, loaded.Status)
	assert.Equal(t, int64(321), loaded.ExecutionTimeMs)

	// A terminal execution cannot be finalized again.
	err = p.FinalizeExecution(ctx, execution.ID, models.ExecutionStatusSuccess, 1, "", "")
	assert.ErrorIs(t, err, persistence.ErrExecutionFinalized)

	// An unknown execution is reported as missing, not finalized.
	err = p.FinalizeExecution(ctx, uuid.New().String(), models.ExecutionStatusSuccess, 1, "", "")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionsByWorkflow_OrderAndLimit(t *testing.T) {
	p, ctx := setupTestDB(t)

	companyID := uuid.New().String()
	workflow := testWorkflow(companyID, models.TriggerPurchaseIntent, true)
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	base := time.Now().UTC().Add(-time.Hour)
	ids := make([]string, 0, 3)

	for i := range 3 {
		id := uuid.New().String()
		ids = append(ids, id)

		require.NoError(t, p.CreateExecution(ctx, &models.WorkflowExecution{
			ID:         id,
			WorkflowID: workflow.ID,
			CompanyID:  companyID,
			Status:     models.ExecutionStatusSuccess,
			ExecutedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	executions, err := p.ExecutionsByWorkflow(ctx, workflow.ID, 2)
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.Equal(t, ids[2], executions[0].ID)
	assert.Equal(t, ids[1], executions[1].ID)
}

func TestCRMStore(t *testing.T) {
	p, ctx := setupTestDB(t)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := crmpostgres.NewStore(p.DB(), logger)

	companyID := uuid.New().String()
	contactID := uuid.New().String()

	_, err := p.DB().ExecContext(ctx,
		`INSERT INTO contacts (id, company_id, name, email, tags) VALUES ($1, $2, $3, $4, '{}')`,
		contactID, companyID, "Ana", "ana@example.com")
	require.NoError(t, err)

	contact, err := store.ContactByID(ctx, companyID, contactID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", contact.Name)
	assert.Empty(t, contact.Tags)

	// Tagging twice leaves a single copy of each tag.
	require.NoError(t, store.AddContactTags(ctx, companyID, contactID, []string{"vip", "hot-lead"}))
	require.NoError(t, store.AddContactTags(ctx, companyID, contactID, []string{"vip"}))

	contact, err = store.ContactByID(ctx, companyID, contactID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"vip", "hot-lead"}, contact.Tags)

	// Cross-tenant access misses.
	err = store.AddContactTags(ctx, uuid.New().String(), contactID, []string{"stolen"})
	assert.ErrorIs(t, err, crm.ErrContactNotFound)

	// Pipeline stages fall back to the default, then honor configuration.
	stage, err := store.FirstPipelineStage(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, crm.DefaultDealStage, stage)

	_, err = p.DB().ExecContext(ctx,
		`INSERT INTO pipeline_stages (company_id, stage, position) VALUES ($1, 'qualification', 1), ($1, 'negotiation', 2)`,
		companyID)
	require.NoError(t, err)

	stage, err = store.FirstPipelineStage(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, "qualification", stage)

	dealID, err := store.CreateDeal(ctx, &crm.Deal{
		CompanyID: companyID,
		ContactID: contactID,
		Title:     "Upsell",
		Stage:     stage,
		Value:     99.5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, dealID)

	_, err = store.CreateDeal(ctx, &crm.Deal{
		CompanyID: companyID,
		ContactID: uuid.New().String(),
		Title:     "Ghost deal",
		Stage:     stage,
	})
	assert.ErrorIs(t, err, crm.ErrContactNotFound)
}
