package create_deal

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlabs/cascade/pkg/crm"
	"github.com/driftlabs/cascade/pkg/crm/memory"
	"github.com/driftlabs/cascade/pkg/protocol"
)

func testExecutionContext(companyID, contactID string) protocol.ExecutionContext {
	return protocol.ExecutionContext{
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
		CompanyID:   companyID,
		ContactID:   contactID,
		TriggerData: map[string]any{"intent": "buy_plan"},
		NodeOutputs: map[string]map[string]any{},
		Logger:      slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}
}

func TestNewAction_RequiresTitle(t *testing.T) {
	store := memory.NewStore()

	_, err := NewAction(map[string]any{"type": "create_deal"}, store)
	assert.Error(t, err)

	_, err = NewAction(map[string]any{"type": "create_deal", "title": "New deal"}, store)
	assert.NoError(t, err)
}

func TestExecute_CreatesDealWithDefaultStage(t *testing.T) {
	store := memory.NewStore()
	contact := store.SeedContact(&crm.Contact{CompanyID: "company-1", Name: "Ana"})

	action, err := NewAction(map[string]any{"title": "Upsell", "value": 150.0}, store)
	require.NoError(t, err)

	result := action.Execute(context.Background(), testExecutionContext("company-1", contact.ID))
	require.True(t, result.Success, result.Error)

	assert.Equal(t, crm.DefaultDealStage, result.Output["stage"])

	dealID, ok := result.Output["dealId"].(string)
	require.True(t, ok)

	deal, found := store.DealByID(dealID)
	require.True(t, found)
	assert.Equal(t, "Upsell", deal.Title)
	assert.Equal(t, contact.ID, deal.ContactID)
	assert.InEpsilon(t, 150.0, deal.Value, 0.001)
}

func TestExecute_UsesCompanyPipeline(t *testing.T) {
	store := memory.NewStore()
	store.SetFirstPipelineStage("company-1", "qualification")
	contact := store.SeedContact(&crm.Contact{CompanyID: "company-1", Name: "Ana"})

	action, err := NewAction(map[string]any{"title": "Inbound"}, store)
	require.NoError(t, err)

	result := action.Execute(context.Background(), testExecutionContext("company-1", contact.ID))
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "qualification", result.Output["stage"])
}

func TestExecute_TemplatedTitle(t *testing.T) {
	store := memory.NewStore()
	contact := store.SeedContact(&crm.Contact{CompanyID: "company-1", Name: "Ana"})

	action, err := NewAction(map[string]any{"title": "Intent: {{.trigger_data.intent}}"}, store)
	require.NoError(t, err)

	result := action.Execute(context.Background(), testExecutionContext("company-1", contact.ID))
	require.True(t, result.Success, result.Error)

	deal, found := store.DealByID(result.Output["dealId"].(string))
	require.True(t, found)
	assert.Equal(t, "Intent: buy_plan", deal.Title)
}

func TestExecute_ContactNotFound(t *testing.T) {
	store := memory.NewStore()

	action, err := NewAction(map[string]any{"title": "Deal", "contact_id": "missing"}, store)
	require.NoError(t, err)

	result := action.Execute(context.Background(), testExecutionContext("company-1", ""))
	assert.False(t, result.Success)
	assert.Equal(t, "contact not found", result.Error)
}

func TestExecute_ExplicitStageSkipsPipelineLookup(t *testing.T) {
	store := memory.NewStore()
	store.SetFirstPipelineStage("company-1", "qualification")
	contact := store.SeedContact(&crm.Contact{CompanyID: "company-1", Name: "Ana"})

	action, err := NewAction(map[string]any{"title": "Deal", "stage": "negotiation"}, store)
	require.NoError(t, err)

	result := action.Execute(context.Background(), testExecutionContext("company-1", contact.ID))
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "negotiation", result.Output["stage"])
}
