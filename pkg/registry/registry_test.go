package registry

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlabs/cascade/pkg/actions/add_tag"
	"github.com/driftlabs/cascade/pkg/actions/create_deal"
	"github.com/driftlabs/cascade/pkg/actions/send_notification"
	"github.com/driftlabs/cascade/pkg/actions/webhook"
	"github.com/driftlabs/cascade/pkg/crm/memory"
	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/notify"
)

func newTestRegistry() *Registry {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	reg := NewRegistry(logger)

	store := memory.NewStore()
	notifier := notify.NewMemoryNotifier()

	reg.RegisterAction(create_deal.NewFactory(store))
	reg.RegisterAction(add_tag.NewFactory(store))
	reg.RegisterAction(send_notification.NewFactory(notifier))
	reg.RegisterAction(webhook.NewFactory())

	return reg
}

func TestRegistry_CreateAction(t *testing.T) {
	reg := newTestRegistry()

	action, err := reg.CreateAction("add_tag", map[string]any{"tag": "vip"})
	require.NoError(t, err)
	assert.NotNil(t, action)

	_, err = reg.CreateAction("launch_rocket", map[string]any{})
	assert.ErrorContains(t, err, "not registered")

	// A known type with broken config also errors out of Create.
	_, err = reg.CreateAction("webhook", map[string]any{})
	assert.Error(t, err)
}

func TestRegistry_ActionTypes(t *testing.T) {
	reg := newTestRegistry()

	types := reg.ActionTypes()
	assert.ElementsMatch(t, []string{"create_deal", "add_tag", "send_notification", "webhook"}, types)
}

func triggerWorkflow(nodes []*models.Node, edges []*models.Edge) *models.Workflow {
	return &models.Workflow{
		ID:          "wf-1",
		CompanyID:   "company-1",
		Name:        "Test workflow",
		TriggerType: models.TriggerPurchaseIntent,
		Nodes:       nodes,
		Edges:       edges,
	}
}

func TestValidateWorkflow_CleanWorkflow(t *testing.T) {
	reg := newTestRegistry()

	w := triggerWorkflow([]*models.Node{
		{ID: "t", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: models.NodeData{Config: map[string]any{
			"type": "webhook",
			"url":  "https://example.com/hook",
		}}},
	}, []*models.Edge{{Source: "t", Target: "a1"}})

	assert.Empty(t, reg.ValidateWorkflow(w))
}

func TestValidateWorkflow_ReportsIssues(t *testing.T) {
	reg := newTestRegistry()

	w := triggerWorkflow([]*models.Node{
		{ID: "t", Type: models.NodeTypeTrigger},
		{ID: "no-type", Type: models.NodeTypeAction},
		{ID: "unknown", Type: models.NodeTypeAction, Data: models.NodeData{Config: map[string]any{
			"type": "launch_rocket",
		}}},
		{ID: "bad-config", Type: models.NodeTypeAction, Data: models.NodeData{Config: map[string]any{
			"type": "webhook",
		}}},
	}, nil)

	issues := reg.ValidateWorkflow(w)
	require.Len(t, issues, 3)

	byNode := make(map[string]string, len(issues))
	for _, issue := range issues {
		byNode[issue.NodeID] = issue.Detail
	}

	assert.Contains(t, byNode["no-type"], "no config.type")
	assert.Contains(t, byNode["unknown"], "unknown action type")
	assert.Contains(t, byNode["bad-config"], "url")
}

func TestValidateWorkflow_StructuralIssue(t *testing.T) {
	reg := newTestRegistry()

	w := triggerWorkflow([]*models.Node{
		{ID: "a", Type: models.NodeTypeAction, Data: models.NodeData{Config: map[string]any{
			"type": "webhook",
			"url":  "https://example.com",
		}}},
	}, nil)

	issues := reg.ValidateWorkflow(w)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Detail, "no trigger node")
}
