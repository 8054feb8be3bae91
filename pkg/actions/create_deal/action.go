// Package create_deal implements the action that opens a deal for the
// triggering contact.
package create_deal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/driftlabs/cascade/pkg/crm"
	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/protocol"
	"github.com/driftlabs/cascade/pkg/template"
)

// Config is the validated shape of a create_deal node's config.
type Config struct {
	Title     string  `json:"title"`
	ContactID string  `json:"contact_id,omitempty"`
	Stage     string  `json:"stage,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

type Action struct {
	config Config
	store  crm.Store
}

func NewAction(raw map[string]any, store crm.Store) (*Action, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode create_deal config: %w", err)
	}

	var config Config

	err = json.Unmarshal(payload, &config)
	if err != nil {
		return nil, fmt.Errorf("malformed create_deal config: %w", err)
	}

	if config.Title == "" {
		return nil, errors.New("create_deal requires a title")
	}

	return &Action{config: config, store: store}, nil
}

// Execute creates the deal scoped to the run's company. The contact comes
// from the node config or, when absent there, from the triggering context.
func (a *Action) Execute(ctx context.Context, ectx protocol.ExecutionContext) models.NodeResult {
	contactID := a.config.ContactID
	if contactID == "" {
		contactID = ectx.ContactID
	}

	if contactID == "" {
		return models.FailedResult("create_deal: no contact_id in config or trigger context")
	}

	title, err := template.Render(a.config.Title, ectx)
	if err != nil {
		return models.FailedResult(fmt.Sprintf("create_deal: %v", err))
	}

	stage := a.config.Stage
	if stage == "" {
		stage, err = a.store.FirstPipelineStage(ctx, ectx.CompanyID)
		if err != nil {
			return models.FailedResult(fmt.Sprintf("create_deal: failed to resolve pipeline stage: %v", err))
		}
	}

	dealID, err := a.store.CreateDeal(ctx, &crm.Deal{
		CompanyID: ectx.CompanyID,
		ContactID: contactID,
		Title:     title,
		Stage:     stage,
		Value:     a.config.Value,
	})
	if err != nil {
		if errors.Is(err, crm.ErrContactNotFound) {
			return models.FailedResult("contact not found")
		}

		return models.FailedResult(fmt.Sprintf("create_deal: %v", err))
	}

	ectx.Logger.InfoContext(ctx, "Created deal",
		"deal_id", dealID,
		"contact_id", contactID,
		"stage", stage)

	return models.SuccessResult(map[string]any{
		"dealId": dealID,
		"stage":  stage,
	})
}
