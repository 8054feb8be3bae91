// Package add_tag implements the action that appends tags to a contact's tag
// set. Tagging is idempotent: adding a tag the contact already carries is a
// no-op.
package add_tag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/driftlabs/cascade/pkg/crm"
	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/protocol"
)

// Config accepts either a single tag or a list.
type Config struct {
	ContactID string   `json:"contact_id,omitempty"`
	Tag       string   `json:"tag,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func (c Config) allTags() []string {
	tags := make([]string, 0, len(c.Tags)+1)
	if c.Tag != "" {
		tags = append(tags, c.Tag)
	}

	for _, tag := range c.Tags {
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

type Action struct {
	config Config
	store  crm.Store
}

func NewAction(raw map[string]any, store crm.Store) (*Action, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode add_tag config: %w", err)
	}

	var config Config

	err = json.Unmarshal(payload, &config)
	if err != nil {
		return nil, fmt.Errorf("malformed add_tag config: %w", err)
	}

	if len(config.allTags()) == 0 {
		return nil, errors.New("add_tag requires at least one tag")
	}

	return &Action{config: config, store: store}, nil
}

func (a *Action) Execute(ctx context.Context, ectx protocol.ExecutionContext) models.NodeResult {
	contactID := a.config.ContactID
	if contactID == "" {
		contactID = ectx.ContactID
	}

	if contactID == "" {
		return models.FailedResult("add_tag: no contact_id in config or trigger context")
	}

	tags := a.config.allTags()

	err := a.store.AddContactTags(ctx, ectx.CompanyID, contactID, tags)
	if err != nil {
		if errors.Is(err, crm.ErrContactNotFound) {
			return models.FailedResult("contact not found")
		}

		return models.FailedResult(fmt.Sprintf("add_tag: %v", err))
	}

	ectx.Logger.InfoContext(ctx, "Tagged contact", "contact_id", contactID, "tags", tags)

	return models.SuccessResult(map[string]any{
		"contactId": contactID,
		"tags":      tags,
	})
}
