// Package models defines the core domain models for the automation workflow engine.
package models

import "time"

// TriggerType identifies the business event that can start a workflow run.
type TriggerType string

const (
	TriggerPurchaseIntent      TriggerType = "purchase_intent"
	TriggerConversationStarted TriggerType = "conversation_started"
	TriggerConversationEnded   TriggerType = "conversation_ended"
	TriggerContactCreated      TriggerType = "contact_created"
	TriggerContactUpdated      TriggerType = "contact_updated"
	TriggerDealCreated         TriggerType = "deal_created"
	TriggerDealStageChanged    TriggerType = "deal_stage_changed"
	TriggerMessageReceived     TriggerType = "message_received"
)

// TriggerTypes lists every valid trigger type.
var TriggerTypes = []TriggerType{
	TriggerPurchaseIntent,
	TriggerConversationStarted,
	TriggerConversationEnded,
	TriggerContactCreated,
	TriggerContactUpdated,
	TriggerDealCreated,
	TriggerDealStageChanged,
	TriggerMessageReceived,
}

// IsValidTriggerType reports whether s names a known trigger type.
func IsValidTriggerType(s string) bool {
	for _, t := range TriggerTypes {
		if string(t) == s {
			return true
		}
	}

	return false
}

// Workflow is a tenant-owned automation definition. The engine treats workflows
// as read-only; they are created and edited by the dashboard.
type Workflow struct {
	ID            string         `json:"id"`
	CompanyID     string         `json:"company_id"     validate:"required"`
	Name          string         `json:"name"           validate:"required,min=3"`
	TriggerType   TriggerType    `json:"trigger_type"   validate:"required"`
	Enabled       bool           `json:"enabled"`
	TriggerConfig map[string]any `json:"trigger_config,omitempty"`
	Nodes         []*Node        `json:"nodes"`
	Edges         []*Edge        `json:"edges"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TriggerNode returns the workflow's single trigger node, or nil when absent.
func (w *Workflow) TriggerNode() *Node {
	for _, n := range w.Nodes {
		if n.Type == NodeTypeTrigger {
			return n
		}
	}

	return nil
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}
