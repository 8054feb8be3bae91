// Package notify delivers internal notifications produced by workflow action
// nodes to tenant operators.
package notify

import "context"

// Notification is one message bound for an internal channel.
type Notification struct {
	CompanyID string         `json:"company_id"`
	Channel   string         `json:"channel"`
	Title     string         `json:"title,omitempty"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Notifier publishes a notification. Implementations must be safe for
// concurrent use across workflow runs.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}
