package send_notification

import (
	"github.com/driftlabs/cascade/pkg/notify"
	"github.com/driftlabs/cascade/pkg/protocol"
)

type Factory struct {
	notifier notify.Notifier
}

func NewFactory(notifier notify.Notifier) *Factory {
	return &Factory{notifier: notifier}
}

func (f *Factory) ID() string {
	return "send_notification"
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config, f.notifier)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":    map[string]any{"const": "send_notification"},
			"channel": map[string]any{"type": "string", "minLength": 1},
			"title":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []any{"type", "channel", "message"},
	}
}
