package add_tag

import (
	"github.com/driftlabs/cascade/pkg/crm"
	"github.com/driftlabs/cascade/pkg/protocol"
)

type Factory struct {
	store crm.Store
}

func NewFactory(store crm.Store) *Factory {
	return &Factory{store: store}
}

func (f *Factory) ID() string {
	return "add_tag"
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config, f.store)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":       map[string]any{"const": "add_tag"},
			"contact_id": map[string]any{"type": "string"},
			"tag":        map[string]any{"type": "string"},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"type"},
		"anyOf": []any{
			map[string]any{"required": []any{"tag"}},
			map[string]any{"required": []any{"tags"}},
		},
	}
}
