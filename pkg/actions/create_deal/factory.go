package create_deal

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
	return "create_deal"
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config, f.store)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":       map[string]any{"const": "create_deal"},
			"title":      map[string]any{"type": "string", "minLength": 1},
			"contact_id": map[string]any{"type": "string"},
			"stage":      map[string]any{"type": "string"},
			"value":      map[string]any{"type": "number"},
		},
		"required": []any{"type", "title"},
	}
}
