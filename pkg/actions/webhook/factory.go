package webhook

import "github.com/driftlabs/cascade/pkg/protocol"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "webhook"
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":   map[string]any{"const": "webhook"},
			"url":    map[string]any{"type": "string", "format": "uri"},
			"method": map[string]any{"type": "string", "enum": []any{"POST", "PUT", "PATCH"}},
			"headers": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"payload": map[string]any{"type": "object"},
		},
		"required": []any{"type", "url"},
	}
}
