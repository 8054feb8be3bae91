// Package template resolves placeholders in notification messages and webhook
// payloads against the run's trigger data and upstream node outputs.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/driftlabs/cascade/pkg/protocol"
)

// Render executes input as a Go template against the execution context.
// Placeholders look like {{.trigger_data.intent}} and
// {{.nodes.action_1.dealId}}.
func Render(input string, ectx protocol.ExecutionContext) (string, error) {
	data := map[string]any{
		"trigger_data": ectx.TriggerData,
		"nodes":        ectx.NodeOutputs,
		"company_id":   ectx.CompanyID,
		"contact_id":   ectx.ContactID,
		"execution": map[string]any{
			"id":          ectx.ExecutionID,
			"workflow_id": ectx.WorkflowID,
		},
	}

	tmpl, err := template.
		New("payload").
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", input, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", input, err)
	}

	// text/template renders missing map keys as "<no value>", which no tenant
	// wants delivered to a webhook.
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// RenderMap renders every string leaf of a payload map, recursing into nested
// maps and slices. Non-string leaves pass through untouched.
func RenderMap(payload map[string]any, ectx protocol.ExecutionContext) (map[string]any, error) {
	out := make(map[string]any, len(payload))

	for k, v := range payload {
		rendered, err := renderValue(v, ectx)
		if err != nil {
			return nil, err
		}

		out[k] = rendered
	}

	return out, nil
}

func renderValue(v any, ectx protocol.ExecutionContext) (any, error) {
	switch value := v.(type) {
	case string:
		return Render(value, ectx)
	case map[string]any:
		return RenderMap(value, ectx)
	case []any:
		out := make([]any, len(value))

		for i, item := range value {
			rendered, err := renderValue(item, ectx)
			if err != nil {
				return nil, err
			}

			out[i] = rendered
		}

		return out, nil
	default:
		return v, nil
	}
}
