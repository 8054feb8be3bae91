package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_SingleClause(t *testing.T) {
	triggerData := map[string]any{
		"intent":     "buy_plan",
		"confidence": 0.92,
		"contact": map[string]any{
			"email": "ana@example.com",
			"tags":  []any{"vip", "newsletter"},
		},
	}

	tests := []struct {
		name   string
		config map[string]any
		want   bool
	}{
		{
			name:   "equals matches",
			config: map[string]any{"field": "intent", "operator": "equals", "value": "buy_plan"},
			want:   true,
		},
		{
			name:   "equals mismatch",
			config: map[string]any{"field": "intent", "operator": "equals", "value": "cancel_plan"},
			want:   false,
		},
		{
			name:   "not_equals",
			config: map[string]any{"field": "intent", "operator": "not_equals", "value": "cancel_plan"},
			want:   true,
		},
		{
			name:   "greater_than on float",
			config: map[string]any{"field": "confidence", "operator": "greater_than", "value": 0.8},
			want:   true,
		},
		{
			name:   "greater_than fails",
			config: map[string]any{"field": "confidence", "operator": "greater_than", "value": 0.95},
			want:   false,
		},
		{
			name:   "greater_or_equal boundary",
			config: map[string]any{"field": "confidence", "operator": "greater_or_equal", "value": 0.92},
			want:   true,
		},
		{
			name:   "less_than",
			config: map[string]any{"field": "confidence", "operator": "less_than", "value": 1},
			want:   true,
		},
		{
			name:   "numeric coercion int vs float",
			config: map[string]any{"field": "confidence", "operator": "less_or_equal", "value": 1},
			want:   true,
		},
		{
			name:   "nested field via dotted path",
			config: map[string]any{"field": "contact.email", "operator": "equals", "value": "ana@example.com"},
			want:   true,
		},
		{
			name:   "contains on string",
			config: map[string]any{"field": "contact.email", "operator": "contains", "value": "@example.com"},
			want:   true,
		},
		{
			name:   "contains on array",
			config: map[string]any{"field": "contact.tags", "operator": "contains", "value": "vip"},
			want:   true,
		},
		{
			name:   "contains miss on array",
			config: map[string]any{"field": "contact.tags", "operator": "contains", "value": "churned"},
			want:   false,
		},
		{
			name:   "missing field is false",
			config: map[string]any{"field": "does.not.exist", "operator": "equals", "value": "x"},
			want:   false,
		},
		{
			name:   "unknown operator is false",
			config: map[string]any{"field": "intent", "operator": "matches_regex", "value": ".*"},
			want:   false,
		},
		{
			name:   "type mismatch on comparison is false",
			config: map[string]any{"field": "intent", "operator": "greater_than", "value": 3},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.config, triggerData))
		})
	}
}

func TestEvaluate_MultipleClauses(t *testing.T) {
	triggerData := map[string]any{
		"intent":     "buy_plan",
		"confidence": 0.7,
	}

	all := map[string]any{
		"match": "all",
		"conditions": []any{
			map[string]any{"field": "intent", "operator": "equals", "value": "buy_plan"},
			map[string]any{"field": "confidence", "operator": "greater_than", "value": 0.9},
		},
	}
	assert.False(t, Evaluate(all, triggerData))

	anyMatch := map[string]any{
		"match": "any",
		"conditions": []any{
			map[string]any{"field": "intent", "operator": "equals", "value": "buy_plan"},
			map[string]any{"field": "confidence", "operator": "greater_than", "value": 0.9},
		},
	}
	assert.True(t, Evaluate(anyMatch, triggerData))

	// match defaults to all
	defaulted := map[string]any{
		"conditions": []any{
			map[string]any{"field": "intent", "operator": "equals", "value": "buy_plan"},
			map[string]any{"field": "confidence", "operator": "less_than", "value": 0.9},
		},
	}
	assert.True(t, Evaluate(defaulted, triggerData))
}

func TestEvaluate_DegradesToTrueOrFalse(t *testing.T) {
	// No clauses at all: the condition matches.
	assert.True(t, Evaluate(nil, map[string]any{"x": 1}))
	assert.True(t, Evaluate(map[string]any{}, map[string]any{"x": 1}))
	assert.True(t, Evaluate(map[string]any{"conditions": []any{}}, nil))

	// A clause against nil trigger data never matches.
	clause := map[string]any{"field": "intent", "operator": "equals", "value": "x"}
	assert.False(t, Evaluate(clause, nil))

	// "any" with zero matching clauses is false.
	anyNone := map[string]any{
		"match": "any",
		"conditions": []any{
			map[string]any{"field": "missing", "operator": "equals", "value": 1},
		},
	}
	assert.False(t, Evaluate(anyNone, map[string]any{"x": 1}))
}
