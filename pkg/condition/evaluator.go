// Package condition evaluates a condition node's declarative config against
// the payload of the event that triggered the run. Evaluation is pure: no
// side effects, no I/O, and malformed input degrades to false instead of
// failing the run.
package condition

import (
	"strings"

	"github.com/oliveagle/jsonpath"
)

// Operator is one of the fixed comparison operators a condition clause may use.
type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "not_equals"
	OpGreaterThan    Operator = "greater_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessThan       Operator = "less_than"
	OpLessOrEqual    Operator = "less_or_equal"
	OpContains       Operator = "contains"
)

// Clause is a single field/operator/value comparison.
type Clause struct {
	Field    string
	Operator Operator
	Value    any
}

// Evaluate decides whether a condition node's config matches the trigger data.
// The config is either a single clause {field, operator, value} or a list
// {conditions: [...], match: "all"|"any"} (match defaults to all). A config
// with no clauses matches. Unknown fields, unknown operators and type
// mismatches make the individual clause false rather than erroring.
func Evaluate(config map[string]any, triggerData map[string]any) bool {
	clauses, match := parseConfig(config)
	if len(clauses) == 0 {
		return true
	}

	for _, c := range clauses {
		ok := evaluateClause(c, triggerData)

		if match == "any" && ok {
			return true
		}

		if match != "any" && !ok {
			return false
		}
	}

	return match != "any"
}

func parseConfig(config map[string]any) ([]Clause, string) {
	if config == nil {
		return nil, "all"
	}

	match, _ := config["match"].(string)
	if match == "" {
		match = "all"
	}

	if raw, ok := config["conditions"].([]any); ok {
		clauses := make([]Clause, 0, len(raw))

		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}

			if c, ok := parseClause(m); ok {
				clauses = append(clauses, c)
			}
		}

		return clauses, match
	}

	if c, ok := parseClause(config); ok {
		return []Clause{c}, match
	}

	return nil, match
}

func parseClause(m map[string]any) (Clause, bool) {
	field, _ := m["field"].(string)
	if field == "" {
		return Clause{}, false
	}

	op, _ := m["operator"].(string)

	return Clause{
		Field:    field,
		Operator: Operator(op),
		Value:    m["value"],
	}, true
}

func evaluateClause(c Clause, triggerData map[string]any) bool {
	left, found := lookupField(triggerData, c.Field)
	if !found {
		return false
	}

	switch c.Operator {
	case OpEquals:
		return valuesEqual(left, c.Value)
	case OpNotEquals:
		return !valuesEqual(left, c.Value)
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		return compareNumbers(c.Operator, left, c.Value)
	case OpContains:
		return contains(left, c.Value)
	default:
		return false
	}
}

// lookupField resolves a dotted path ("contact.email") within the trigger
// data via jsonpath. A missing field is not an error, just a non-match.
func lookupField(data map[string]any, field string) (any, bool) {
	if data == nil {
		return nil, false
	}

	path := field
	if !strings.HasPrefix(path, "$") {
		path = "$." + path
	}

	value, err := jsonpath.JsonPathLookup(map[string]any(data), path)
	if err != nil {
		return nil, false
	}

	return value, true
}

func valuesEqual(left, right any) bool {
	if lf, lok := toFloat(left); lok {
		if rf, rok := toFloat(right); rok {
			return lf == rf
		}
	}

	return left == right
}

func compareNumbers(op Operator, left, right any) bool {
	lf, lok := toFloat(left)
	rf, rok := toFloat(right)

	if !lok || !rok {
		return false
	}

	switch op {
	case OpGreaterThan:
		return lf > rf
	case OpGreaterOrEqual:
		return lf >= rf
	case OpLessThan:
		return lf < rf
	case OpLessOrEqual:
		return lf <= rf
	default:
		return false
	}
}

// contains handles both string containment and array membership.
func contains(left, right any) bool {
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		if !ok {
			return false
		}

		return strings.Contains(l, r)
	case []any:
		for _, item := range l {
			if valuesEqual(item, right) {
				return true
			}
		}

		return false
	case []string:
		r, ok := right.(string)
		if !ok {
			return false
		}

		for _, item := range l {
			if item == r {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
