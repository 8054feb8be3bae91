// Package protocol defines the contracts between the workflow engine and its
// pluggable action handlers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/driftlabs/cascade/pkg/models"
)

// ExecutionContext carries the tenant scope and per-run state an action needs:
// the triggering entities and the outputs of every upstream node in the same
// run, so a later node can reference an earlier node's output (e.g. a
// notification mentioning the dealId just created).
type ExecutionContext struct {
	ExecutionID    string
	WorkflowID     string
	CompanyID      string
	ContactID      string
	ConversationID string
	TriggerData    map[string]any
	NodeOutputs    map[string]map[string]any
	Logger         *slog.Logger
}

// Action executes one action node against tenant data. Execute returns a
// NodeResult and never a Go error: validation problems, missing records and
// exhausted retries all surface as result failures, so the walker treats every
// action uniformly and one failure cannot take down the rest of the graph.
type Action interface {
	Execute(ctx context.Context, ectx ExecutionContext) models.NodeResult
}

// ActionFactory creates action instances and describes the action type.
type ActionFactory interface {
	// Create instantiates the action from a node's raw config map. A
	// decoding failure is returned as an error here, which the dispatcher
	// converts into a failure NodeResult.
	Create(config map[string]any) (Action, error)

	// ID returns the config "type" value this factory handles.
	ID() string

	// Schema returns a JSON Schema for the action's configuration, used to
	// validate workflows when they are loaded.
	Schema() map[string]any
}
