package models

import "errors"

// NodeType is the kind of vertex in a workflow graph.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeCondition NodeType = "condition"
	NodeTypeAction    NodeType = "action"
	NodeTypeDelay     NodeType = "delay"
)

// Node is one vertex in a workflow's execution graph. The config blob is kept
// loosely typed at the graph boundary; each action decodes it into its own
// config struct and reports malformed config as a node-local failure.
type Node struct {
	ID   string   `json:"id"   validate:"required"`
	Type NodeType `json:"type" validate:"required"`
	Data NodeData `json:"data"`
}

// NodeData carries the dashboard label plus the type-specific configuration.
// For action nodes config["type"] selects the action handler.
type NodeData struct {
	Label  string         `json:"label,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// ActionType returns config["type"] for action nodes, or "" when missing.
func (n *Node) ActionType() string {
	if n.Data.Config == nil {
		return ""
	}

	t, _ := n.Data.Config["type"].(string)

	return t
}

// Edge is a directed connection between two nodes. SourceHandle disambiguates
// branches out of a condition node ("true" / "false"); an empty handle counts
// as the true branch.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Structural validation errors. These abort a run before any node executes.
var (
	ErrNoTriggerNode        = errors.New("workflow has no trigger node")
	ErrMultipleTriggerNodes = errors.New("workflow has more than one trigger node")
	ErrUnknownEdgeEndpoint  = errors.New("edge references unknown node id")
)

// ValidateStructure checks the graph-shape invariants: exactly one trigger
// node, and every edge endpoint resolving to an existing node. Dead nodes
// (unreachable from the trigger) are tolerated and simply never executed.
func (w *Workflow) ValidateStructure() error {
	triggers := 0

	ids := make(map[string]struct{}, len(w.Nodes))
	for _, n := range w.Nodes {
		ids[n.ID] = struct{}{}

		if n.Type == NodeTypeTrigger {
			triggers++
		}
	}

	if triggers == 0 {
		return ErrNoTriggerNode
	}

	if triggers > 1 {
		return ErrMultipleTriggerNodes
	}

	for _, e := range w.Edges {
		if _, ok := ids[e.Source]; !ok {
			return ErrUnknownEdgeEndpoint
		}

		if _, ok := ids[e.Target]; !ok {
			return ErrUnknownEdgeEndpoint
		}
	}

	return nil
}
