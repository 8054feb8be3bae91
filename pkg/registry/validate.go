package registry

import (
	"fmt"

	"github.com/driftlabs/cascade/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationIssue describes one problem found in a workflow's node configs.
type ValidationIssue struct {
	NodeID string `json:"node_id"`
	Detail string `json:"detail"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("node %s: %s", i.NodeID, i.Detail)
}

// ValidateWorkflow checks the workflow's structure and every action node's
// config against the registered schema for its action type. Issues are
// reported rather than fatal: the engine still treats malformed config it
// meets at run time as a node-local failure, this just catches it earlier,
// when the workflow is loaded.
func (r *Registry) ValidateWorkflow(workflow *models.Workflow) []ValidationIssue {
	var issues []ValidationIssue

	if err := workflow.ValidateStructure(); err != nil {
		issues = append(issues, ValidationIssue{Detail: err.Error()})
	}

	for _, node := range workflow.Nodes {
		if node.Type != models.NodeTypeAction {
			continue
		}

		actionType := node.ActionType()
		if actionType == "" {
			issues = append(issues, ValidationIssue{NodeID: node.ID, Detail: "action node has no config.type"})

			continue
		}

		schema, ok := r.ActionSchema(actionType)
		if !ok {
			issues = append(issues, ValidationIssue{NodeID: node.ID, Detail: fmt.Sprintf("unknown action type %q", actionType)})

			continue
		}

		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(schema),
			gojsonschema.NewGoLoader(node.Data.Config),
		)
		if err != nil {
			issues = append(issues, ValidationIssue{NodeID: node.ID, Detail: err.Error()})

			continue
		}

		for _, desc := range result.Errors() {
			issues = append(issues, ValidationIssue{NodeID: node.ID, Detail: desc.String()})
		}
	}

	return issues
}
