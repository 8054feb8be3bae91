package engine

import "github.com/driftlabs/cascade/pkg/models"

// graph is the adjacency view of a workflow, built once per run so traversal
// never rescans the flat node/edge lists.
type graph struct {
	nodes map[string]*models.Node
	edges map[string][]*models.Edge
}

func buildGraph(workflow *models.Workflow) *graph {
	g := &graph{
		nodes: make(map[string]*models.Node, len(workflow.Nodes)),
		edges: make(map[string][]*models.Edge, len(workflow.Edges)),
	}

	for _, node := range workflow.Nodes {
		g.nodes[node.ID] = node
	}

	for _, edge := range workflow.Edges {
		g.edges[edge.Source] = append(g.edges[edge.Source], edge)
	}

	return g
}

// outgoing returns the targets of every edge leaving nodeID.
func (g *graph) outgoing(nodeID string) []string {
	edges := g.edges[nodeID]

	targets := make([]string, 0, len(edges))
	for _, e := range edges {
		targets = append(targets, e.Target)
	}

	return targets
}

// branch returns the targets of edges leaving a condition node for the given
// outcome. An edge without a sourceHandle counts as the true branch, so
// unbranched condition nodes simply continue when the condition holds.
func (g *graph) branch(nodeID string, matched bool) []string {
	targets := make([]string, 0)

	for _, e := range g.edges[nodeID] {
		if matched && (e.SourceHandle == "" || e.SourceHandle == "true") {
			targets = append(targets, e.Target)
		}

		if !matched && e.SourceHandle == "false" {
			targets = append(targets, e.Target)
		}
	}

	return targets
}
