package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/driftlabs/cascade/pkg/condition"
	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/otelhelper"
	"github.com/driftlabs/cascade/pkg/protocol"
	"github.com/driftlabs/cascade/pkg/registry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxDelay caps delay nodes; this engine runs in short-lived workers and a
// branch cannot park longer than this.
const maxDelay = 5 * time.Minute

// RunTrigger describes the event that starts one run.
type RunTrigger struct {
	TriggeredBy   string
	TriggeredByID string
	Data          map[string]any
}

// Walker executes one workflow run: it traverses the node graph outward from
// the trigger node, evaluating conditions, dispatching actions and recording
// every node's outcome. A node is visited at most once per run, which also
// guards against cyclic edges.
type Walker struct {
	registry *registry.Registry
	recorder *Recorder
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewWalker(reg *registry.Registry, recorder *Recorder, logger *slog.Logger) *Walker {
	return &Walker{
		registry: reg,
		recorder: recorder,
		logger:   logger.With("module", "workflow_walker"),
		tracer:   otel.Tracer("cascade/engine"),
	}
}

// Run executes the workflow against the trigger and returns the finalized
// execution record. It never panics outward: any internal failure finalizes
// the run as failed with the captured stack.
func (w *Walker) Run(ctx context.Context, workflow *models.Workflow, trigger RunTrigger) *models.WorkflowExecution {
	start := time.Now()

	execution := &models.WorkflowExecution{
		ID:            newExecutionID(),
		WorkflowID:    workflow.ID,
		CompanyID:     workflow.CompanyID,
		Status:        models.ExecutionStatusRunning,
		TriggeredBy:   trigger.TriggeredBy,
		TriggeredByID: trigger.TriggeredByID,
		TriggerData:   trigger.Data,
		ExecutionData: make(map[string]models.NodeResult),
		ExecutedAt:    start.UTC(),
	}

	logger := w.logger.With(
		"workflow_id", workflow.ID,
		"company_id", workflow.CompanyID,
		"execution_id", execution.ID,
	)

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.run",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.TriggerTypeKey, string(workflow.TriggerType)),
	)
	defer span.End()

	// The audit record exists before any node runs; if persisting it fails
	// the run still executes, with the failure logged.
	err := w.recorder.Begin(ctx, execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist initial execution record", "error", err)
	}

	defer func() {
		if r := recover(); r != nil {
			execution.Status = models.ExecutionStatusFailed
			execution.ErrorMessage = fmt.Sprintf("internal error: %v", r)
			execution.ErrorStack = string(debug.Stack())
			execution.ExecutionTimeMs = time.Since(start).Milliseconds()

			logger.ErrorContext(ctx, "Workflow run panicked", "panic", r)
			otelhelper.RecordError(span, fmt.Errorf("panic: %v", r))
			w.recorder.Finalize(ctx, execution)
		}
	}()

	logger.InfoContext(ctx, "Starting workflow run", "trigger_type", workflow.TriggerType)

	if err := workflow.ValidateStructure(); err != nil {
		return w.fail(ctx, execution, start, err.Error())
	}

	g := buildGraph(workflow)
	succeeded, failed := w.walk(ctx, g, workflow, execution, logger)

	execution.Status = finalStatus(succeeded, failed)
	execution.ExecutionTimeMs = time.Since(start).Milliseconds()

	w.recorder.Finalize(ctx, execution)
	logger.InfoContext(ctx, "Workflow run finished",
		"status", execution.Status,
		"duration_ms", execution.ExecutionTimeMs,
		"actions_succeeded", succeeded,
		"actions_failed", failed)

	return execution
}

// walk traverses the graph breadth-first from the trigger node and returns
// the number of action nodes that succeeded and failed.
func (w *Walker) walk(ctx context.Context, g *graph, workflow *models.Workflow, execution *models.WorkflowExecution, logger *slog.Logger) (int, int) {
	ectx := protocol.ExecutionContext{
		ExecutionID:    execution.ID,
		WorkflowID:     workflow.ID,
		CompanyID:      workflow.CompanyID,
		ContactID:      stringField(execution.TriggerData, "contactId"),
		ConversationID: stringField(execution.TriggerData, "conversationId"),
		TriggerData:    execution.TriggerData,
		NodeOutputs:    make(map[string]map[string]any),
		Logger:         logger,
	}

	var succeeded, failed int

	queue := []string{workflow.TriggerNode().ID}
	visited := make(map[string]struct{}, len(g.nodes))

	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]

		if _, seen := visited[nodeID]; seen {
			continue
		}

		visited[nodeID] = struct{}{}

		node, ok := g.nodes[nodeID]
		if !ok {
			// ValidateStructure checked edge endpoints, so this would be
			// a walker bug; treat it as one.
			panic(fmt.Sprintf("traversal reached unknown node %q", nodeID))
		}

		switch node.Type {
		case models.NodeTypeTrigger:
			queue = append(queue, g.outgoing(nodeID)...)

		case models.NodeTypeCondition:
			matched := condition.Evaluate(node.Data.Config, execution.TriggerData)
			w.record(ctx, execution, nodeID, models.SuccessResult(map[string]any{"matched": matched}))
			logger.DebugContext(ctx, "Evaluated condition", "node_id", nodeID, "matched", matched)
			queue = append(queue, g.branch(nodeID, matched)...)

		case models.NodeTypeAction:
			result := w.executeAction(ctx, node, ectx)
			w.record(ctx, execution, nodeID, result)

			if result.Success {
				succeeded++

				if result.Output != nil {
					ectx.NodeOutputs[nodeID] = result.Output
				}
			} else {
				failed++

				logger.WarnContext(ctx, "Action node failed",
					"node_id", nodeID,
					"action_type", node.ActionType(),
					"error", result.Error)
			}

			// Failure is node-local: downstream and sibling nodes still run.
			queue = append(queue, g.outgoing(nodeID)...)

		case models.NodeTypeDelay:
			result := w.delay(ctx, node)
			w.record(ctx, execution, nodeID, result)
			queue = append(queue, g.outgoing(nodeID)...)

		default:
			w.record(ctx, execution, nodeID, models.FailedResult(fmt.Sprintf("unknown node type %q", node.Type)))
		}
	}

	return succeeded, failed
}

// executeAction resolves and runs one action node, converting every failure
// mode, panics included, into a NodeResult.
func (w *Walker) executeAction(ctx context.Context, node *models.Node, ectx protocol.ExecutionContext) (result models.NodeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.FailedResult(fmt.Sprintf("action panicked: %v", r))
		}
	}()

	actionType := node.ActionType()
	if actionType == "" {
		return models.FailedResult("action node has no config.type")
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.action",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.ActionTypeKey, actionType),
	)
	defer span.End()

	action, err := w.registry.CreateAction(actionType, node.Data.Config)
	if err != nil {
		otelhelper.RecordError(span, err)

		return models.FailedResult(err.Error())
	}

	return action.Execute(ctx, ectx)
}

// delay parks the branch for the configured duration. The whole traversal is
// sequential, so in this engine a delay holds back everything still queued;
// workflows use it for short pauses before notifications and the cap keeps a
// bad config from wedging a worker.
func (w *Walker) delay(ctx context.Context, node *models.Node) models.NodeResult {
	ms, ok := numberField(node.Data.Config, "duration_ms")
	if !ok || ms < 0 {
		return models.FailedResult("delay node has no valid duration_ms")
	}

	duration := time.Duration(ms) * time.Millisecond
	if duration > maxDelay {
		duration = maxDelay
	}

	select {
	case <-ctx.Done():
		return models.FailedResult(fmt.Sprintf("delay interrupted: %v", ctx.Err()))
	case <-time.After(duration):
	}

	return models.SuccessResult(map[string]any{"delayedMs": duration.Milliseconds()})
}

func (w *Walker) record(ctx context.Context, execution *models.WorkflowExecution, nodeID string, result models.NodeResult) {
	execution.ExecutionData[nodeID] = result
	w.recorder.RecordNodeResult(ctx, execution.ID, nodeID, result)
}

func (w *Walker) fail(ctx context.Context, execution *models.WorkflowExecution, start time.Time, message string) *models.WorkflowExecution {
	execution.Status = models.ExecutionStatusFailed
	execution.ErrorMessage = message
	execution.ExecutionTimeMs = time.Since(start).Milliseconds()

	w.recorder.Finalize(ctx, execution)

	return execution
}

// finalStatus applies the degradation rules: a run only fails outright when
// actions ran and none succeeded; mixed outcomes are a partial failure; a run
// where nothing failed, including one where no action was reached, succeeds.
func finalStatus(succeeded, failed int) models.ExecutionStatus {
	switch {
	case failed == 0:
		return models.ExecutionStatusSuccess
	case succeeded == 0:
		return models.ExecutionStatusFailed
	default:
		return models.ExecutionStatusPartialFailure
	}
}

func newExecutionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}

	return id.String()
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}

	s, _ := data[key].(string)

	return s
}

func numberField(data map[string]any, key string) (float64, bool) {
	if data == nil {
		return 0, false
	}

	switch n := data[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
