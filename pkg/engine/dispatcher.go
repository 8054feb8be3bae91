package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftlabs/cascade/pkg/eventbus"
	"github.com/driftlabs/cascade/pkg/events"
	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/persistence"
)

// Dispatcher is the trigger event bus: it matches an incoming business event
// against the tenant's enabled workflows and starts one isolated run per
// match. One workflow blowing up never stops its siblings.
type Dispatcher struct {
	persistence persistence.Persistence
	walker      *Walker
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewDispatcher builds a dispatcher. publisher may be nil when nothing
// downstream consumes execution lifecycle events, as in tests.
func NewDispatcher(p persistence.Persistence, walker *Walker, publisher eventbus.EventPublisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		walker:      walker,
		publisher:   publisher,
		logger:      logger.With("module", "trigger_dispatcher"),
	}
}

// Dispatch starts a run for every enabled workflow matching the trigger and
// waits for all of them. Runs execute concurrently and share no mutable
// state; ordering between them is unspecified. No matching workflows is a
// no-op, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger models.TriggerType, companyID string, data map[string]any) error {
	workflows, err := d.persistence.WorkflowsByTrigger(ctx, companyID, trigger)
	if err != nil {
		return fmt.Errorf("failed to look up workflows for trigger %s: %w", trigger, err)
	}

	if len(workflows) == 0 {
		d.logger.DebugContext(ctx, "No workflows match trigger",
			"trigger_type", trigger,
			"company_id", companyID)

		return nil
	}

	d.logger.InfoContext(ctx, "Dispatching trigger",
		"trigger_type", trigger,
		"company_id", companyID,
		"workflows", len(workflows))

	runTrigger := RunTrigger{
		TriggeredBy:   stringField(data, "triggered_by"),
		TriggeredByID: stringField(data, "triggered_by_id"),
		Data:          data,
	}

	done := make(chan struct{}, len(workflows))

	for _, workflow := range workflows {
		go func(workflow *models.Workflow) {
			defer func() {
				// The walker recovers its own panics; this boundary
				// catches anything outside it so the dispatcher loop
				// and sibling runs survive.
				if r := recover(); r != nil {
					d.logger.ErrorContext(ctx, "Workflow run escaped walker recovery",
						"workflow_id", workflow.ID,
						"panic", r)
				}

				done <- struct{}{}
			}()

			execution := d.walker.Run(ctx, workflow, runTrigger)
			d.publishFinished(ctx, execution)
		}(workflow)
	}

	for range workflows {
		<-done
	}

	return nil
}

func (d *Dispatcher) publishFinished(ctx context.Context, execution *models.WorkflowExecution) {
	if d.publisher == nil || execution == nil {
		return
	}

	event := events.NewExecutionFinished(execution)

	err := d.publisher.Publish(ctx, execution.CompanyID, event)
	if err != nil {
		d.logger.WarnContext(ctx, "Failed to publish execution finished event",
			"execution_id", execution.ID,
			"error", err)
	}
}

// DispatchAsync is the fire-and-forget form used by the trigger API: it
// returns as soon as the runs are spawned. Failures are logged, never
// surfaced to the caller.
func (d *Dispatcher) DispatchAsync(ctx context.Context, trigger models.TriggerType, companyID string, data map[string]any) {
	go func() {
		err := d.Dispatch(ctx, trigger, companyID, data)
		if err != nil {
			d.logger.ErrorContext(ctx, "Async dispatch failed",
				"trigger_type", trigger,
				"company_id", companyID,
				"error", err)
		}
	}()
}
