// Package main provides the cascade worker, which consumes trigger events
// from the bus and runs the matching workflows.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/driftlabs/cascade/pkg/engine"
	"github.com/driftlabs/cascade/pkg/eventbus"
	"github.com/driftlabs/cascade/pkg/events"
	"github.com/driftlabs/cascade/pkg/persistence"
	"github.com/driftlabs/cascade/pkg/registry"
)

type Worker struct {
	id         string
	logger     *slog.Logger
	eventBus   eventbus.EventBus
	dispatcher *engine.Dispatcher
}

func NewWorker(
	id string,
	p persistence.Persistence,
	eventBus eventbus.EventBus,
	reg *registry.Registry,
	logger *slog.Logger,
) *Worker {
	recorder := engine.NewRecorder(p, logger)
	walker := engine.NewWalker(reg, recorder, logger)

	return &Worker{
		id:         id,
		logger:     logger,
		eventBus:   eventBus,
		dispatcher: engine.NewDispatcher(p, walker, eventBus, logger),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker")

	err := w.eventBus.Handle(events.TriggerReceivedEvent, w.handleTriggerReceived)
	if err != nil {
		return err
	}

	err = w.eventBus.Handle(events.ExecutionFinishedEvent, w.handleExecutionFinished)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *Worker) handleTriggerReceived(ctx context.Context, event any) error {
	trigger, ok := event.(*events.TriggerReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for TriggerReceived")

		return nil
	}

	logger := w.logger.With(
		"trigger_type", trigger.TriggerType,
		"company_id", trigger.CompanyID,
		"event_id", trigger.ID,
	)
	logger.InfoContext(ctx, "Processing trigger event")

	triggerData := trigger.TriggerData
	if triggerData == nil {
		triggerData = make(map[string]any)
	}

	err := w.dispatcher.Dispatch(ctx, trigger.TriggerType, trigger.CompanyID, triggerData)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to dispatch trigger", "error", err)

		return err
	}

	return nil
}

func (w *Worker) handleExecutionFinished(ctx context.Context, event any) error {
	finished, ok := event.(*events.ExecutionFinished)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ExecutionFinished")

		return nil
	}

	w.logger.InfoContext(ctx, "Workflow execution finished",
		"execution_id", finished.ExecutionID,
		"workflow_id", finished.WorkflowID,
		"status", finished.Status,
		"duration_ms", finished.DurationMs)

	return nil
}
