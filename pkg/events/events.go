// Package events defines the event types exchanged between the trigger API
// and the workflow workers.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/driftlabs/cascade/pkg/models"
)

type EventType string

// Topic carries every cascade event. Messages are keyed by company so a
// tenant's triggers stay ordered within a partition.
const Topic = "cascade.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	TriggerReceivedEvent   EventType = "trigger.received"
	ExecutionFinishedEvent EventType = "execution.finished"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	CompanyID string         `json:"company_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TriggerReceived is published by the trigger API when a business event
// arrives. Workers consume it and fan it out to matching workflows.
type TriggerReceived struct {
	BaseEvent

	TriggerType models.TriggerType `json:"trigger_type"`
	TriggerData map[string]any     `json:"trigger_data,omitempty"`
}

func (t TriggerReceived) GetType() EventType {
	return TriggerReceivedEvent
}

// ExecutionFinished is published by workers once a workflow run reaches a
// terminal status.
type ExecutionFinished struct {
	BaseEvent

	ExecutionID string                 `json:"execution_id"`
	WorkflowID  string                 `json:"workflow_id"`
	Status      models.ExecutionStatus `json:"status"`
	DurationMs  int64                  `json:"duration_ms"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}

func NewBaseEvent(eventType EventType, companyID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		CompanyID: companyID,
		Metadata:  make(map[string]any),
	}
}

func NewTriggerReceived(companyID string, triggerType models.TriggerType, triggerData map[string]any) TriggerReceived {
	return TriggerReceived{
		BaseEvent:   NewBaseEvent(TriggerReceivedEvent, companyID),
		TriggerType: triggerType,
		TriggerData: triggerData,
	}
}

func NewExecutionFinished(execution *models.WorkflowExecution) ExecutionFinished {
	return ExecutionFinished{
		BaseEvent:   NewBaseEvent(ExecutionFinishedEvent, execution.CompanyID),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		Status:      execution.Status,
		DurationMs:  execution.ExecutionTimeMs,
	}
}
