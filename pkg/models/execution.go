package models

import "time"

// ExecutionStatus is the lifecycle state of a workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning        ExecutionStatus = "running"
	ExecutionStatusSuccess        ExecutionStatus = "success"
	ExecutionStatusPartialFailure ExecutionStatus = "partial_failure"
	ExecutionStatusFailed         ExecutionStatus = "failed"
)

// IsTerminal reports whether the status is final. Terminal executions are
// never mutated again.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusPartialFailure || s == ExecutionStatusFailed
}

// NodeResult is the outcome of one node within a run. An action that creates
// a deal returns Output["dealId"], which downstream nodes can reference.
type NodeResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Output  map[string]any `json:"output,omitempty"`
}

// FailedResult builds a failure NodeResult with the given message.
func FailedResult(msg string) NodeResult {
	return NodeResult{Success: false, Error: msg}
}

// SuccessResult builds a success NodeResult with an optional output map.
func SuccessResult(output map[string]any) NodeResult {
	return NodeResult{Success: true, Output: output}
}

// WorkflowExecution is the audit record of one triggered run. It is created
// before the first node executes and finalized exactly once; the engine never
// deletes execution records.
type WorkflowExecution struct {
	ID              string                `json:"id"`
	WorkflowID      string                `json:"workflow_id"`
	CompanyID       string                `json:"company_id"`
	Status          ExecutionStatus       `json:"status"`
	TriggeredBy     string                `json:"triggered_by,omitempty"`
	TriggeredByID   string                `json:"triggered_by_id,omitempty"`
	TriggerData     map[string]any        `json:"trigger_data,omitempty"`
	ExecutionData   map[string]NodeResult `json:"execution_data"`
	ExecutionTimeMs int64                 `json:"execution_time_ms"`
	ErrorMessage    string                `json:"error_message,omitempty"`
	ErrorStack      string                `json:"error_stack,omitempty"`
	ExecutedAt      time.Time             `json:"executed_at"`
}
