package web

// TriggerRequest is the body of the internal trigger endpoint. TriggerData
// carries the event payload verbatim into the matched workflow runs.
type TriggerRequest struct {
	TriggerType string         `json:"trigger_type" validate:"required"`
	CompanyID   string         `json:"company_id"   validate:"required,uuid4"`
	TriggerData map[string]any `json:"trigger_data"`
}
