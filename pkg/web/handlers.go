// Package web provides the HTTP surface of the trigger API.
package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/driftlabs/cascade/pkg/eventbus"
	"github.com/driftlabs/cascade/pkg/events"
	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/persistence"
)

const defaultExecutionsLimit = 50

type APIHandlers struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	p persistence.Persistence,
	publisher eventbus.EventPublisher,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		persistence: p,
		publisher:   publisher,
		validator:   validator,
		logger:      logger.With("module", "web"),
	}
}

// TriggerWorkflow accepts a business event and hands it to the bus. The
// response only acknowledges receipt; matching and execution happen in the
// workers.
func (h *APIHandlers) TriggerWorkflow(c fiber.Ctx) error {
	var req TriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !models.IsValidTriggerType(req.TriggerType) {
		return badRequest(c, "Unknown trigger type: "+req.TriggerType)
	}

	triggerType := models.TriggerType(req.TriggerType)

	event := events.NewTriggerReceived(req.CompanyID, triggerType, req.TriggerData)

	err := h.publisher.Publish(c.Context(), req.CompanyID, event)
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to publish trigger event",
			"trigger_type", triggerType,
			"company_id", req.CompanyID,
			"error", err)

		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	workflowID := c.Query("workflow_id")
	if workflowID == "" {
		return badRequest(c, "workflow_id query parameter is required")
	}

	limit := defaultExecutionsLimit

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return badRequest(c, "limit must be a positive integer")
		}

		limit = parsed
	}

	if _, err := h.persistence.WorkflowByID(c.Context(), workflowID); err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	executions, err := h.persistence.ExecutionsByWorkflow(c.Context(), workflowID, limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Cascade API is healthy"
	httpStatus := http.StatusOK

	repositoryErr := h.persistence.HealthCheck(c.Context())
	if repositoryErr != nil {
		status = "unhealthy"
		message = "Cascade API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryErr == nil,
		},
		"timestamp": time.Now().UTC(),
	})
}
