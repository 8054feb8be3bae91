// Package send_notification implements the action that pushes a message to an
// internal notification channel. Message templates are resolved against the
// run's trigger data and upstream node outputs before delivery.
package send_notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/notify"
	"github.com/driftlabs/cascade/pkg/protocol"
	"github.com/driftlabs/cascade/pkg/template"
)

const (
	maxAttempts  = 3
	initialDelay = 500 * time.Millisecond
	sendTimeout  = 10 * time.Second
)

type Config struct {
	Channel string `json:"channel"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

type Action struct {
	config   Config
	notifier notify.Notifier
}

func NewAction(raw map[string]any, notifier notify.Notifier) (*Action, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode send_notification config: %w", err)
	}

	var config Config

	err = json.Unmarshal(payload, &config)
	if err != nil {
		return nil, fmt.Errorf("malformed send_notification config: %w", err)
	}

	if config.Channel == "" {
		return nil, errors.New("send_notification requires a channel")
	}

	if config.Message == "" {
		return nil, errors.New("send_notification requires a message")
	}

	return &Action{config: config, notifier: notifier}, nil
}

func (a *Action) Execute(ctx context.Context, ectx protocol.ExecutionContext) models.NodeResult {
	message, err := template.Render(a.config.Message, ectx)
	if err != nil {
		return models.FailedResult(fmt.Sprintf("send_notification: %v", err))
	}

	title, err := template.Render(a.config.Title, ectx)
	if err != nil {
		return models.FailedResult(fmt.Sprintf("send_notification: %v", err))
	}

	notification := notify.Notification{
		CompanyID: ectx.CompanyID,
		Channel:   a.config.Channel,
		Title:     title,
		Message:   message,
		Metadata: map[string]any{
			"workflow_id":  ectx.WorkflowID,
			"execution_id": ectx.ExecutionID,
		},
	}

	// Delivery is the only I/O here; transient failures get bounded retries.
	var lastErr error

	delay := initialDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return models.FailedResult(fmt.Sprintf("send_notification: %v", ctx.Err()))
			case <-time.After(delay):
			}

			delay *= 2
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		lastErr = a.notifier.Send(sendCtx, notification)

		cancel()

		if lastErr == nil {
			ectx.Logger.InfoContext(ctx, "Sent notification", "channel", a.config.Channel)

			return models.SuccessResult(map[string]any{"channel": a.config.Channel})
		}
	}

	return models.FailedResult(fmt.Sprintf("send_notification: delivery failed after %d attempts: %v", maxAttempts, lastErr))
}
