// Package webhook implements the action that POSTs a rendered payload to a
// tenant-configured URL. Transport errors and 5xx responses are retried with
// exponential backoff; 4xx responses are treated as non-retryable failures.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/driftlabs/cascade/pkg/models"
	"github.com/driftlabs/cascade/pkg/protocol"
	"github.com/driftlabs/cascade/pkg/template"
)

const (
	maxAttempts    = 3
	initialBackoff = 1 * time.Second
	requestTimeout = 10 * time.Second
)

type Config struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Payload map[string]any    `json:"payload,omitempty"`
}

type Action struct {
	config  Config
	client  *http.Client
	backoff time.Duration
}

func NewAction(raw map[string]any) (*Action, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook config: %w", err)
	}

	var config Config

	err = json.Unmarshal(payload, &config)
	if err != nil {
		return nil, fmt.Errorf("malformed webhook config: %w", err)
	}

	if config.URL == "" {
		return nil, errors.New("webhook requires a url")
	}

	parsed, err := url.Parse(config.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("webhook url %q is not a valid http(s) URL", config.URL)
	}

	if config.Method == "" {
		config.Method = http.MethodPost
	}

	return &Action{
		config:  config,
		client:  &http.Client{},
		backoff: initialBackoff,
	}, nil
}

func (a *Action) Execute(ctx context.Context, ectx protocol.ExecutionContext) models.NodeResult {
	body, err := a.renderBody(ectx)
	if err != nil {
		return models.FailedResult(fmt.Sprintf("webhook: %v", err))
	}

	var (
		lastErr    error
		statusCode int
	)

	delay := a.backoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			ectx.Logger.WarnContext(ctx, "Retrying webhook call",
				"url", a.config.URL,
				"attempt", attempt,
				"last_error", lastErr)

			select {
			case <-ctx.Done():
				return models.FailedResult(fmt.Sprintf("webhook: %v", ctx.Err()))
			case <-time.After(delay):
			}

			delay *= 2
		}

		statusCode, lastErr = a.call(ctx, body)
		if lastErr == nil {
			return models.SuccessResult(map[string]any{
				"statusCode": statusCode,
				"url":        a.config.URL,
			})
		}

		// 4xx means the request itself is wrong; retrying cannot help.
		if statusCode >= 400 && statusCode < 500 {
			break
		}
	}

	return models.FailedResult(fmt.Sprintf("webhook: %v", lastErr))
}

func (a *Action) renderBody(ectx protocol.ExecutionContext) ([]byte, error) {
	payload := a.config.Payload
	if payload == nil {
		// Default payload mirrors what the run knows.
		payload = map[string]any{
			"trigger_data": ectx.TriggerData,
			"workflow_id":  ectx.WorkflowID,
			"execution_id": ectx.ExecutionID,
		}

		return json.Marshal(payload)
	}

	rendered, err := template.RenderMap(payload, ectx)
	if err != nil {
		return nil, err
	}

	return json.Marshal(rendered)
}

func (a *Action) call(ctx context.Context, body []byte) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, a.config.Method, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range a.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("received status %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}
