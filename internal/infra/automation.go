package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	TriggerManualForecast = "manual_forecast"
	AutomationSource      = "chainpilot_admin"
)

// AutomationPayload is the body POSTed to the operator's automation webhook.
type AutomationPayload struct {
	Trigger   string    `json:"trigger"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// AutomationClient posts trigger requests to an external workflow engine
// (n8n, Zapier, ...). Only the status code of the reply matters.
type AutomationClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewAutomationClient(webhookURL string, timeout time.Duration) *AutomationClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AutomationClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *AutomationClient) Configured() bool { return c.webhookURL != "" }

// Trigger sends one POST and returns the response status. Any non-2xx reply
// is an error.
func (c *AutomationClient) Trigger(ctx context.Context, payload AutomationPayload) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("automation: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("automation: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("automation: webhook unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("automation: webhook returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
