package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/summonlabs/summoner/internal/service"
)

// Client is the HTTP client for the summoner admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new admin API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetStats gets the summon statistics
func (c *Client) GetStats(ctx context.Context) (*service.StatsReport, error) {
	var report service.StatsReport
	if err := c.get(ctx, "/api/stats", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetStatus gets the watched user's status
func (c *Client) GetStatus(ctx context.Context) (*service.StatusReport, error) {
	var report service.StatusReport
	if err := c.get(ctx, "/api/status", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetQuietHours gets the quiet-hours state
func (c *Client) GetQuietHours(ctx context.Context) (*service.QuietReport, error) {
	var report service.QuietReport
	if err := c.get(ctx, "/api/quiet-hours", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Summon sends a manual summon; empty userID targets the watched user, empty channelID the destination channel
func (c *Client) Summon(ctx context.Context, userID, channelID string) (*service.SummonReport, error) {
	body := map[string]string{"user_id": userID, "channel_id": channelID}
	var report service.SummonReport
	if err := c.post(ctx, "/api/summon", body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Reload reloads messages from the CSV sources
func (c *Client) Reload(ctx context.Context, force bool) (*service.ReloadReport, error) {
	q := url.Values{}
	q.Set("force", fmt.Sprintf("%t", force))
	var report service.ReloadReport
	if err := c.post(ctx, "/api/reload?"+q.Encode(), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ResetUsed makes every message available again
func (c *Client) ResetUsed(ctx context.Context) error {
	return c.post(ctx, "/api/reset", nil, nil)
}

// StopScheduler stops automatic summoning
func (c *Client) StopScheduler(ctx context.Context) error {
	return c.post(ctx, "/api/scheduler/stop", nil, nil)
}

// Recheck forces a watched user status check
func (c *Client) Recheck(ctx context.Context) (*service.RecheckReport, error) {
	var report service.RecheckReport
	if err := c.post(ctx, "/api/scheduler/recheck", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ============ HTTP Helpers ============

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// APIError is a non-200 admin API response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &payload) == nil && payload.Error != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, payload.Error)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
