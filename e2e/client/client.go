package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds client configuration.
type Config struct {
	IngestionURL string
	QueryURL     string
}

// ProcessRequest is the body of POST /process.
type ProcessRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ProcessResponse is the reply to POST /process.
type ProcessResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	ItemID  *string `json:"item_id"`
}

// Item is the lookup representation returned by the query API.
type Item struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ErrorResponse represents an error response from the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProcessItem posts an item to the ingestion API.
func ProcessItem(ctx context.Context, cfg *Config, req *ProcessRequest) (*ProcessResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.IngestionURL+"/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, status, err := do(httpReq)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, unexpected(status, respBody)
	}

	var processResp ProcessResponse
	if err := json.Unmarshal(respBody, &processResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &processResp, nil
}

// GetItem retrieves an item from the query API. A missing item returns nil.
func GetItem(ctx context.Context, cfg *Config, id string) (*Item, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.QueryURL+"/api/v1/items/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respBody, status, err := do(httpReq)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, nil // Not found is not an error
	}
	if status != http.StatusOK {
		return nil, unexpected(status, respBody)
	}

	var it Item
	if err := json.Unmarshal(respBody, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &it, nil
}

// WaitForStatus polls the query API until the item reaches status or timeout.
func WaitForStatus(ctx context.Context, cfg *Config, id, status string, timeout time.Duration) (*Item, error) {
	deadline := time.Now().Add(timeout)

	var last *Item
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		it, err := GetItem(ctx, cfg, id)
		if err != nil {
			return nil, err
		}
		if it != nil && it.Status == status {
			return it, nil
		}
		last = it

		time.Sleep(100 * time.Millisecond)
	}

	if last == nil {
		return nil, fmt.Errorf("timeout waiting for item %s: never stored", id)
	}
	return nil, fmt.Errorf("timeout waiting for item %s to reach %s (last status %s)", id, status, last.Status)
}

// CheckHealth checks the health endpoint of a service.
func CheckHealth(ctx context.Context, url string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	_, status, err := do(httpReq)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return fmt.Errorf("health check failed with status %d", status)
	}

	return nil
}

func do(req *http.Request) ([]byte, int, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func unexpected(status int, body []byte) error {
	var errResp ErrorResponse
	_ = json.Unmarshal(body, &errResp)
	return fmt.Errorf("unexpected status %d: %s", status, errResp.Error)
}
