// Package seq is a client for the display-ID allocation service, which
// hands out human-readable sequential identifiers like ACT-000042.
package seq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CategoryActivity is the allocation category for activity records.
const CategoryActivity = "ACT"

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Next allocates the next display ID in the given category.
func (c *Client) Next(ctx context.Context, category string) (string, error) {
	url := fmt.Sprintf("%s/sequences/%s/next", c.baseURL, category)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sequence request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("sequence service: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		DisplayID string `json:"display_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode sequence response: %w", err)
	}
	if payload.DisplayID == "" {
		return "", fmt.Errorf("sequence service returned empty display id")
	}
	return payload.DisplayID, nil
}
