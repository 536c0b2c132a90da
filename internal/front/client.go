// Package front is a client for the Front conversation API.
package front

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the Front API. It carries the HTTP
// status and the response body text.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("front api: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// ListConversations fetches one page of conversations. When cursor is
// non-empty it is a fully-qualified next-page URL from a previous page's
// pagination metadata and is fetched verbatim; otherwise the first page
// is fetched with the given limit.
func (c *Client) ListConversations(ctx context.Context, cursor string, limit int) (*ConversationPage, error) {
	url := cursor
	if url == "" {
		url = fmt.Sprintf("%s/conversations?limit=%d", c.baseURL, limit)
	}

	var resp conversationListResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}

	return &ConversationPage{
		Conversations: resp.Results,
		NextCursor:    resp.Pagination.Next,
	}, nil
}

// ListMessages fetches every message of one conversation.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	url := fmt.Sprintf("%s/conversations/%s/messages", c.baseURL, conversationID)

	var resp messageListResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("front api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode front response: %w", err)
	}
	return nil
}
