package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// client talks to a composed server.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiPath joins escaped segments under /api/compose.
func apiPath(segments ...string) string {
	p := "/api/compose/"
	for i, s := range segments {
		if i > 0 {
			p += "/"
		}
		p += url.PathEscape(s)
	}
	return p
}

// ErrorResponse matches internal/http ErrorResponse.
type ErrorResponse struct {
	Detail   string `json:"detail"`
	Location *struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"location,omitempty"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Detail)
}

// do sends body as JSON (when non-nil) and returns the raw response
// payload of a successful request.
func (c *client) do(ctx context.Context, method, path string, body any) ([]byte, http.Header, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request to %s: %w", c.baseURL+path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er ErrorResponse
		if json.Unmarshal(payload, &er) == nil && er.Detail != "" {
			return nil, nil, &APIError{Status: resp.StatusCode, Detail: er.Detail}
		}
		return nil, nil, &APIError{Status: resp.StatusCode, Detail: string(payload)}
	}
	return payload, resp.Header, nil
}

// doJSON decodes a successful response into out.
func (c *client) doJSON(ctx context.Context, method, path string, body, out any) error {
	payload, _, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
