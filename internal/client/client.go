// Package client calls the answering backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studymate/internal/domain"
)

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
}

// HealthStatus is the liveness payload of the backend.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client talks to the /ask and health endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL. A zero timeout means 60s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Ask sends question and returns the backend's answer. A response whose
// status is not "success" is an error.
func (c *Client) Ask(ctx context.Context, question string) (domain.ChatResponse, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return domain.ChatResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return domain.ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp domain.ChatResponse
	if err := c.do(req, &resp); err != nil {
		return domain.ChatResponse{}, err
	}
	if resp.Status != domain.StatusSuccess {
		return domain.ChatResponse{}, fmt.Errorf("backend returned status %q", resp.Status)
	}
	return resp, nil
}

// Answer lets a Client stand in wherever a domain.Answerer is expected.
func (c *Client) Answer(ctx context.Context, question string) (domain.ChatResponse, error) {
	return c.Ask(ctx, question)
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	var hs HealthStatus
	if err := c.do(req, &hs); err != nil {
		return HealthStatus{}, err
	}
	if hs.Status != domain.StatusSuccess {
		return hs, fmt.Errorf("backend unhealthy: %s", hs.Status)
	}
	return hs, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(payload, &e) == nil {
			apiErr.Detail = e.Detail
		}
		return apiErr
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsAPIError reports whether err carries an HTTP error from the backend.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
