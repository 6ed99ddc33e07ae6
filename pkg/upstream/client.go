// Package upstream is a small JSON client for the third-party APIs the
// service depends on.
package upstream

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
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

var (
	// ErrTransport marks failures to reach the upstream at all.
	ErrTransport = errors.New("upstream unreachable")
	// ErrDecode marks responses that were not the expected JSON.
	ErrDecode = errors.New("upstream returned malformed payload")
)

// Client issues JSON requests with shared headers and timeouts.
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// New constructs a Client.
func New(opts ...Option) *Client {
	cli := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		headers:    http.Header{},
	}
	cli.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// StatusError is returned for upstream responses with status >= 400.
type StatusError struct {
	Status int
	Body   string
}

func (e StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream request failed with status %d", e.Status)
	}
	return fmt.Sprintf("upstream request failed (%d): %s", e.Status, e.Body)
}

// Status extracts the upstream status code from err, if any.
func Status(err error) (int, bool) {
	var se StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}

// GetJSON fetches endpoint and decodes the response into v.
func (c *Client) GetJSON(ctx context.Context, endpoint string, v any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, nil, v)
}

// PostJSON sends body as JSON and decodes the response into v when non-nil.
func (c *Client) PostJSON(ctx context.Context, endpoint string, headers http.Header, body, v any) error {
	return c.Do(ctx, http.MethodPost, endpoint, headers, body, v)
}

// Do performs a request. headers are merged over the client defaults.
func (c *Client) Do(ctx context.Context, method, endpoint string, headers http.Header, body, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, values := range c.headers {
		req.Header[key] = append([]string(nil), values...)
	}
	for key, values := range headers {
		req.Header[key] = append([]string(nil), values...)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return StatusError{Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return strings.TrimSpace(payload.Message)
		}
		if payload.Error != "" {
			return strings.TrimSpace(payload.Error)
		}
	}
	return strings.TrimSpace(string(data))
}
