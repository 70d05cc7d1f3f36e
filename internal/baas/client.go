// Package baas talks to the hosted backend-as-a-service over REST: the
// PostgREST table API, the object storage API, and JWT verification for
// tokens it issues.
package baas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// HTTP client settings
	defaultTimeout = 30 * time.Second

	// Cap on error bodies kept for messages.
	maxErrorBody = 4 << 10
)

// Client is an authenticated BaaS REST client using the service key.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
	logger     *slog.Logger
}

// New creates a client for the project at baseURL.
func New(baseURL, serviceKey string, logger *slog.Logger) *Client {
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// BaseURL returns the project URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one REST call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	headers     map[string]string
	body        any    // JSON-encoded when non-nil
	raw         []byte // sent as-is when non-nil
	contentType string
}

// do executes a request and returns the response body.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var reqBody io.Reader
	contentType := r.contentType
	switch {
	case r.raw != nil:
		reqBody = bytes.NewReader(r.raw)
	case r.body != nil:
		jsonData, err := json.Marshal(r.body)
		if err != nil {
			return nil, wrapError(r.op, 0, "", fmt.Errorf("marshal request body: %w", err))
		}
		reqBody = bytes.NewReader(jsonData)
		contentType = "application/json"
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, reqBody)
	if err != nil {
		return nil, wrapError(r.op, 0, "", fmt.Errorf("create request: %w", err))
	}

	// Set headers
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("baas request",
		"op", r.op,
		"method", r.method,
		"path", r.path,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(r.op, 0, "", fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	// Read body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(r.op, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 300 {
		return body, nil
	}

	message, sentinel := classify(resp.StatusCode, body)
	return nil, wrapError(r.op, resp.StatusCode, message, sentinel)
}

// postJSON posts body to an arbitrary API path and decodes the reply into dst.
func (c *Client) postJSON(ctx context.Context, op, path string, body, dst any) error {
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   body,
	})
	if err != nil {
		return err
	}
	return decode(op, resp, dst)
}

// apiError is the union of PostgREST and storage error bodies.
type apiError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Error      string `json:"error"`
	StatusCode string `json:"statusCode"`
}

// classify maps a failed response onto a sentinel and a readable message.
func classify(status int, body []byte) (string, error) {
	var apiErr apiError
	message := ""
	if json.Unmarshal(body, &apiErr) == nil {
		message = apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
	} else if len(body) > 0 {
		message = string(body[:min(len(body), maxErrorBody)])
	}

	// Postgres error codes surfaced by PostgREST.
	// The storage API reports duplicates as 400 with statusCode "409".
	if apiErr.StatusCode == "409" {
		return message, ErrConflict
	}
	switch apiErr.Code {
	case "23505":
		return message, ErrConflict
	case "23503", "P0002":
		return message, ErrNotFound
	}

	switch {
	case status == http.StatusNotFound:
		return message, ErrNotFound
	case status == http.StatusConflict:
		return message, ErrConflict
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return message, ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return message, ErrRateLimited
	case status >= 500:
		return message, ErrServer
	default:
		// Storage reports a missing object as 400 with statusCode "404".
		if apiErr.StatusCode == "404" {
			return message, ErrNotFound
		}
		if apiErr.StatusCode == "409" {
			return message, ErrConflict
		}
		return message, ErrBadRequest
	}
}
