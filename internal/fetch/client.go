// Package fetch implements the HTTP client used to look up the status of a
// remote resource by identifier and client secret.
//
// This package is not part of the public API and may change without notice.
// The root package wraps it behind the Fetcher interface.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits for long-lived polling sessions
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// Source is the wire representation of the watched resource.
//
// This is the fetch-internal version of the resource, decoupled from the
// root package types to avoid a circular dependency. Raw preserves the
// response body for debugging.
type Source struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"client_secret"`
	Created      int64  `json:"created"`
	Livemode     bool   `json:"livemode"`

	Raw []byte `json:"-"`
}

// APIError is returned when the status endpoint answers with a non-2xx code.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Message is the server-supplied error message, if one could be decoded.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

// Client is an HTTP client for repeatedly fetching one resource's status.
//
// Timeouts are applied per-request via context rather than a global client
// timeout. Response bodies are limited to 1MB.
type Client struct {
	baseURL    string
	headers    map[string]string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a status lookup client for the given API base URL.
//
// The transport keeps a small idle connection pool alive so that successive
// polls of the same host reuse connections. headers are sent with every
// request and may be nil. timeout bounds each individual request.
func NewClient(baseURL string, headers map[string]string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		headers: headers,
		timeout: timeout,
		httpClient: &http.Client{
			// no default timeout - per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// FetchSource performs one status lookup for the resource identified by id,
// authorized by secret.
//
// The lookup is a GET of {base}/v1/sources/{id}?client_secret={secret}.
// A non-2xx response is returned as an *APIError; a 2xx response is decoded
// into a [Source] with the raw body preserved.
func (c *Client) FetchSource(ctx context.Context, id, secret string) (*Source, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/v1/sources/%s?client_secret=%s",
		c.baseURL, url.PathEscape(id), url.QueryEscape(secret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(body),
		}
	}

	var src Source
	if err := json.Unmarshal(body, &src); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	src.Raw = body

	return &src, nil
}

// decodeErrorMessage extracts a human-readable message from an error body
// of the form {"error": {"message": "..."}}. Returns "" if none is found.
func decodeErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error.Message
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil client. The client remains
// usable afterwards; new connections are established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
