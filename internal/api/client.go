// Package api is the gateway to the remote MindCare+ API: one HTTP client
// with credential injection plus a thin wrapper per endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
	"github.com/mindcareplus/mindcare/client/pkg/metrics"
)

const maxResponseBytes = 4 << 20

// CredentialSource supplies the Authorization header for each request.
// It is consulted at call time, never cached.
type CredentialSource interface {
	AuthorizationHeader() http.Header
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the default round tripper (tests).
	Transport http.RoundTripper
}

// Client wraps outbound calls to the remote API.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
}

// NewClient builds a client. creds may be nil for unauthenticated calls.
func NewClient(opts Options, creds CredentialSource) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: opts.Transport},
		creds:   creds,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	in       interface{}
	out      interface{}
	header   http.Header
}

func (c *Client) do(ctx context.Context, cl call) error {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}
	var body io.Reader
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("api: encode %s body: %w", cl.endpoint, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("api: build %s request: %w", cl.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.creds != nil {
		for k, vs := range c.creds.AuthorizationHeader() {
			req.Header[k] = vs
		}
	}
	for k, vs := range cl.header {
		req.Header[k] = vs
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.APIRequestDuration.WithLabelValues(cl.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		if isTimeout(err) {
			metrics.APIRequests.WithLabelValues(cl.endpoint, "timeout").Inc()
			return fmt.Errorf("%w: %s %s: %w", ErrTimeout, cl.method, cl.path, err)
		}
		metrics.APIRequests.WithLabelValues(cl.endpoint, "error").Inc()
		return fmt.Errorf("api: %s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()
	metrics.APIRequests.WithLabelValues(cl.endpoint, statusClass(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s: %w", ErrTimeout, cl.method, cl.path, err)
		}
		return fmt.Errorf("api: read %s response: %w", cl.endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// keep logs terse
		logger.Warnf("[api] %d %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return &Error{Method: cl.method, Path: cl.path, StatusCode: resp.StatusCode, Body: bytes.TrimSpace(raw)}
	}
	if cl.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return fmt.Errorf("api: decode %s response: %w", cl.endpoint, err)
	}
	return nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
