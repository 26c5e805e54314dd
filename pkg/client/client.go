package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultBaseURL is the default base URL of the Splunk management (REST) port.
const DefaultBaseURL = "https://localhost:8089"

// Client is a Splunk REST API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authenticator
	limiter    *semaphore.Weighted
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAuthenticator sets the strategy used to authenticate every request.
func WithAuthenticator(auth Authenticator) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithLimiter makes every request hold one unit of limiter while it is in
// flight. Clients sharing a limiter share its capacity.
func WithLimiter(limiter *semaphore.Weighted) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// New creates a new Splunk API client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is a raw Splunk response whose status was one of the expected ones.
type Response struct {
	StatusCode int
	Body       []byte
}

// do authenticates and performs a request. GET requests carry params in the
// query string, POST requests as a form body. A status outside expected is
// returned as a *TransportError together with the response.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, expected ...int) (*Response, error) {
	start := time.Now()

	req, err := c.newRequest(ctx, method, path, params)
	if err != nil {
		return nil, err
	}

	// A session login runs under the same unit as the request it serves.
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, 1); err != nil {
			return nil, &TransportError{Method: method, Path: path, Err: err}
		}
		defer c.limiter.Release(1)
	}

	if c.auth != nil {
		if err := c.auth.Authenticate(ctx, req); err != nil {
			slog.Debug("Splunk authentication failed",
				slog.String("method", method),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("HTTP request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := c.auth.(Invalidator); ok {
			inv.Invalidate()
		}
	}

	out := &Response{StatusCode: resp.StatusCode, Body: body}

	if len(expected) > 0 && !slices.Contains(expected, resp.StatusCode) {
		slog.Debug("HTTP request returned unexpected status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return out, &TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	slog.Debug("HTTP request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	var body io.Reader
	if method == http.MethodGet {
		u.RawQuery = params.Encode()
	} else if params != nil {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
