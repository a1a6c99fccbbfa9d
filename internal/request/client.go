package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/tcup/internal/pending"
)

// Defaults match the dashboard's backend.
const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultTimeout = 5 * time.Second
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; the dashboard talks to a single backend host
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

var (
	// ErrUnauthorized is set on a [Response] whose status is 401.
	ErrUnauthorized = errors.New("request: unauthorized")

	// ErrTimeout is set when the client-side timeout expires.
	ErrTimeout = errors.New("request: timed out")

	// ErrCanceled is set when the request was cancelled, usually by a
	// navigation draining the pending registry.
	ErrCanceled = errors.New("request: canceled")
)

// Response holds the result of a request made by [Client].
type Response struct {
	// Body contains the response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code. Zero if no response was received.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error is nil when the request completed with a non-401 status.
	// It wraps ErrUnauthorized, ErrTimeout or ErrCanceled where they apply.
	Error error
}

// Client sends requests to one backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a [Client] for baseURL. An empty baseURL selects
// [DefaultBaseURL].
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{
			// timeouts are applied per request via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// URL joins path onto the base URL. Absolute URLs are returned unchanged.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Fetch performs a request against the backend and returns a [Response].
//
// If method is empty, GET is used. Fetch always returns a Response; errors are
// reported in its Error field.
func (c *Client) Fetch(ctx context.Context, method, path string, header http.Header, body []byte) Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   classify(ctx, fmt.Errorf("request failed: %w", err)),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Latency:    time.Since(start),
			Error:      classify(ctx, fmt.Errorf("failed to read response body: %w", err)),
		}
	}

	out := Response{
		Body:       data,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Latency:    time.Since(start),
	}
	if resp.StatusCode == http.StatusUnauthorized {
		out.Error = ErrUnauthorized
	}
	return out
}

// Do is [Client.Fetch] with cancellation tracked in reg. The request's cancel
// function stays registered until the request settles. A nil reg behaves like
// Fetch.
func (c *Client) Do(ctx context.Context, reg pending.Registrar, method, path string, header http.Header, body []byte) Response {
	if reg == nil {
		return c.Fetch(ctx, method, path, header, body)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	release := reg.Register(cancel)
	defer release()

	return c.Fetch(ctx, method, path, header, body)
}

// Close closes idle connections. The client remains usable.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// classify tags err with ErrTimeout or ErrCanceled based on why ctx ended.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return err
}
