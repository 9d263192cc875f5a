// Package httpapi provides the backend adapters for the document search
// HTTP API: paged search, RAG answers (plain and server-sent events),
// the document list and the health check.
package httpapi

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

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// Ensure Client implements the interfaces.
var (
	_ driven.SearchBackend   = (*Client)(nil)
	_ driven.AnswerBackend   = (*Client)(nil)
	_ driven.DocumentCatalog = (*Client)(nil)
	_ driven.HealthChecker   = (*Client)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
)

// API paths.
const (
	pathSearch    = "/api/search"
	pathRAG       = "/api/search/rag"
	pathRAGStream = "/api/search/rag/stream"
	pathDocuments = "/api/documents/"
	pathHealth    = "/api/health"
)

// HeaderRequestID carries a per-request UUID for backend log correlation.
const HeaderRequestID = "X-Request-ID"

// Config holds configuration for the backend client.
type Config struct {
	// BaseURL is the backend base URL (default: http://localhost:8000).
	BaseURL string

	// Timeout bounds request/response calls (default: 30s). Answer
	// streams are bounded only by their context.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero disables it.
	RequestsPerSecond float64

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// ConfigFromSettings builds a client config from backend settings.
func ConfigFromSettings(s domain.BackendSettings) Config {
	return Config{
		BaseURL:           s.URL,
		Timeout:           s.Timeout,
		RequestsPerSecond: s.RequestsPerSecond,
	}
}

// Client talks to the backend HTTP API.
type Client struct {
	client  *http.Client
	stream  *http.Client
	baseURL string
	limiter *RateLimiter
}

// NewClient creates a new backend client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		stream: &http.Client{
			Transport: cfg.Transport,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: NewRateLimiter(cfg.RequestsPerSecond),
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search runs one paged search. Every failure wraps domain.ErrSearch.
func (c *Client) Search(ctx context.Context, params domain.QueryParameters) (*domain.SearchResultPage, error) {
	var resp searchResponse
	if err := c.postJSON(ctx, pathSearch, newSearchRequest(params), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}
	return resp.toPage(params), nil
}

// Answer requests a complete RAG answer.
func (c *Client) Answer(ctx context.Context, params domain.QueryParameters) (*domain.RagAnswer, error) {
	var resp ragResponse
	if err := c.postJSON(ctx, pathRAG, newRAGRequest(params, false), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}
	return &domain.RagAnswer{Answer: resp.Answer, Citations: resp.Citations}, nil
}

// OpenAnswerStream posts params to the streaming endpoint and returns
// the open event stream. Failures before the first byte wrap
// domain.ErrStreamConnection.
func (c *Client) OpenAnswerStream(ctx context.Context, params domain.QueryParameters) (driven.EventChannel, error) {
	body, err := json.Marshal(newRAGRequest(params, true))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := c.newRequest(streamCtx, http.MethodPost, pathRAGStream, body)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.do(c.stream, req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", domain.ErrStreamConnection, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %w", domain.ErrStreamConnection, newAPIError(resp))
	}

	return newEventStream(resp.Body, cancel), nil
}

// ListDocuments returns every indexed document.
func (c *Client) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathDocuments, nil)
	if err != nil {
		return nil, err
	}

	var docs []documentVO
	if err := c.doJSON(req, &docs); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	summaries := make([]domain.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, d.toSummary())
	}
	return summaries, nil
}

// Ping checks the backend is reachable and healthy.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, pathHealth, nil)
	if err != nil {
		return err
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(req, &status); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())
	return req, nil
}

// do waits for the rate limiter and sends req.
func (c *Client) do(client *http.Client, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	c.limiter.UpdateFromResponse(resp)
	logger.Debug("backend: %s %s -> %d (%s, id=%s)", req.Method, req.URL.Path, resp.StatusCode,
		time.Since(start).Round(time.Millisecond), req.Header.Get(HeaderRequestID))
	return resp, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.do(c.client, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsStatus reports whether err carries a backend response with the
// given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
