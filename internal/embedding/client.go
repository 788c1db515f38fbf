// Package embedding is the client of the sentence-embedding service.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/career-roadmap/internal/logger"
)

// RetryConfig controls retries of transient failures.
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig retries twice with a short backoff.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:  2,
	InitialWait: 200 * time.Millisecond,
	MaxWait:     2 * time.Second,
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Model   string `json:"model"`
}

// Client talks to the embedding service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry replaces the retry policy.
func WithRetry(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryConfig,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log)
	return c
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions,omitempty"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

type batchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimensions int         `json:"dimensions,omitempty"`
}

// Embed returns the embedding vector of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	var out embedResponse
	if err := c.post(ctx, "embed", "/embed", embedRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, &UnavailableError{Op: "embed", Kind: KindDecode, Cause: fmt.Errorf("empty embedding in response")}
	}
	return out.Embedding, nil
}

// EmbedBatch embeds texts in one call. The result is index-aligned with texts.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("text %d: %w", i, ErrEmptyInput)
		}
	}
	var out batchResponse
	if err := c.post(ctx, "embed_batch", "/embed/batch", batchRequest{Texts: texts}, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) != len(texts) {
		return nil, &UnavailableError{
			Op:    "embed_batch",
			Kind:  KindDecode,
			Cause: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Embeddings)),
		}
	}
	return out.Embeddings, nil
}

// HealthCheck queries GET /health.
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build health request: %w", err)
	}
	var h Health
	if err := c.do(req, "health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return &UnavailableError{Op: op, Kind: Classify(ctx.Err()), Cause: ctx.Err()}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to build %s request: %w", op, err)
		}
		req.Header.Set("Content-Type", "application/json")

		lastErr = c.do(req, op, out)
		if lastErr == nil || !retryable(lastErr) || attempt == c.retry.MaxRetries {
			break
		}

		wait := c.retry.InitialWait << attempt
		if c.retry.MaxWait > 0 && wait > c.retry.MaxWait {
			wait = c.retry.MaxWait
		}
		c.log.Debug("retrying embedding call", "op", op, "attempt", attempt+1, "wait", wait, "error", lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return &UnavailableError{Op: op, Kind: Classify(ctx.Err()), Cause: ctx.Err()}
		}
	}
	return lastErr
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := Classify(err)
		c.log.Warn("embedding service unreachable", "op", op, "kind", string(kind), "error", err)
		return &UnavailableError{Op: op, Kind: kind, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return &UnavailableError{Op: op, Kind: KindHTTPStatus, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UnavailableError{Op: op, Kind: KindDecode, Cause: err}
	}
	return nil
}
