package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docrank/internal/retry"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-small"
	defaultEmbedTimeout  = 30 * time.Second
)

// OpenAIConfig configures an OpenAI-compatible embeddings client.
type OpenAIConfig struct {
	// BaseURL is the API root, without the /embeddings suffix.
	BaseURL string
	// APIKey may be empty for keyless local gateways.
	APIKey string
	Model  string
	// Timeout bounds each HTTP call.
	Timeout time.Duration
	// Stats receives call latencies. A private tracker is created when
	// nil.
	Stats *Stats
}

// OpenAIClient calls the embeddings endpoint of an OpenAI-compatible
// backend. Rate limits and server errors are retried with backoff,
// honoring Retry-After when the backend sends one.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	stats      *Stats
	dim        int
}

// NewOpenAIClient creates a client with defaults applied.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultEmbedTimeout
	}
	if cfg.Stats == nil {
		cfg.Stats = NewStats(time.Hour)
	}
	return &OpenAIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		stats:      cfg.Stats,
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

// Prepare is a no-op: the backend needs no corpus fitting.
func (c *OpenAIClient) Prepare(ctx context.Context, corpus []string) error { return nil }

// Dimension is the vector length observed on the first successful
// call, 0 before that.
func (c *OpenAIClient) Dimension() int { return c.dim }

// LatencyStats returns the call latency tracker.
func (c *OpenAIClient) LatencyStats() *Stats { return c.stats }

// Close releases idle connections.
func (c *OpenAIClient) Close() { c.httpClient.CloseIdleConnections() }

type openaiRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openaiResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retry.Wait(lastErr, attempt-1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		vec, err := c.embedOnce(ctx, text)
		if err == nil {
			if c.dim == 0 {
				c.dim = len(vec)
			}
			return vec, nil
		}
		if !retry.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("embeddings request failed after %d attempts: %w", retry.MaxAttempts, lastErr)
}

func (c *OpenAIClient) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(openaiRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.stats.Record(time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &retry.TransientError{
			StatusCode: resp.StatusCode,
			Message:    string(data),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings request returned status %d: %s",
			resp.StatusCode, preview(string(data)))
	}

	var parsed openaiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response contained no vector")
	}
	return parsed.Data[0].Embedding, nil
}

// parseRetryAfter reads a Retry-After header given in whole seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
