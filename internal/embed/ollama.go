package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/docrank/internal/retry"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "nomic-embed-text"
)

// OllamaConfig configures a client for Ollama's native embeddings API.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Stats   *Stats
}

// OllamaClient calls a local Ollama instance's /api/embeddings
// endpoint. Same retry discipline as the OpenAI client, without auth.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	stats      *Stats
	dim        int
}

// NewOllamaClient creates a client with defaults applied.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultEmbedTimeout
	}
	if cfg.Stats == nil {
		cfg.Stats = NewStats(time.Hour)
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		stats:      cfg.Stats,
	}
}

func (c *OllamaClient) Name() string { return "ollama" }

// Prepare is a no-op: the backend needs no corpus fitting.
func (c *OllamaClient) Prepare(ctx context.Context, corpus []string) error { return nil }

// Dimension is the vector length observed on the first successful
// call, 0 before that.
func (c *OllamaClient) Dimension() int { return c.dim }

// LatencyStats returns the call latency tracker.
func (c *OllamaClient) LatencyStats() *Stats { return c.stats }

// Close releases idle connections.
func (c *OllamaClient) Close() { c.httpClient.CloseIdleConnections() }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
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

func (c *OllamaClient) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var parsed ollamaResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response contained no vector")
	}
	return parsed.Embedding, nil
}
