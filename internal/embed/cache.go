package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DefaultTruncateAt bounds the input length for the single retry after
// a failed embed call.
const DefaultTruncateAt = 512

// ErrEmptyText is returned for inputs that normalize to nothing.
var ErrEmptyText = errors.New("empty text")

// CacheOptions configure key normalization and failure retries.
type CacheOptions struct {
	// CaseFold lowercases keys so texts differing only by case share
	// one entry.
	CaseFold bool
	// TruncateAt is the byte length, cut at a rune boundary, that the
	// input is reduced to for the retry after a failed embed. Zero
	// means DefaultTruncateAt.
	TruncateAt int
}

// Cache memoizes embeddings for the duration of one ranking run. Each
// normalized text reaches the backend at most once: concurrent
// requests for the same text wait on the first, and failures are
// cached so a failing text is not reattempted beyond its one
// truncated retry.
type Cache struct {
	embedder Embedder
	opts     CacheOptions

	mu      sync.Mutex
	entries map[string]*cacheEntry
	hits    int64
	misses  int64
}

type cacheEntry struct {
	ready chan struct{}
	vec   []float32
	err   error
}

// CacheStats are cumulative counters for one cache.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// NewCache wraps embedder with run-scoped memoization.
func NewCache(embedder Embedder, opts CacheOptions) *Cache {
	if opts.TruncateAt <= 0 {
		opts.TruncateAt = DefaultTruncateAt
	}
	return &Cache{
		embedder: embedder,
		opts:     opts,
		entries:  make(map[string]*cacheEntry),
	}
}

// GetOrCompute returns the vector for text, computing and caching it
// on first use. Later calls for the same normalized text return the
// cached vector or cached error without touching the backend.
func (c *Cache) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	key := c.normalize(text)
	if key == "" {
		return nil, ErrEmptyText
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		select {
		case <-e.ready:
			return e.vec, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &cacheEntry{ready: make(chan struct{})}
	c.entries[key] = e
	c.misses++
	c.mu.Unlock()

	e.vec, e.err = c.compute(ctx, key)
	close(e.ready)
	return e.vec, e.err
}

// Stats returns the cache's hit counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}

// compute embeds text, retrying once with a truncated input when the
// full text fails. The retry covers backends that reject inputs over
// their length limit.
func (c *Cache) compute(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.embedder.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	if short := truncateRunes(text, c.opts.TruncateAt); short != text && short != "" {
		if vec, retryErr := c.embedder.Embed(ctx, short); retryErr == nil {
			return vec, nil
		}
	}
	return nil, fmt.Errorf("embed %q: %w", preview(text), err)
}

func (c *Cache) normalize(text string) string {
	key := strings.Join(strings.Fields(text), " ")
	if c.opts.CaseFold {
		key = strings.ToLower(key)
	}
	return key
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for i := range s {
		if i >= max {
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}

// preview shortens text for error messages.
func preview(s string) string {
	const max = 60
	if len(s) <= max {
		return s
	}
	return truncateRunes(s, max) + "..."
}
