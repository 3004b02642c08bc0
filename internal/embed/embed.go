// Package embed maps text to vectors for similarity ranking. It
// provides a corpus-fitted TF-IDF embedder for offline use, HTTP
// clients for OpenAI-compatible and Ollama backends, and a run-scoped
// cache that guarantees each distinct text is embedded at most once.
package embed

import "context"

// Embedder produces fixed-length vectors for text. Implementations
// must be deterministic within one run: the same input text yields the
// same vector.
type Embedder interface {
	// Name identifies the backend in logs and stats output.
	Name() string

	// Prepare hands corpus-fitted implementations the run's texts
	// before any Embed call. Remote backends ignore it.
	Prepare(ctx context.Context, corpus []string) error

	// Dimension is the vector length, 0 until known.
	Dimension() int

	// Embed returns the vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// StatsProvider is implemented by embedders that track backend call
// latency.
type StatsProvider interface {
	LatencyStats() *Stats
}
