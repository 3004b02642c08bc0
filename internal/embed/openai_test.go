package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestOpenAIEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected path /embeddings, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %q", req.Model)
		}
		if req.Input != "hello world" {
			t.Errorf("expected input to round-trip, got %q", req.Input)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.5,0.25,0.125]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})
	defer c.Close()

	if c.Dimension() != 0 {
		t.Fatalf("expected dimension 0 before first call, got %d", c.Dimension())
	}

	vec, err := c.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	want := []float32{0.5, 0.25, 0.125}
	if len(vec) != len(want) {
		t.Fatalf("expected %d components, got %d", len(want), len(vec))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("component %d: expected %v, got %v", i, want[i], vec[i])
		}
	}

	if c.Dimension() != 3 {
		t.Errorf("expected dimension 3 after first call, got %d", c.Dimension())
	}
	if got := c.LatencyStats().Snapshot().Count; got != 1 {
		t.Errorf("expected 1 latency sample, got %d", got)
	}
}

func TestOpenAIEmbedRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "backend unavailable", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":[{"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	defer c.Close()

	vec, err := c.Embed(context.Background(), "retry me")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("expected 2 components, got %d", len(vec))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestOpenAIEmbedFailsFastOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	defer c.Close()

	_, err := c.Embed(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected an error for status 400")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("expected status in error, got %q", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestOpenAIEmbedEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	defer c.Close()

	_, err := c.Embed(context.Background(), "empty")
	if err == nil {
		t.Fatal("expected an error for a response without vectors")
	}
	if !strings.Contains(err.Error(), "no vector") {
		t.Errorf("expected missing vector error, got %q", err)
	}
}
