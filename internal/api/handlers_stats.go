package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dgallion1/docrank/internal/embed"
)

// handleStats reports embedding provider info and queue state. The
// latency snapshot is present only for providers that call a backend.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"provider":    s.cfg.Embedding.Provider,
		"queue_depth": s.orchestrator.QueueDepth(),
		"uptime_s":    int64(time.Since(s.started).Seconds()),
	}
	if s.embedder != nil {
		out["embedder"] = s.embedder.Name()
		if sp, ok := s.embedder.(embed.StatsProvider); ok {
			if st := sp.LatencyStats(); st != nil {
				out["embed_latency"] = st.Snapshot()
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
