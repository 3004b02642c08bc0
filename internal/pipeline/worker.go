package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/docrank/internal/assemble"
	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/metrics"
)

// Worker processes ranking jobs drained from the queue.
type Worker struct {
	cfg         config.Config
	newEmbedder func() embed.Embedder
	metrics     *metrics.Metrics
	log         *slog.Logger
}

func NewWorker(cfg config.Config, newEmbedder func() embed.Embedder, m *metrics.Metrics, log *slog.Logger) *Worker {
	return &Worker{
		cfg:         cfg,
		newEmbedder: newEmbedder,
		metrics:     m,
		log:         log,
	}
}

// Process runs the full ranking pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	start := time.Now()
	log := w.log.With("job_id", job.ID)
	req := job.Request()

	// Phase 1: extract and recognize structure.
	job.SetStatus(StatusExtracting, "extracting")
	session, err := NewSession(ctx, SessionOptions{
		Config:     w.cfg,
		Embedder:   w.newEmbedder(),
		Log:        log,
		Metrics:    w.metrics,
		OnDocument: job.IncrDocumentsProcessed,
	}, req.Documents)
	if err != nil {
		log.Error("session build failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		w.metrics.RecordRun("failed", time.Since(start))
		return
	}
	for _, warn := range session.Warnings {
		job.AddError(warn)
	}

	// Phase 2: embed and rank.
	job.SetStatus(StatusRanking, "ranking")
	opts := session.RankOptions()
	if req.TopKSections > 0 {
		opts.TopKSections = req.TopKSections
	}
	if req.TopKSubsections > 0 {
		opts.TopKSubsections = req.TopKSubsections
	}

	ranking, err := session.Rank(ctx, req.Persona, req.Task, opts)
	if err != nil {
		log.Error("ranking failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "ranking")
		w.metrics.RecordRun("failed", time.Since(start))
		return
	}

	filenames := make([]string, 0, len(req.Documents))
	for _, d := range req.Documents {
		filenames = append(filenames, d.Filename)
	}
	meta := assemble.NewMetadata(filenames, req.Persona, req.Task)
	job.SetResult(assemble.Assemble(meta, ranking, session.Warnings))
	job.SetSections(len(session.Sections), len(ranking.Sections))
	job.SetStatus(StatusCompleted, "done")

	stats := session.CacheStats()
	w.metrics.RecordSections(len(session.Sections), len(ranking.Sections))
	w.metrics.RecordCache(stats.Hits, stats.Misses)
	w.metrics.RecordRun("completed", time.Since(start))
	log.Info("job complete",
		"sections", len(session.Sections),
		"selected", len(ranking.Sections),
		"cache_hits", stats.Hits,
		"cache_misses", stats.Misses,
		"duration_ms", time.Since(start).Milliseconds())
}
