package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/extract"
	"github.com/dgallion1/docrank/internal/metrics"
	"github.com/dgallion1/docrank/internal/passage"
	"github.com/dgallion1/docrank/internal/query"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/structure"
)

// Document is one named input to a ranking session.
type Document struct {
	Filename string
	Data     []byte
}

// SessionOptions wires a session to its collaborators. Metrics and
// OnDocument may be nil.
type SessionOptions struct {
	Config   config.Config
	Embedder embed.Embedder
	Log      *slog.Logger
	Metrics  *metrics.Metrics

	// OnDocument is called once per document when its extraction
	// attempt finishes, successful or not.
	OnDocument func()
}

// Session is the state one ranking run shares: the recognized
// sections, the embedding cache, and the warnings collected while
// building them. A session can be ranked repeatedly against new
// tasks without re-extracting documents; cached embeddings carry
// over between ranks.
type Session struct {
	cache *embed.Cache
	cfg   config.Config
	log   *slog.Logger

	// Documents lists the filenames that produced sections, in
	// input order.
	Documents []string
	Sections  []passage.Section
	Warnings  []string
}

// NewSession extracts and recognizes the given documents, then
// prepares the embedder on the recognized text. Unsupported,
// duplicate, and unreadable documents produce warnings, not errors.
func NewSession(ctx context.Context, opts SessionOptions, docs []Document) (*Session, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	s := &Session{
		cache: embed.NewCache(opts.Embedder, embed.CacheOptions{
			CaseFold:   opts.Config.Embedding.CacheCaseFold,
			TruncateAt: opts.Config.Embedding.TruncateAt,
		}),
		cfg: opts.Config,
		log: log,
	}

	// Drop unsupported files and exact duplicates up front.
	seen := make(map[string]string)
	var kept []Document
	for _, d := range docs {
		if !extract.IsSupportedExtension(d.Filename) {
			s.warn(fmt.Sprintf("unsupported file type: %s", d.Filename))
			continue
		}
		hash := ContentHashHex(d.Data)
		if prev, dup := seen[hash]; dup {
			s.warn(fmt.Sprintf("duplicate content: %s matches %s, skipped", d.Filename, prev))
			continue
		}
		seen[hash] = d.Filename
		kept = append(kept, d)
	}
	opts.Metrics.RecordDocuments(len(kept))

	// Extract with bounded concurrency; results keep input order.
	workers := opts.Config.Pipeline.ExtractWorkers
	if workers < 1 {
		workers = 1
	}
	runs := make([][]passage.TextRun, len(kept))
	errs := make([]error, len(kept))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, d := range kept {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, d Document) {
			defer wg.Done()
			defer func() { <-sem }()
			if opts.OnDocument != nil {
				defer opts.OnDocument()
			}
			ex, err := extract.ForFile(d.Filename)
			if err != nil {
				errs[i] = err
				return
			}
			runs[i], errs[i] = ex.ExtractRuns(bytes.NewReader(d.Data), d.Filename)
		}(i, d)
	}
	wg.Wait()

	recogCfg := structure.Config{
		HeadingRatio:       opts.Config.Recognizer.HeadingRatio,
		MaxHeadingTokens:   opts.Config.Recognizer.MaxHeadingTokens,
		GapLineRatio:       opts.Config.Recognizer.GapLineRatio,
		MaxSubsectionChars: opts.Config.Recognizer.MaxSubsectionChars,
	}

	for i, d := range kept {
		if errs[i] != nil {
			s.warn(fmt.Sprintf("extract %s: %v", d.Filename, errs[i]))
			opts.Metrics.RecordExtractionFailure()
			log.Warn("extraction failed", "document", d.Filename, "error", errs[i])
			continue
		}
		if len(runs[i]) == 0 {
			s.warn(fmt.Sprintf("no extractable text: %s", d.Filename))
			opts.Metrics.RecordExtractionFailure()
			continue
		}
		s.Documents = append(s.Documents, d.Filename)
		s.Sections = append(s.Sections, structure.Recognize(d.Filename, runs[i], recogCfg)...)
	}

	// Corpus-scoped embedders build their vocabulary here; remote
	// providers treat Prepare as a no-op.
	if len(s.Sections) > 0 {
		corpus := make([]string, 0, len(s.Sections))
		for i := range s.Sections {
			corpus = append(corpus, s.Sections[i].Title+"\n"+s.Sections[i].Body)
		}
		if err := opts.Embedder.Prepare(ctx, corpus); err != nil {
			return nil, fmt.Errorf("prepare embedder: %w", err)
		}
	}

	log.Info("session ready",
		"documents", len(s.Documents),
		"sections", len(s.Sections),
		"warnings", len(s.Warnings))
	return s, nil
}

func (s *Session) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// RankOptions derives ranker parameters from the session configuration.
func (s *Session) RankOptions() rank.Options {
	return rank.Options{
		TopKSections:        s.cfg.Ranking.TopKSections,
		TopKSubsections:     s.cfg.Ranking.TopKSubsections,
		DocumentCapFraction: s.cfg.Ranking.DocumentCapFraction,
		RepresentativeChars: s.cfg.Ranking.RepresentativeChars,
	}
}

// Rank builds the persona query and runs two-stage selection over the
// session's sections. A query that cannot be embedded fails the run;
// per-item embedding failures only surface as warnings in the result.
func (s *Session) Rank(ctx context.Context, persona, task string, opts rank.Options) (*rank.Ranking, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(s.Sections) == 0 {
		return &rank.Ranking{}, nil
	}

	queryText := query.Build(persona, task)
	queryVec, err := s.cache.GetOrCompute(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return rank.NewRanker(s.cache, opts, s.log).Rank(ctx, queryVec, s.Sections)
}

// CacheStats exposes the run cache counters.
func (s *Session) CacheStats() embed.CacheStats {
	return s.cache.Stats()
}
