// Package rank scores recognized sections against a persona query and
// selects the most relevant ones under a per-document diversity cap,
// then ranks the subsections inside each selection.
package rank

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/passage"
)

// MinScore is assigned to candidates whose text could not be embedded.
// It sits below any attainable cosine similarity so such candidates
// sort last but stay eligible when little else is available.
const MinScore = -1.0

// Options control both ranking stages.
type Options struct {
	// TopKSections is the number of sections selected in stage one.
	TopKSections int
	// TopKSubsections is the number of subsections kept per selected
	// section in stage two.
	TopKSubsections int
	// DocumentCapFraction bounds one document's share of the selected
	// sections, in (0, 1]. The quota is ceil(fraction * TopKSections).
	DocumentCapFraction float64
	// RepresentativeChars is how much leading body text joins the
	// title to form a section's scoring text.
	RepresentativeChars int
}

// DefaultOptions returns the selection parameters used when no
// configuration overrides them.
func DefaultOptions() Options {
	return Options{
		TopKSections:        5,
		TopKSubsections:     2,
		DocumentCapFraction: 0.5,
		RepresentativeChars: 600,
	}
}

// Validate rejects parameter combinations the ranker cannot honor.
func (o Options) Validate() error {
	if o.TopKSections <= 0 {
		return fmt.Errorf("top_k_sections must be positive, got %d", o.TopKSections)
	}
	if o.TopKSubsections <= 0 {
		return fmt.Errorf("top_k_subsections must be positive, got %d", o.TopKSubsections)
	}
	if o.DocumentCapFraction <= 0 || o.DocumentCapFraction > 1 {
		return fmt.Errorf("document_cap_fraction must be in (0, 1], got %v", o.DocumentCapFraction)
	}
	if o.RepresentativeChars <= 0 {
		return fmt.Errorf("representative_chars must be positive, got %d", o.RepresentativeChars)
	}
	return nil
}

// DocumentCap returns the per-document section quota.
func (o Options) DocumentCap() int {
	return int(math.Ceil(o.DocumentCapFraction * float64(o.TopKSections)))
}

// RankedSubsection pairs a subsection with its query similarity.
type RankedSubsection struct {
	Subsection passage.Subsection
	Score      float64
}

// RankedSection is one stage-one selection with its stage-two
// subsections. ImportanceRank starts at 1.
type RankedSection struct {
	Section        passage.Section
	Score          float64
	ImportanceRank int
	Subsections    []RankedSubsection
}

// Ranking is the ordered outcome of both stages plus the warnings
// accumulated for items that could not be scored.
type Ranking struct {
	Sections []RankedSection
	Warnings []string
}

// Ranker runs the two-stage selection. All embeddings go through the
// run's cache, so a text repeated across sections costs one backend
// call.
type Ranker struct {
	cache *embed.Cache
	opts  Options
	log   *slog.Logger
}

// NewRanker creates a ranker over the given cache.
func NewRanker(cache *embed.Cache, opts Options, log *slog.Logger) *Ranker {
	if log == nil {
		log = slog.Default()
	}
	return &Ranker{cache: cache, opts: opts, log: log}
}

// Rank scores every section against queryVec and selects the top
// TopKSections under the per-document quota, skipping over-quota
// candidates without backfilling. Selected sections then get their
// subsections scored and trimmed to TopKSubsections. Equal scores keep
// input order, so the result is deterministic for identical input.
// Sections that fail to embed stay in the candidate list at MinScore
// with a warning recorded.
func (r *Ranker) Rank(ctx context.Context, queryVec []float32, sections []passage.Section) (*Ranking, error) {
	if err := r.opts.Validate(); err != nil {
		return nil, err
	}

	type candidate struct {
		section *passage.Section
		score   float64
	}

	ranking := &Ranking{}
	cands := make([]candidate, 0, len(sections))
	for i := range sections {
		sec := &sections[i]
		score := MinScore
		text := representativeText(sec, r.opts.RepresentativeChars)
		if text == "" {
			ranking.Warnings = append(ranking.Warnings,
				fmt.Sprintf("%s: section %q has no text to score", sec.Document, sec.Title))
		} else if vec, err := r.cache.GetOrCompute(ctx, text); err != nil {
			ranking.Warnings = append(ranking.Warnings,
				fmt.Sprintf("%s: section %q: %v", sec.Document, sec.Title, err))
			r.log.Warn("section embedding failed",
				"document", sec.Document,
				"section", sec.Title,
				"error", err)
		} else {
			score = embed.Cosine(queryVec, vec)
		}
		cands = append(cands, candidate{section: sec, score: score})
	}

	// Candidates enter in document order, so a stable sort on score
	// alone breaks ties by original position.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})

	quota := r.opts.DocumentCap()
	perDoc := make(map[string]int)
	for _, c := range cands {
		if len(ranking.Sections) == r.opts.TopKSections {
			break
		}
		if perDoc[c.section.Document] >= quota {
			continue
		}
		perDoc[c.section.Document]++
		ranking.Sections = append(ranking.Sections, RankedSection{
			Section:        *c.section,
			Score:          c.score,
			ImportanceRank: len(ranking.Sections) + 1,
		})
	}

	for i := range ranking.Sections {
		r.rankSubsections(ctx, queryVec, &ranking.Sections[i], ranking)
	}

	r.log.Info("ranking complete",
		"candidates", len(cands),
		"selected", len(ranking.Sections),
		"documents", len(perDoc),
		"warnings", len(ranking.Warnings))
	return ranking, nil
}

// rankSubsections scores one selected section's subsections against
// the query and keeps the top TopKSubsections.
func (r *Ranker) rankSubsections(ctx context.Context, queryVec []float32, sec *RankedSection, ranking *Ranking) {
	if len(sec.Section.Subsections) == 0 {
		return
	}
	scored := make([]RankedSubsection, 0, len(sec.Section.Subsections))
	for _, sub := range sec.Section.Subsections {
		score := MinScore
		if strings.TrimSpace(sub.Text) != "" {
			if vec, err := r.cache.GetOrCompute(ctx, sub.Text); err != nil {
				ranking.Warnings = append(ranking.Warnings,
					fmt.Sprintf("%s: subsection on page %d: %v", sub.Document, sub.Page, err))
				r.log.Warn("subsection embedding failed",
					"document", sub.Document,
					"page", sub.Page,
					"error", err)
			} else {
				score = embed.Cosine(queryVec, vec)
			}
		}
		scored = append(scored, RankedSubsection{Subsection: sub, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	n := r.opts.TopKSubsections
	if n > len(scored) {
		n = len(scored)
	}
	sec.Subsections = scored[:n]
}

// representativeText joins a section's title with the leading portion
// of its body, bounded at maxBody bytes cut on a rune boundary.
func representativeText(sec *passage.Section, maxBody int) string {
	title := strings.TrimSpace(sec.Title)
	body := strings.TrimSpace(sec.Body)
	if maxBody > 0 && len(body) > maxBody {
		for i := range body {
			if i >= maxBody {
				body = strings.TrimSpace(body[:i])
				break
			}
		}
	}
	switch {
	case title == "":
		return body
	case body == "":
		return title
	}
	return title + ". " + body
}
