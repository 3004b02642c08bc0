// Package structure recognizes the section structure of a document
// from its extracted text runs. Headings are detected from font size
// and weight, body runs accumulate into paragraph-sized subsections,
// and every document comes out as an ordered list of sections.
package structure

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/passage"
)

// Config holds the thresholds used to classify runs and split bodies.
type Config struct {
	// HeadingRatio is the multiple of the dominant body font size a
	// run must exceed to be classified as a heading.
	HeadingRatio float64
	// MaxHeadingTokens bounds heading length: a bold run with this
	// many tokens or more is body text.
	MaxHeadingTokens int
	// GapLineRatio is the multiple of the previous run's font size the
	// vertical gap must exceed to start a new subsection.
	GapLineRatio float64
	// MaxSubsectionChars bounds accumulated subsection text before it
	// is split at sentence boundaries.
	MaxSubsectionChars int
}

// DefaultConfig returns the recognizer thresholds used when no
// configuration overrides them.
func DefaultConfig() Config {
	return Config{
		HeadingRatio:       1.15,
		MaxHeadingTokens:   12,
		GapLineRatio:       1.5,
		MaxSubsectionChars: 500,
	}
}

// Recognize walks runs in reading order and groups them into sections.
// A run classified as a heading opens a new section titled by that
// run; other runs accumulate into the current section's subsections.
// Runs that precede the first heading, or an entire document with no
// headings, go into a single synthetic section so that every run
// belongs to exactly one section. Sections come back in document
// order.
func Recognize(document string, runs []passage.TextRun, cfg Config) []passage.Section {
	ordered := make([]passage.TextRun, len(runs))
	copy(ordered, runs)
	passage.SortRuns(ordered)

	baseline := dominantFontSize(ordered)

	var sections []passage.Section
	var cur *sectionBuilder
	var prev *passage.TextRun

	for i := range ordered {
		run := &ordered[i]
		text := strings.TrimSpace(run.Text)
		if text == "" {
			continue
		}

		if IsHeading(*run, baseline, cfg) {
			if cur != nil {
				sections = append(sections, cur.finish(cfg))
			}
			cur = newSectionBuilder(document, text, run.Page)
			prev = run
			continue
		}

		if cur == nil {
			cur = newSectionBuilder(document, syntheticTitle(document), run.Page)
		}
		if cur.pending() && gapExceeded(prev, run, cfg) {
			cur.flush(cfg)
		}
		cur.add(text, run.Page, cfg)
		prev = run
	}

	if cur != nil {
		sections = append(sections, cur.finish(cfg))
	}
	return sections
}

// IsHeading classifies a single run against the dominant body font
// size. A run is a heading when its font size exceeds baseline by
// HeadingRatio, or when it is bold, shorter than MaxHeadingTokens
// tokens, and not terminated by sentence punctuation.
func IsHeading(run passage.TextRun, baseline float64, cfg Config) bool {
	text := strings.TrimSpace(run.Text)
	if text == "" {
		return false
	}
	if baseline > 0 && run.FontSize > baseline*cfg.HeadingRatio {
		return true
	}
	if run.Bold && len(strings.Fields(text)) < cfg.MaxHeadingTokens && !endsSentence(text) {
		return true
	}
	return false
}

func endsSentence(s string) bool {
	r := []rune(s)
	switch r[len(r)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// gapExceeded reports whether the vertical distance from prev to run
// marks a paragraph break. Page changes always break.
func gapExceeded(prev, run *passage.TextRun, cfg Config) bool {
	if prev == nil {
		return false
	}
	if run.Page != prev.Page {
		return true
	}
	line := prev.FontSize
	if line <= 0 {
		return false
	}
	return run.Y-prev.Y > cfg.GapLineRatio*line
}

// dominantFontSize returns the most frequent font size among runs,
// taking the smallest size on a tie. Zero when no run has a size.
func dominantFontSize(runs []passage.TextRun) float64 {
	counts := make(map[float64]int)
	for _, r := range runs {
		if r.FontSize > 0 && strings.TrimSpace(r.Text) != "" {
			counts[r.FontSize]++
		}
	}
	var best float64
	bestCount := 0
	for size, n := range counts {
		if n > bestCount || (n == bestCount && size < best) {
			best = size
			bestCount = n
		}
	}
	return best
}

// syntheticTitle derives a title for content with no heading: the
// document name without its extension, or "Untitled" when that leaves
// nothing.
func syntheticTitle(document string) string {
	base := filepath.Base(document)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.TrimSpace(title)
	if title == "" || title == "." {
		return "Untitled"
	}
	return title
}

// sectionBuilder accumulates body runs for one section and closes
// subsections at paragraph gaps and length bounds.
type sectionBuilder struct {
	section passage.Section
	sub     strings.Builder
	subPage int
}

func newSectionBuilder(document, title string, page int) *sectionBuilder {
	return &sectionBuilder{
		section: passage.Section{Document: document, Title: title, Page: page},
	}
}

func (b *sectionBuilder) pending() bool {
	return b.sub.Len() > 0
}

// add appends run text to the open subsection, closing it when it
// reaches the configured length bound.
func (b *sectionBuilder) add(text string, page int, cfg Config) {
	if b.sub.Len() == 0 {
		b.subPage = page
	} else {
		b.sub.WriteString(" ")
	}
	b.sub.WriteString(text)
	if b.sub.Len() >= cfg.MaxSubsectionChars {
		b.flush(cfg)
	}
}

// flush closes the open subsection, splitting it at sentence
// boundaries if it overran the length bound.
func (b *sectionBuilder) flush(cfg Config) {
	if b.sub.Len() == 0 {
		return
	}
	for _, part := range splitBody(b.sub.String(), cfg.MaxSubsectionChars) {
		b.section.Subsections = append(b.section.Subsections, passage.Subsection{
			Document: b.section.Document,
			Page:     b.subPage,
			Text:     part,
		})
	}
	b.sub.Reset()
}

// finish closes the section, deriving Body from its subsections.
func (b *sectionBuilder) finish(cfg Config) passage.Section {
	b.flush(cfg)
	if len(b.section.Subsections) > 0 {
		texts := make([]string, len(b.section.Subsections))
		for i, s := range b.section.Subsections {
			texts[i] = s.Text
		}
		b.section.Body = strings.Join(texts, "\n\n")
	}
	return b.section
}
