package embed

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches word tokens including internal apostrophes
// ("don't", "o'clock") across any letter script.
var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"their": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

// TFIDF is a corpus-fitted lexical embedder. Prepare builds the
// vocabulary and inverse document frequencies from the run's texts;
// Embed then produces L2-normalized TF-IDF vectors, so cosine over
// them measures lexical overlap. It needs no network and is fully
// deterministic.
type TFIDF struct {
	vocabulary map[string]int
	idf        []float64
	dim        int
	prepared   bool
}

// NewTFIDF returns an unprepared TF-IDF embedder. Prepare must run
// before Embed.
func NewTFIDF() *TFIDF {
	return &TFIDF{}
}

func (t *TFIDF) Name() string { return "tfidf" }

// Dimension is the vocabulary size, 0 before Prepare.
func (t *TFIDF) Dimension() int { return t.dim }

// Prepare fits the vocabulary and IDF table on corpus. Terms are
// sorted so vector layout is stable across runs over the same corpus.
func (t *TFIDF) Prepare(ctx context.Context, corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("tfidf: empty corpus")
	}

	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(doc) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("tfidf: corpus has no usable tokens")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	t.vocabulary = make(map[string]int, len(terms))
	t.idf = make([]float64, len(terms))
	docs := float64(len(corpus))
	for i, term := range terms {
		t.vocabulary[term] = i
		// Smoothed IDF keeps terms present in every document from
		// zeroing out.
		t.idf[i] = math.Log((1+docs)/float64(1+df[term])) + 1.0
	}
	t.dim = len(terms)
	t.prepared = true
	return nil
}

// Embed converts text to a normalized TF-IDF vector. Tokens outside
// the fitted vocabulary contribute nothing.
func (t *TFIDF) Embed(ctx context.Context, text string) ([]float32, error) {
	if !t.prepared {
		return nil, errors.New("tfidf: embed called before prepare")
	}

	tokens := tokenize(text)
	vec := make([]float32, t.dim)
	if len(tokens) == 0 {
		return vec, nil
	}

	counts := make(map[string]int)
	for _, tok := range tokens {
		counts[tok]++
	}
	total := float64(len(tokens))

	var norm float64
	for tok, n := range counts {
		idx, ok := t.vocabulary[tok]
		if !ok {
			continue
		}
		w := (float64(n) / total) * t.idf[idx]
		vec[idx] = float32(w)
		norm += w * w
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// tokenize lowercases text, extracts word tokens, and drops
// stopwords.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
