package embed

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func preparedTFIDF(t *testing.T, corpus []string) *TFIDF {
	t.Helper()
	tf := NewTFIDF()
	if err := tf.Prepare(context.Background(), corpus); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	return tf
}

func TestTFIDFPrepareAndEmbed(t *testing.T) {
	tf := preparedTFIDF(t, []string{
		"coastal hiking trails",
		"city museums galleries",
		"coastal seafood restaurants",
	})

	if tf.Dimension() == 0 {
		t.Fatal("expected nonzero dimension after prepare")
	}

	vec, err := tf.Embed(context.Background(), "coastal trails")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vec) != tf.Dimension() {
		t.Errorf("expected %d-dim vector, got %d", tf.Dimension(), len(vec))
	}

	var nonzero int
	for _, v := range vec {
		if v != 0 {
			nonzero++
		}
	}
	if nonzero != 2 {
		t.Errorf("expected 2 nonzero components, got %d", nonzero)
	}
}

func TestTFIDFVectorsAreNormalized(t *testing.T) {
	tf := preparedTFIDF(t, []string{"alpha beta", "beta gamma", "gamma delta"})

	vec, err := tf.Embed(context.Background(), "alpha gamma")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-6 {
		t.Errorf("expected unit norm, got %v", math.Sqrt(norm))
	}
}

func TestTFIDFDeterministic(t *testing.T) {
	corpus := []string{
		"plan a coastal trip with friends",
		"nightlife bars and live music",
		"packing tips for beach travel",
	}
	a := preparedTFIDF(t, corpus)
	b := preparedTFIDF(t, corpus)

	va, err := a.Embed(context.Background(), "coastal travel tips")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	vb, err := b.Embed(context.Background(), "coastal travel tips")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if !reflect.DeepEqual(va, vb) {
		t.Error("expected identical vectors from identically prepared embedders")
	}
}

func TestTFIDFRanksLexicalOverlapHigher(t *testing.T) {
	related := "trip itinerary along the coast"
	unrelated := "recipe collection baking bread"
	tf := preparedTFIDF(t, []string{related, unrelated, "plan a trip to the coast"})

	ctx := context.Background()
	qv, err := tf.Embed(ctx, "plan a trip to the coast")
	if err != nil {
		t.Fatalf("embed query: %v", err)
	}
	rv, err := tf.Embed(ctx, related)
	if err != nil {
		t.Fatalf("embed related: %v", err)
	}
	uv, err := tf.Embed(ctx, unrelated)
	if err != nil {
		t.Fatalf("embed unrelated: %v", err)
	}

	if Cosine(qv, rv) <= Cosine(qv, uv) {
		t.Errorf("expected related text to score higher: related %v, unrelated %v",
			Cosine(qv, rv), Cosine(qv, uv))
	}
}

func TestTFIDFUnknownTokens(t *testing.T) {
	tf := preparedTFIDF(t, []string{"alpha beta", "gamma delta"})

	vec, err := tf.Embed(context.Background(), "zebra quasar")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector for unknown tokens, component %d is %v", i, v)
		}
	}
}

func TestTFIDFDropsStopwords(t *testing.T) {
	tf := preparedTFIDF(t, []string{"the cat sat", "a dog ran"})
	if _, ok := tf.vocabulary["the"]; ok {
		t.Error("expected stopword excluded from vocabulary")
	}
	if _, ok := tf.vocabulary["cat"]; !ok {
		t.Error("expected content word in vocabulary")
	}
}

func TestTFIDFEmptyCorpus(t *testing.T) {
	tf := NewTFIDF()
	if err := tf.Prepare(context.Background(), nil); err == nil {
		t.Error("expected error for nil corpus")
	}
	if err := tf.Prepare(context.Background(), []string{}); err == nil {
		t.Error("expected error for empty corpus")
	}
	if err := tf.Prepare(context.Background(), []string{"the a an"}); err == nil {
		t.Error("expected error for corpus with only stopwords")
	}
}

func TestTFIDFEmbedBeforePrepare(t *testing.T) {
	tf := NewTFIDF()
	if _, err := tf.Embed(context.Background(), "anything"); err == nil {
		t.Error("expected error when embedding before prepare")
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Don't visit the Old Town at noon!")
	want := []string{"don't", "visit", "old", "town", "noon"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
