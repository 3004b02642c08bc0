package structure

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitBody(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		got := splitBody("Short text.", 500)
		if !reflect.DeepEqual(got, []string{"Short text."}) {
			t.Errorf("expected single part, got %v", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := splitBody("   ", 500); got != nil {
			t.Errorf("expected nil for blank input, got %v", got)
		}
	})

	t.Run("splits at sentence boundary", func(t *testing.T) {
		text := "First sentence here. Second sentence here. Third sentence here."
		got := splitBody(text, 45)
		if len(got) != 2 {
			t.Fatalf("expected 2 parts, got %d: %v", len(got), got)
		}
		if got[0] != "First sentence here. Second sentence here." {
			t.Errorf("unexpected first part: %q", got[0])
		}
		if got[1] != "Third sentence here." {
			t.Errorf("unexpected second part: %q", got[1])
		}
	})

	t.Run("parts stay within limit", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 40; i++ {
			sb.WriteString("A compact sentence for the splitter. ")
		}
		for _, part := range splitBody(sb.String(), 120) {
			if len(part) > 120 {
				t.Errorf("part exceeds limit: %d chars", len(part))
			}
		}
	})

	t.Run("oversized sentence kept whole", func(t *testing.T) {
		long := strings.Repeat("word ", 40) + "end."
		got := splitBody(long, 50)
		if len(got) != 1 {
			t.Errorf("expected single oversized part, got %d", len(got))
		}
	})
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one! Third one?")
	want := []string{"First one.", "Second one!", "Third one?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSplitSentencesKeepsNumbers(t *testing.T) {
	got := splitSentences("Pi is 3.14159 rounded. Next sentence.")
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
	if got[0] != "Pi is 3.14159 rounded." {
		t.Errorf("unexpected first sentence: %q", got[0])
	}
}

func TestSplitSentencesNoTerminator(t *testing.T) {
	got := splitSentences("a trailing fragment without punctuation")
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
}
