package extract

import (
	"strings"
	"testing"
)

func TestTextExtractor_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(runs))
	}

	want := []string{
		"First paragraph line one.",
		"First paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if runs[i].Text != w {
			t.Errorf("run[%d]: expected %q, got %q", i, w, runs[i].Text)
		}
	}

	// A continuation line advances less than a paragraph break.
	if d := runs[1].Y - runs[0].Y; d != 14 {
		t.Errorf("expected continuation step 14, got %v", d)
	}
	if d := runs[2].Y - runs[1].Y; d != 28 {
		t.Errorf("expected paragraph step 28, got %v", d)
	}
}

func TestTextExtractor_EmptyInput(t *testing.T) {
	p := &TextExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs for empty input, got %d", len(runs))
	}
}

func TestTextExtractor_SingleLine(t *testing.T) {
	p := &TextExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader("Hello world"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Text != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", runs[0].Text)
	}
	if runs[0].FontSize != 11 || runs[0].Bold {
		t.Errorf("expected plain body run, got %+v", runs[0])
	}
	if runs[0].Page != 1 {
		t.Errorf("expected page 1, got %d", runs[0].Page)
	}
}

func TestTextExtractor_MultipleBlankLines(t *testing.T) {
	// Consecutive blank lines collapse into a single paragraph break.
	input := "Para one.\n\n\n\nPara two."
	p := &TextExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if d := runs[1].Y - runs[0].Y; d != 28 {
		t.Errorf("expected paragraph step 28, got %v", d)
	}
}

func TestTextExtractor_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace are treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		ok       bool
	}{
		{"report.pdf", true},
		{"notes.TXT", true},
		{"guide.md", true},
		{"guide.markdown", true},
		{"data.csv", true},
		{"page.html", true},
		{"page.htm", true},
		{"doc.docx", true},
		{"image.png", false},
		{"archive.zip", false},
		{"noext", false},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.filename)
		if tt.ok && err != nil {
			t.Errorf("ForFile(%q): unexpected error: %v", tt.filename, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("ForFile(%q): expected error for unsupported extension", tt.filename)
		}
		if got := IsSupportedExtension(tt.filename); got != tt.ok {
			t.Errorf("IsSupportedExtension(%q): expected %v, got %v", tt.filename, tt.ok, got)
		}
	}
}
