package extract

import (
	"strings"
	"testing"
)

func TestMarkdownExtractor_HeadingLadder(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 8 {
		t.Fatalf("expected 8 runs, got %d", len(runs))
	}

	want := []struct {
		text string
		size float64
		bold bool
	}{
		{"Title", 24, true},
		{"Intro text.", 11, false},
		{"Section A", 22, true},
		{"Section A content.", 11, false},
		{"Subsection A1", 20, true},
		{"Subsection A1 content.", 11, false},
		{"Section B", 22, true},
		{"Section B content.", 11, false},
	}
	for i, w := range want {
		if runs[i].Text != w.text {
			t.Errorf("run[%d]: expected text %q, got %q", i, w.text, runs[i].Text)
		}
		if runs[i].FontSize != w.size {
			t.Errorf("run[%d]: expected font size %v, got %v", i, w.size, runs[i].FontSize)
		}
		if runs[i].Bold != w.bold {
			t.Errorf("run[%d]: expected bold=%v, got %v", i, w.bold, runs[i].Bold)
		}
	}

	// Runs are laid out top to bottom.
	for i := 1; i < len(runs); i++ {
		if runs[i].Y <= runs[i-1].Y {
			t.Errorf("run[%d]: expected Y above %v, got %v", i, runs[i-1].Y, runs[i].Y)
		}
	}
}

func TestMarkdownExtractor_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs for headingless markdown, got %d", len(runs))
	}
	for i, run := range runs {
		if run.Bold {
			t.Errorf("run[%d]: expected body run, got bold", i)
		}
		if run.FontSize != 11 {
			t.Errorf("run[%d]: expected body font size 11, got %v", i, run.FontSize)
		}
	}
	if runs[0].Text != "Just some plain text." {
		t.Errorf("expected first paragraph, got %q", runs[0].Text)
	}
	if runs[1].Text != "Another paragraph here." {
		t.Errorf("expected second paragraph, got %q", runs[1].Text)
	}
}

func TestMarkdownExtractor_MixedContentWithCodeBlocks(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n## Endpoints\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 6 {
		t.Fatalf("expected 6 runs, got %d", len(runs))
	}

	var all []string
	for _, run := range runs {
		all = append(all, run.Text)
	}
	joined := strings.Join(all, "\n")
	if !strings.Contains(joined, "GET /api/users") {
		t.Errorf("expected code block content in runs, got %q", joined)
	}
	if !strings.Contains(joined, "More text after code.") {
		t.Errorf("expected post-code text in runs, got %q", joined)
	}
}

func TestMarkdownExtractor_Lists(t *testing.T) {
	input := "## Items\n\n- first item\n- second item\n"

	p := &MarkdownExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(input), "list.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Text != "Items" || !runs[0].Bold {
		t.Errorf("expected bold heading run, got %+v", runs[0])
	}
	if !strings.Contains(runs[1].Text, "first item") || !strings.Contains(runs[1].Text, "second item") {
		t.Errorf("expected list items in body run, got %q", runs[1].Text)
	}
}

func TestMarkdownExtractor_EmptyInput(t *testing.T) {
	p := &MarkdownExtractor{}
	runs, err := p.ExtractRuns(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs for empty input, got %d", len(runs))
	}
}
