package extract

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/docrank/internal/passage"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor reads text with its real page geometry using the Go PDF
// library, falling back to pdftotext when the library cannot read the
// file.
type PDFExtractor struct{}

func (p *PDFExtractor) ExtractRuns(r io.Reader, filename string) ([]passage.TextRun, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docrank-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	runs, err := extractPDFRuns(tmpPath)
	if err != nil {
		if text, fbErr := extractPdftotext(tmpPath); fbErr == nil {
			return textToRuns(text), nil
		}
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return runs, nil
}

func extractPDFRuns(path string) ([]passage.TextRun, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var runs []passage.TextRun
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		runs = append(runs, pageRuns(page, i)...)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no text content")
	}
	return runs, nil
}

// pageRuns groups a page's raw text fragments into line runs. The
// library panics on some malformed content streams, so extraction is
// isolated per page.
func pageRuns(page pdflib.Page, pageNum int) (runs []passage.TextRun) {
	defer func() {
		if r := recover(); r != nil {
			runs = nil
		}
	}()

	texts := page.Content().Text
	if len(texts) == 0 {
		return nil
	}
	height := pageHeight(page)

	// The library reports Y from the bottom-left corner, so the top of
	// the page has the largest Y.
	sort.SliceStable(texts, func(a, b int) bool {
		if texts[a].Y != texts[b].Y {
			return texts[a].Y > texts[b].Y
		}
		return texts[a].X < texts[b].X
	})

	const lineTolerance = 2.0

	var (
		sb       strings.Builder
		lineY    float64
		lineX    float64
		lineEnd  float64
		fontSize float64
		bold     bool
		open     bool
	)

	flush := func() {
		if !open {
			return
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			runs = append(runs, passage.TextRun{
				Text:     text,
				FontSize: fontSize,
				Bold:     bold,
				Page:     pageNum,
				Y:        height - lineY,
				X:        lineX,
			})
		}
		sb.Reset()
		open = false
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if open && math.Abs(t.Y-lineY) > lineTolerance {
			flush()
		}
		if !open {
			lineY = t.Y
			lineX = t.X
			lineEnd = t.X
			fontSize = t.FontSize
			bold = false
			open = true
		}
		// Fragments usually abut; a horizontal gap means a word break.
		if t.X-lineEnd > 1 {
			sb.WriteString(" ")
		}
		sb.WriteString(t.S)
		lineEnd = t.X + t.W
		if t.FontSize > fontSize {
			fontSize = t.FontSize
		}
		if strings.Contains(t.Font, "Bold") {
			bold = true
		}
	}
	flush()
	return runs
}

func pageHeight(page pdflib.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() == pdflib.Array && box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	return 792 // US Letter
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// textToRuns converts fallback plain text into synthetic runs, using
// form feeds as page breaks and blank lines as paragraph breaks.
func textToRuns(text string) []passage.TextRun {
	var runs []passage.TextRun
	for pi, pageText := range strings.Split(text, "\f") {
		var e emitter
		inPara := false
		for _, line := range strings.Split(pageText, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				inPara = false
				continue
			}
			if inPara {
				e.line(line)
			} else {
				e.block(line)
				inPara = true
			}
		}
		for _, run := range e.runs {
			run.Page = pi + 1
			runs = append(runs, run)
		}
	}
	return runs
}
