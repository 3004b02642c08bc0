package extract

import (
	"strings"

	"github.com/dgallion1/docrank/internal/passage"
)

// Synthetic layout for formats without native geometry. Body text is
// 11pt with a 14pt line advance; paragraph breaks advance 28pt so the
// recognizer reads them as subsection gaps. Heading sizes step down
// from 24pt by level and never drop below 14pt, which keeps every
// level above the heading ratio against 11pt body text.
const (
	synthBodySize  = 11
	synthLineStep  = 14
	synthParaStep  = 28
	synthHeadTop   = 24
	synthHeadStep  = 2
	synthHeadFloor = 14
)

func headingFontSize(level int) float64 {
	if level < 1 {
		level = 1
	}
	size := synthHeadTop - synthHeadStep*(level-1)
	if size < synthHeadFloor {
		size = synthHeadFloor
	}
	return float64(size)
}

// emitter lays synthetic text runs top to bottom on page 1.
type emitter struct {
	runs []passage.TextRun
	y    float64
}

func (e *emitter) heading(text string, level int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	e.y += synthParaStep
	e.runs = append(e.runs, passage.TextRun{
		Text:     text,
		FontSize: headingFontSize(level),
		Bold:     true,
		Page:     1,
		Y:        e.y,
	})
}

// block emits one paragraph of body text.
func (e *emitter) block(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	e.y += synthParaStep
	e.runs = append(e.runs, passage.TextRun{
		Text:     text,
		FontSize: synthBodySize,
		Page:     1,
		Y:        e.y,
	})
}

// line emits body text continuing the current paragraph.
func (e *emitter) line(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	e.y += synthLineStep
	e.runs = append(e.runs, passage.TextRun{
		Text:     text,
		FontSize: synthBodySize,
		Page:     1,
		Y:        e.y,
	})
}
