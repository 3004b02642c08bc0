package extract

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/passage"
)

// TextExtractor handles plain text files. Each non-blank line becomes
// one run; blank lines start a new paragraph.
type TextExtractor struct{}

func (p *TextExtractor) ExtractRuns(r io.Reader, filename string) ([]passage.TextRun, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var e emitter
	inPara := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
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
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return e.runs, nil
}
