package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/passage"
)

// CSVExtractor handles CSV files. Rows are grouped into batches of 20
// under a heading naming the row range, with each row rendered as
// header: value pairs.
type CSVExtractor struct{}

func (p *CSVExtractor) ExtractRuns(r io.Reader, filename string) ([]passage.TextRun, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	const batchSize = 20
	var e emitter
	for i := 0; i < len(dataRows); i += batchSize {
		end := i + batchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}

		e.heading(fmt.Sprintf("Rows %d-%d", i+2, end+1), 2) // 1-indexed, skip header
		for _, row := range dataRows[i:end] {
			var sb strings.Builder
			for j, cell := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				if j < len(headers) {
					sb.WriteString(headers[j] + ": " + cell)
				} else {
					sb.WriteString(cell)
				}
			}
			e.line(sb.String())
		}
	}
	return e.runs, nil
}
