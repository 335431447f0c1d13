package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser renders CSV exports to plain text, one pipe-delimited line per
// row, which matches the tabular row shapes the pattern extractor reads.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, _ string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	var sb strings.Builder
	for i, row := range records {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(strings.TrimSpace(cell))
		}
	}
	return sb.String(), nil
}
