package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"pqrsdf-sla/errors"
	"pqrsdf-sla/models"
	"strings"
)

// ReadRecords reads CSV data with a header row and returns one RawRecord per
// data row, keyed by the header text.
// Blank rows are skipped. Short rows are tolerated: missing trailing cells
// simply produce absent keys, and empty cells are left out of the record so
// that they read as missing downstream.
// An input with no rows at all yields an empty, non-nil slice.
func ReadRecords(r io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records := make([]models.RawRecord, 0)
	var header []string
	lineNum := 0

	for {
		row, err := reader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &errors.ParseError{
				Line:   lineNum,
				Record: row,
				Err:    fmt.Errorf("error reading CSV: %w", err),
			}
		}

		if blankRow(row) {
			continue
		}

		if header == nil {
			header = make([]string, len(row))
			for i, name := range row {
				header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
			}
			continue
		}

		rec := make(models.RawRecord, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if _, dup := rec[header[i]]; dup {
				continue
			}
			rec[header[i]] = cell
		}
		records = append(records, rec)
	}

	return records, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
