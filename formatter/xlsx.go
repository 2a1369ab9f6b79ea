package formatter

import (
	"bytes"
	"fmt"
	"pqrsdf-sla/models"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Indicadores"
	casesSheet   = "Casos"
)

// FormatXLSX returns an Excel workbook with one sheet of per-group
// indicators and one sheet of classified cases.
func FormatXLSX(report *models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(casesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeRow(f, summarySheet, 1, toAny(summaryHeader)); err != nil {
		return nil, err
	}
	for i, s := range report.Summaries {
		row := []any{
			s.Group, s.Label, s.Total, s.CompliantCount, s.CompliancePercentage,
			s.OnTime, s.NearDue, s.Overdue, s.Closed, s.Unknown,
		}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, casesSheet, 1, toAny(caseHeader)); err != nil {
		return nil, err
	}
	for i, c := range report.Cases {
		if err := writeRow(f, casesSheet, i+2, toAny(caseRow(c))); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
