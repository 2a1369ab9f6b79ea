package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"pqrsdf-sla/errors"
	"pqrsdf-sla/models"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Supported output formats.
const (
	FormatNameText = "text"
	FormatNameJSON = "json"
	FormatNameCSV  = "csv"
	FormatNameXLSX = "xlsx"
)

// ReportData holds prepared report data used by all formatters
type ReportData struct {
	Report    *models.Report
	Attention []models.ClassifiedCase
}

// prepareReportData extracts the open cases that need attention, most urgent
// first.
func prepareReportData(report *models.Report) *ReportData {
	attention := make([]models.ClassifiedCase, 0)
	for _, c := range report.Cases {
		if c.Bucket == models.BucketOverdue || c.Bucket == models.BucketNearDue {
			attention = append(attention, c)
		}
	}
	sort.SliceStable(attention, func(i, j int) bool {
		return *attention[i].DaysRemaining < *attention[j].DaysRemaining
	})
	return &ReportData{Report: report, Attention: attention}
}

// Format renders report in the named format.
func Format(report *models.Report, format string) ([]byte, error) {
	switch format {
	case FormatNameText:
		return []byte(FormatText(report)), nil
	case FormatNameJSON:
		return []byte(FormatJSON(report)), nil
	case FormatNameCSV:
		return []byte(FormatCSV(report)), nil
	case FormatNameXLSX:
		return FormatXLSX(report)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidFormat, format)
	}
}

// FormatText returns the text representation of the report
func FormatText(report *models.Report) string {
	data := prepareReportData(report)
	o := report.Overview
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("PQRSDF SLA compliance as of %s\n", report.AsOf.Format(dateLayout)))
	sb.WriteString(fmt.Sprintf("Total cases: %d | Categories: %d | In scope: %d | Compliant: %d | Compliance: %.2f%%\n",
		o.Total, o.Categories, o.InScope, o.CompliantInScope, o.CompliancePercentage))
	sb.WriteString(fmt.Sprintf("Overdue: %d | Near due: %d | On time: %d | Unknown: %d | Closed: %d\n",
		o.ByBucket[models.BucketOverdue], o.ByBucket[models.BucketNearDue], o.ByBucket[models.BucketOnTime],
		o.ByBucket[models.BucketUnknown], o.ByBucket[models.BucketClosed]))
	if report.InvalidHolidays > 0 || report.CaseIssues > 0 {
		sb.WriteString(fmt.Sprintf("Data quality: %d holiday records dropped, %d case fields unreadable\n",
			report.InvalidHolidays, report.CaseIssues))
	}

	sb.WriteString(fmt.Sprintf("\nBy %s\n", report.GroupBy))
	if len(report.Summaries) == 0 {
		sb.WriteString("No records match the current filters.\n")
	}
	for _, s := range report.Summaries {
		sb.WriteString(formatTextLine(s))
		sb.WriteString("\n")
	}

	if len(data.Attention) > 0 {
		sb.WriteString("\nNeeds attention\n")
		for _, c := range data.Attention {
			sb.WriteString(fmt.Sprintf("  • %s [%s] %s: %s, due %s (%d days)\n",
				displayID(c), c.Bucket, displayArea(c), c.CategoryLabel,
				c.DueAt.Format(dateLayout), *c.DaysRemaining))
		}
	}

	return sb.String()
}

// FormatJSON returns the JSON representation of the report
func FormatJSON(report *models.Report) string {
	jsonBytes, _ := json.MarshalIndent(report, "", "  ")
	return string(jsonBytes)
}

// FormatCSV returns the per-group indicators as CSV
func FormatCSV(report *models.Report) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	writer.Write(summaryHeader)
	for _, s := range report.Summaries {
		writer.Write(summaryRow(s))
	}

	writer.Flush()
	return sb.String()
}

// FormatCasesCSV returns the classified cases as CSV
func FormatCasesCSV(report *models.Report) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	writer.Write(caseHeader)
	for _, c := range report.Cases {
		writer.Write(caseRow(c))
	}

	writer.Flush()
	return sb.String()
}

var summaryHeader = []string{
	"Group", "Label", "Total", "Compliant", "Compliance %",
	"On Time", "Near Due", "Overdue", "Closed", "Unknown",
}

func summaryRow(s models.ComplianceSummary) []string {
	return []string{
		s.Group,
		s.Label,
		strconv.Itoa(s.Total),
		strconv.Itoa(s.CompliantCount),
		strconv.FormatFloat(s.CompliancePercentage, 'f', 2, 64),
		strconv.Itoa(s.OnTime),
		strconv.Itoa(s.NearDue),
		strconv.Itoa(s.Overdue),
		strconv.Itoa(s.Closed),
		strconv.Itoa(s.Unknown),
	}
}

var caseHeader = []string{
	"Case", "Area", "Category", "Status", "SLA", "Filed", "Due",
	"Year", "Month", "Business Days Elapsed", "Days Remaining", "Business Days Remaining", "Bucket",
}

func caseRow(c models.ClassifiedCase) []string {
	return []string{
		c.ID,
		c.AreaLabel,
		c.CategoryLabel,
		c.Status,
		c.SLA.String(),
		formatDate(c.FiledAt),
		formatDate(c.DueAt),
		formatInt(c.Year),
		formatInt(c.Month),
		strconv.Itoa(c.BusinessDaysElapsed),
		formatInt(c.DaysRemaining),
		formatInt(c.BusinessDaysRemaining),
		string(c.Bucket),
	}
}

// formatTextLine formats a single group line for text output
func formatTextLine(s models.ComplianceSummary) string {
	label := s.Label
	if label == "" {
		label = "(sin área)"
	}
	return fmt.Sprintf("%s : total=%d ; compliant=%d ; compliance=%.2f%% ; [overdue=%d, near_due=%d, on_time=%d, unknown=%d, closed=%d]",
		label, s.Total, s.CompliantCount, s.CompliancePercentage,
		s.Overdue, s.NearDue, s.OnTime, s.Unknown, s.Closed)
}

func displayID(c models.ClassifiedCase) string {
	if c.ID == "" {
		return "(sin número)"
	}
	return c.ID
}

func displayArea(c models.ClassifiedCase) string {
	if c.AreaLabel == "" {
		return "(sin área)"
	}
	return c.AreaLabel
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
