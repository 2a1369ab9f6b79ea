// Package dashboard runs one render: fetch, normalize, classify, aggregate.
package dashboard

import (
	"context"
	"fmt"
	"pqrsdf-sla/aggregator"
	"pqrsdf-sla/calendar"
	"pqrsdf-sla/classifier"
	"pqrsdf-sla/metrics"
	"pqrsdf-sla/models"
	"pqrsdf-sla/parser"
	"pqrsdf-sla/source"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options controls a render.
type Options struct {
	GroupBy models.GroupBy
	// Filter is the caller's selection (years, months, areas, ...).
	Filter models.Filter
	// Scope lists the categories counted toward compliance indicators when
	// Filter.Categories is empty. An empty Scope counts every category.
	Scope       []models.Category
	NearDueDays int
}

// DefaultOptions groups by area with the standard SLA categories in scope.
func DefaultOptions() Options {
	return Options{
		GroupBy:     models.GroupByArea,
		Scope:       models.SLACategories,
		NearDueDays: classifier.DefaultNearDueDays,
	}
}

// Builder renders reports from a Source.
type Builder struct {
	src    source.Source
	logger *zap.Logger
}

// NewBuilder creates a Builder reading from src.
func NewBuilder(src source.Source, logger *zap.Logger) *Builder {
	return &Builder{src: src, logger: logger}
}

// Build fetches both sheets and renders them as of now. It does not touch the
// latest-render gauges; callers publishing a scheduled render pass the result
// to metrics.RecordReport.
func (b *Builder) Build(ctx context.Context, now time.Time, opts Options) (*models.Report, error) {
	holidays, err := b.src.Holidays(ctx)
	if err != nil {
		metrics.RendersTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	cases, err := b.src.Cases(ctx)
	if err != nil {
		metrics.RendersTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load cases: %w", err)
	}

	start := time.Now()
	report, err := Render(holidays, cases, now, opts)
	if err != nil {
		metrics.RendersTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RenderDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.RendersTotal.WithLabelValues("ok").Inc()

	b.logger.Info("dashboard rendered",
		zap.String("run_id", report.RunID.String()),
		zap.Time("as_of", report.AsOf),
		zap.Int("cases", len(cases)),
		zap.Int("in_filter", len(report.Cases)),
		zap.Int("holidays", report.HolidayCount),
		zap.Int("invalid_holidays", report.InvalidHolidays),
		zap.Int("case_issues", report.CaseIssues),
		zap.Float64("compliance_percentage", report.Overview.CompliancePercentage))
	return report, nil
}

// Render is the pure part of a render. Report.Cases holds the cases selected
// by opts.Filter; Summaries additionally restrict to opts.Scope unless the
// filter names categories itself.
func Render(holidayRecords, caseRecords []models.RawRecord, now time.Time, opts Options) (*models.Report, error) {
	cal := calendar.Build(holidayRecords)

	cases := make([]models.Case, len(caseRecords))
	issues := 0
	issuesByField := make(map[string]int)
	for i, raw := range caseRecords {
		cases[i] = parser.Normalize(raw)
		for _, issue := range cases[i].Issues {
			issuesByField[issue.Field]++
			issues++
		}
	}

	classified := classifier.New(cal, opts.NearDueDays).ClassifyAll(cases, now)

	indicatorFilter := opts.Filter
	if len(indicatorFilter.Categories) == 0 {
		indicatorFilter.Categories = opts.Scope
	}
	summaries, err := aggregator.Aggregate(classified, indicatorFilter, opts.GroupBy)
	if err != nil {
		return nil, err
	}
	if opts.GroupBy == models.GroupByPeriod {
		aggregator.SortByGroup(summaries)
	} else {
		aggregator.SortByPercentage(summaries)
	}

	selected := aggregator.Apply(classified, opts.Filter)

	return &models.Report{
		RunID:           uuid.New(),
		AsOf:            calendar.Day(now),
		GeneratedAt:     time.Now().UTC(),
		GroupBy:         opts.GroupBy,
		Filter:          opts.Filter,
		Overview:        aggregator.BuildOverview(selected, indicatorFilter.Categories),
		Summaries:       summaries,
		Cases:           selected,
		HolidayCount:    cal.Len(),
		InvalidHolidays: cal.Dropped(),
		CaseIssues:      issues,
		IssuesByField:   issuesByField,
	}, nil
}
