package cmd

import (
	"fmt"
	"pqrsdf-sla/classifier"
	"pqrsdf-sla/config"
	"pqrsdf-sla/dashboard"
	"pqrsdf-sla/models"
	"pqrsdf-sla/parser"
	"slices"
	"strings"
	"time"
)

// filterFlags are the selection flags shared by report and serve.
type filterFlags struct {
	groupBy       string
	years         []int
	months        []string
	categories    []string
	areas         []string
	buckets       []string
	allCategories bool
}

// buildOptions turns configuration plus flags into render options.
func buildOptions(cfg *config.Config, f filterFlags) (dashboard.Options, error) {
	opts := dashboard.DefaultOptions()
	opts.NearDueDays = cfg.SLA.NearDueDays
	if opts.NearDueDays < 0 {
		opts.NearDueDays = classifier.DefaultNearDueDays
	}

	switch g := models.GroupBy(strings.ToLower(f.groupBy)); g {
	case "":
	case models.GroupByArea, models.GroupByCategory, models.GroupByPeriod:
		opts.GroupBy = g
	default:
		return opts, fmt.Errorf("invalid --group-by %q: must be area, category or period", f.groupBy)
	}

	scope, err := parseCategories(cfg.SLA.Categories)
	if err != nil {
		return opts, fmt.Errorf("sla.categories: %w", err)
	}
	opts.Scope = scope
	if f.allCategories {
		opts.Scope = nil
	}

	opts.Filter.Years = f.years
	for _, m := range f.months {
		month, err := parser.ParseMonth(m)
		if err != nil {
			return opts, fmt.Errorf("invalid --month %q", m)
		}
		opts.Filter.Months = append(opts.Filter.Months, month)
	}
	if opts.Filter.Categories, err = parseCategories(f.categories); err != nil {
		return opts, err
	}
	opts.Filter.Areas = f.areas
	for _, b := range f.buckets {
		bucket := models.Bucket(strings.ToLower(strings.TrimSpace(b)))
		if !slices.Contains(models.Buckets, bucket) {
			return opts, fmt.Errorf("invalid --bucket %q", b)
		}
		opts.Filter.Buckets = append(opts.Filter.Buckets, bucket)
	}
	return opts, nil
}

func parseCategories(labels []string) ([]models.Category, error) {
	var out []models.Category
	for _, label := range labels {
		c := parser.ParseCategory(label)
		if c == models.CategoryOther && parser.Fold(label) != string(models.CategoryOther) {
			return nil, fmt.Errorf("unknown category %q", label)
		}
		out = append(out, c)
	}
	return out, nil
}

// parseAsOf reads an --as-of date, or returns fallback when it is empty.
func parseAsOf(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := parser.ParseDate(value)
	if err != nil || d == nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", value)
	}
	return *d, nil
}
