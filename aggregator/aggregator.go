package aggregator

import (
	"fmt"
	"math"
	"pqrsdf-sla/errors"
	"pqrsdf-sla/models"
	"pqrsdf-sla/parser"
	"sort"
)

// Aggregate groups the cases that pass filter and computes compliance
// indicators per group.
//
// Filtering happens before grouping. Cases with an empty area form their own
// group rather than being dropped. When grouping by area, every area named in
// filter.Areas gets a summary even if no case matched it, so "no cases" reads
// as total 0 instead of a missing row. When grouping by period, cases without
// a year and month are left out.
//
// Groups come back in order of first appearance; use SortByPercentage or
// SortByGroup for a presentation order. The result is never nil.
func Aggregate(cases []models.ClassifiedCase, filter models.Filter, groupBy models.GroupBy) ([]models.ComplianceSummary, error) {
	keyOf, err := groupKey(groupBy)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	summaries := make([]models.ComplianceSummary, 0)

	if groupBy == models.GroupByArea {
		for _, area := range filter.Areas {
			key := parser.Fold(area)
			if _, ok := index[key]; ok {
				continue
			}
			index[key] = len(summaries)
			summaries = append(summaries, models.ComplianceSummary{Group: key, Label: area})
		}
	}

	for _, c := range Apply(cases, filter) {
		key, label, ok := keyOf(c)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(summaries)
			index[key] = i
			summaries = append(summaries, models.ComplianceSummary{Group: key, Label: label})
		}
		add(&summaries[i], c)
	}

	for i := range summaries {
		summaries[i].CompliancePercentage = Percentage(summaries[i].CompliantCount, summaries[i].Total)
	}
	return summaries, nil
}

func add(s *models.ComplianceSummary, c models.ClassifiedCase) {
	s.Total++
	if c.SLA == models.SLAComplies {
		s.CompliantCount++
	}
	switch c.Bucket {
	case models.BucketOnTime:
		s.OnTime++
	case models.BucketNearDue:
		s.NearDue++
	case models.BucketOverdue:
		s.Overdue++
	case models.BucketClosed:
		s.Closed++
	default:
		s.Unknown++
	}
}

type keyFunc func(models.ClassifiedCase) (key, label string, ok bool)

func groupKey(groupBy models.GroupBy) (keyFunc, error) {
	switch groupBy {
	case models.GroupByArea:
		return func(c models.ClassifiedCase) (string, string, bool) {
			return c.Area, c.AreaLabel, true
		}, nil
	case models.GroupByCategory:
		return func(c models.ClassifiedCase) (string, string, bool) {
			return string(c.Category), string(c.Category), true
		}, nil
	case models.GroupByPeriod:
		return func(c models.ClassifiedCase) (string, string, bool) {
			if !c.HasPeriod() {
				return "", "", false
			}
			key := fmt.Sprintf("%04d-%02d", *c.Year, *c.Month)
			return key, key, true
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidGroupBy, groupBy)
	}
}

// Percentage returns part/total*100 rounded to two decimals, or 0 when total
// is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

// SortByPercentage orders summaries by compliance percentage, highest first.
// Ties go to the larger group, then to the group key.
func SortByPercentage(summaries []models.ComplianceSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.CompliancePercentage != b.CompliancePercentage {
			return a.CompliancePercentage > b.CompliancePercentage
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Group < b.Group
	})
}

// SortByGroup orders summaries by group key, e.g. chronologically for
// period grouping.
func SortByGroup(summaries []models.ComplianceSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Group < summaries[j].Group
	})
}
