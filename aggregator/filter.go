package aggregator

import (
	"pqrsdf-sla/models"
	"pqrsdf-sla/parser"
	"slices"
)

// Apply returns the cases matching every non-empty dimension of f.
// A year or month restriction excludes cases that have no period.
func Apply(cases []models.ClassifiedCase, f models.Filter) []models.ClassifiedCase {
	areas := make([]string, len(f.Areas))
	for i, a := range f.Areas {
		areas[i] = parser.Fold(a)
	}

	out := make([]models.ClassifiedCase, 0, len(cases))
	for _, c := range cases {
		if len(f.Years) > 0 && (c.Year == nil || !slices.Contains(f.Years, *c.Year)) {
			continue
		}
		if len(f.Months) > 0 && (c.Month == nil || !slices.Contains(f.Months, *c.Month)) {
			continue
		}
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, c.Category) {
			continue
		}
		if len(areas) > 0 && !slices.Contains(areas, c.Area) {
			continue
		}
		if len(f.Buckets) > 0 && !slices.Contains(f.Buckets, c.Bucket) {
			continue
		}
		out = append(out, c)
	}
	return out
}
