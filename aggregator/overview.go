package aggregator

import (
	"pqrsdf-sla/models"
	"slices"
)

// BuildOverview computes the headline indicators over cases. Compliance is
// measured on the cases whose category is in scope; an empty scope means
// every case counts.
func BuildOverview(cases []models.ClassifiedCase, scope []models.Category) models.Overview {
	o := models.Overview{
		Total:      len(cases),
		ByCategory: make(map[models.Category]int),
		ByBucket:   make(map[models.Bucket]int),
		ByStatus:   make(map[string]int),
	}
	for _, c := range cases {
		o.ByCategory[c.Category]++
		o.ByBucket[c.Bucket]++
		o.ByStatus[c.Status]++
		if len(scope) > 0 && !slices.Contains(scope, c.Category) {
			continue
		}
		o.InScope++
		if c.SLA == models.SLAComplies {
			o.CompliantInScope++
		}
	}
	o.Categories = len(o.ByCategory)
	o.CompliancePercentage = Percentage(o.CompliantInScope, o.InScope)
	return o
}
