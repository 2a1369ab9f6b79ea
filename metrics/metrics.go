// Package metrics provides Prometheus observability metrics for the PQRSDF
// SLA dashboard. Gauges describe the latest render; counters accumulate over
// the life of the process.
package metrics

import (
	"pqrsdf-sla/models"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// COMPLIANCE METRICS - latest render
// =============================================================================

// CasesByBucket tracks open/closed cases per urgency bucket.
var CasesByBucket = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "pqrsdf",
	Name:      "cases",
	Help:      "Cases in the latest render by urgency bucket",
}, []string{"bucket"})

// CasesInScope tracks cases counted toward SLA compliance.
var CasesInScope = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "pqrsdf",
	Name:      "cases_in_scope",
	Help:      "Cases whose category counts toward SLA compliance",
})

// CompliancePercentage tracks the overall SLA compliance percentage.
var CompliancePercentage = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "pqrsdf",
	Name:      "compliance_percentage",
	Help:      "SLA compliance percentage across in-scope cases",
})

// AreaCompliancePercentage tracks compliance per group of the latest render.
var AreaCompliancePercentage = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "pqrsdf",
	Name:      "group_compliance_percentage",
	Help:      "SLA compliance percentage per aggregation group",
}, []string{"group"})

// HolidaysLoaded tracks the size of the current holiday calendar.
var HolidaysLoaded = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "calendar",
	Name:      "holidays_loaded",
	Help:      "Distinct holidays in the current calendar",
})

// =============================================================================
// DATA QUALITY METRICS
// =============================================================================

// HolidaysDroppedTotal counts holiday records rejected as malformed.
var HolidaysDroppedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "calendar",
	Name:      "holidays_dropped_total",
	Help:      "Holiday records dropped because they did not form a valid date",
})

// CaseIssuesTotal counts normalization issues by field.
var CaseIssuesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "case_issues_total",
	Help:      "Case fields that could not be interpreted, by field",
}, []string{"field"})

// =============================================================================
// OPERATIONAL METRICS
// =============================================================================

// SourceFetchDurationSeconds tracks time to fetch source data.
var SourceFetchDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "source",
	Name:      "fetch_duration_seconds",
	Help:      "Time taken to fetch a source sheet",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
}, []string{"sheet"})

// RenderDurationSeconds tracks time to compute a full render.
var RenderDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "dashboard",
	Name:      "render_duration_seconds",
	Help:      "Time taken to normalize, classify and aggregate one render",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// RendersTotal counts renders by outcome.
var RendersTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dashboard",
	Name:      "renders_total",
	Help:      "Dashboard renders by result",
}, []string{"result"})

// NotificationsSentTotal counts digest emails by result.
var NotificationsSentTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "notify",
	Name:      "digests_total",
	Help:      "Notification digests by result",
}, []string{"result"})

// =============================================================================
// Helper Functions
// =============================================================================

var recordMu sync.Mutex

// RecordReport publishes report as the latest scheduled render: it replaces
// the latest-render gauges and adds its data-quality counts to the counters.
// On-demand renders must not be recorded.
func RecordReport(report *models.Report) {
	recordMu.Lock()
	defer recordMu.Unlock()

	HolidaysDroppedTotal.Add(float64(report.InvalidHolidays))
	for field, n := range report.IssuesByField {
		CaseIssuesTotal.WithLabelValues(field).Add(float64(n))
	}

	CasesByBucket.Reset()
	for _, b := range models.Buckets {
		CasesByBucket.WithLabelValues(string(b)).Set(float64(report.Overview.ByBucket[b]))
	}
	CasesInScope.Set(float64(report.Overview.InScope))
	CompliancePercentage.Set(report.Overview.CompliancePercentage)

	AreaCompliancePercentage.Reset()
	for _, s := range report.Summaries {
		AreaCompliancePercentage.WithLabelValues(s.Group).Set(s.CompliancePercentage)
	}
	HolidaysLoaded.Set(float64(report.HolidayCount))
}
