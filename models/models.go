package models

import (
	"pqrsdf-sla/errors"
	"time"

	"github.com/google/uuid"
)

// RawRecord is one row as delivered by a case or holiday source, keyed by the
// source's own column names.
type RawRecord map[string]any

// SLAFlag is the tri-state compliance indicator carried by each case.
type SLAFlag int

const (
	SLAUnknown SLAFlag = iota
	SLAComplies
	SLADoesNotComply
)

func (f SLAFlag) String() string {
	switch f {
	case SLAComplies:
		return "complies"
	case SLADoesNotComply:
		return "does_not_comply"
	default:
		return "unknown"
	}
}

// MarshalText renders the flag by name in JSON output.
func (f SLAFlag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Bucket is the urgency state of a case relative to its deadline.
type Bucket string

const (
	BucketClosed  Bucket = "closed"
	BucketOverdue Bucket = "overdue"
	BucketNearDue Bucket = "near_due"
	BucketOnTime  Bucket = "on_time"
	BucketUnknown Bucket = "unknown"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketOverdue, BucketNearDue, BucketOnTime, BucketUnknown, BucketClosed}

// Category is the folded PQRSDF category of a case.
type Category string

const (
	CategoryPeticion        Category = "peticion"
	CategoryQueja           Category = "queja"
	CategoryReclamo         Category = "reclamo"
	CategorySugerencia      Category = "sugerencia"
	CategoryFelicitacion    Category = "felicitacion"
	CategoryDerechoPeticion Category = "derecho de peticion"
	CategoryDenuncia        Category = "denuncia"
	CategoryOther           Category = "other"
)

// KnownCategories are the categories the normalizer recognizes.
var KnownCategories = []Category{
	CategoryPeticion,
	CategoryQueja,
	CategoryReclamo,
	CategorySugerencia,
	CategoryFelicitacion,
	CategoryDerechoPeticion,
	CategoryDenuncia,
}

// SLACategories are the categories that count toward compliance indicators
// unless a caller asks for every category.
var SLACategories = []Category{
	CategoryPeticion,
	CategoryQueja,
	CategoryReclamo,
	CategoryDerechoPeticion,
}

const (
	// StatusClosed is the only status value treated as terminal.
	StatusClosed = "cerrado"
	// StatusUnknown replaces an empty or missing status. It is treated as open.
	StatusUnknown = "unknown"
)

// Case is a normalized complaint-tracking record.
// Comparison fields (Area, Status, Category) are trimmed and lower-cased;
// the *Label fields keep the source text for display.
type Case struct {
	ID            string     `json:"case_id"`
	Area          string     `json:"area"`
	AreaLabel     string     `json:"area_label"`
	Category      Category   `json:"category"`
	CategoryLabel string     `json:"category_label"`
	Status        string     `json:"status"`
	SLA           SLAFlag    `json:"sla"`
	FiledAt       *time.Time `json:"filed_at,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	Year          *int       `json:"year,omitempty"`
	Month         *int       `json:"month,omitempty"`
	Description   string     `json:"description,omitempty"`

	// Issues lists the data-quality problems found while normalizing.
	Issues []*errors.FieldError `json:"-"`
}

// IsClosed reports whether the case is in its terminal state.
func (c Case) IsClosed() bool {
	return c.Status == StatusClosed
}

// HasPeriod reports whether the case can take part in period-based grouping
// and filtering.
func (c Case) HasPeriod() bool {
	return c.Year != nil && c.Month != nil
}

// ClassifiedCase is a case plus the fields derived by the classifier.
//
// Bucket depends on the "now" the case was classified against, so two
// classifications of the same case on different days may differ.
type ClassifiedCase struct {
	Case
	BusinessDaysElapsed   int    `json:"business_days_elapsed"`
	DaysRemaining         *int   `json:"days_remaining,omitempty"`
	BusinessDaysRemaining *int   `json:"business_days_remaining,omitempty"`
	Bucket                Bucket `json:"bucket"`
}

// GroupBy selects the aggregation key.
type GroupBy string

const (
	GroupByArea     GroupBy = "area"
	GroupByCategory GroupBy = "category"
	GroupByPeriod   GroupBy = "period"
)

// Filter scopes a set of classified cases before aggregation. Empty slices
// mean "no restriction" for that dimension.
type Filter struct {
	Years      []int      `json:"years,omitempty"`
	Months     []int      `json:"months,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	Areas      []string   `json:"areas,omitempty"`
	Buckets    []Bucket   `json:"buckets,omitempty"`
}

// ComplianceSummary holds the compliance indicators of one group.
// CompliancePercentage is 0 when Total is 0.
type ComplianceSummary struct {
	Group                string  `json:"group"`
	Label                string  `json:"label"`
	Total                int     `json:"total"`
	CompliantCount       int     `json:"compliant_count"`
	CompliancePercentage float64 `json:"compliance_percentage"`
	OnTime               int     `json:"on_time"`
	NearDue              int     `json:"near_due"`
	Overdue              int     `json:"overdue"`
	Closed               int     `json:"closed"`
	Unknown              int     `json:"unknown"`
}

// Overview holds the headline indicators of a dashboard render.
type Overview struct {
	Total                int              `json:"total"`
	Categories           int              `json:"categories"`
	ByCategory           map[Category]int `json:"by_category"`
	ByBucket             map[Bucket]int   `json:"by_bucket"`
	ByStatus             map[string]int   `json:"by_status"`
	InScope              int              `json:"in_scope"`
	CompliantInScope     int              `json:"compliant_in_scope"`
	CompliancePercentage float64          `json:"compliance_percentage"`
}

// Report is the output of one render: everything a reporting, export or
// notification consumer needs.
type Report struct {
	RunID           uuid.UUID           `json:"run_id"`
	AsOf            time.Time           `json:"as_of"`
	GeneratedAt     time.Time           `json:"generated_at"`
	GroupBy         GroupBy             `json:"group_by"`
	Filter          Filter              `json:"filter"`
	Overview        Overview            `json:"overview"`
	Summaries       []ComplianceSummary `json:"summaries"`
	Cases           []ClassifiedCase    `json:"cases"`
	HolidayCount    int                 `json:"holiday_count"`
	InvalidHolidays int                 `json:"invalid_holidays"`
	CaseIssues      int                 `json:"case_issues"`
	IssuesByField   map[string]int      `json:"issues_by_field,omitempty"`
}
