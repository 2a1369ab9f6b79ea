package classifier

import (
	"pqrsdf-sla/calendar"
	"pqrsdf-sla/models"
	"time"
)

// DefaultNearDueDays is the largest number of calendar days remaining for
// which an open case is still reported as near due.
const DefaultNearDueDays = 3

// Classifier derives urgency and elapsed-time fields for cases.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	calendar    *calendar.HolidayCalendar
	nearDueDays int
}

// New returns a Classifier using cal for business-day arithmetic. A negative
// nearDueDays selects DefaultNearDueDays.
func New(cal *calendar.HolidayCalendar, nearDueDays int) *Classifier {
	if nearDueDays < 0 {
		nearDueDays = DefaultNearDueDays
	}
	return &Classifier{calendar: cal, nearDueDays: nearDueDays}
}

// Classify classifies a single case with the default near-due window.
func Classify(c models.Case, cal *calendar.HolidayCalendar, now time.Time) models.ClassifiedCase {
	return New(cal, DefaultNearDueDays).Classify(c, now)
}

// Classify derives the ClassifiedCase for c as of now.
//
// The bucket is a function of (status, due date, now) only:
//   - status "cerrado": Closed, whatever the dates say
//   - no due date: Unknown
//   - otherwise by calendar days remaining until the due date:
//     < 0 Overdue, 0..nearDueDays NearDue, more OnTime
//
// Urgency deliberately uses calendar days while BusinessDaysElapsed and
// BusinessDaysRemaining use business days; both are reported.
// The SLA flag is copied from the case and never inferred from the bucket.
func (cl *Classifier) Classify(c models.Case, now time.Time) models.ClassifiedCase {
	today := calendar.Day(now)
	out := models.ClassifiedCase{
		Case:                c,
		BusinessDaysElapsed: calendar.ElapsedBusinessDays(c.FiledAt, c.DueAt, cl.calendar, today),
	}

	if c.DueAt != nil {
		remaining := calendar.CalendarDaysBetween(today, *c.DueAt)
		businessRemaining := calendar.BusinessDaysBetween(today, *c.DueAt, cl.calendar)
		out.DaysRemaining = &remaining
		out.BusinessDaysRemaining = &businessRemaining
	}

	out.Bucket = cl.bucket(c, out.DaysRemaining)
	return out
}

// ClassifyAll classifies every case against the same now. The result has the
// same length and order as cases.
func (cl *Classifier) ClassifyAll(cases []models.Case, now time.Time) []models.ClassifiedCase {
	out := make([]models.ClassifiedCase, len(cases))
	for i, c := range cases {
		out[i] = cl.Classify(c, now)
	}
	return out
}

func (cl *Classifier) bucket(c models.Case, remaining *int) models.Bucket {
	switch {
	case c.IsClosed():
		return models.BucketClosed
	case remaining == nil:
		return models.BucketUnknown
	case *remaining < 0:
		return models.BucketOverdue
	case *remaining <= cl.nearDueDays:
		return models.BucketNearDue
	default:
		return models.BucketOnTime
	}
}
