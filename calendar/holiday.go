// Package calendar holds the holiday calendar and the business-day arithmetic
// built on it. Every date is handled at day granularity: the time of day and
// location of an input are discarded after reading its calendar date.
package calendar

import (
	"pqrsdf-sla/models"
	"pqrsdf-sla/parser"
	"sort"
	"time"
)

var (
	dayKeys   = []string{"dia", "day"}
	monthKeys = []string{"mes", "month"}
	yearKeys  = []string{"ano", "anio", "year"}
	dateKeys  = []string{"fecha", "date"}
)

// HolidayCalendar is an immutable set of non-working dates.
// The zero value and a nil *HolidayCalendar are both empty calendars.
type HolidayCalendar struct {
	dates   map[time.Time]struct{}
	dropped int
}

// Build reads holiday records with day/month/year columns (any casing or
// accents, e.g. "Día", "MES", "Año"). A record whose fields cannot be coerced
// to integers, or which does not name a real calendar date, is dropped.
// Duplicates collapse. A record carrying a single "fecha" column instead is
// accepted as well.
func Build(records []models.RawRecord) *HolidayCalendar {
	cal := &HolidayCalendar{dates: make(map[time.Time]struct{}, len(records))}
	for _, raw := range records {
		d, ok := holidayDate(parser.NewRecord(raw))
		if !ok {
			cal.dropped++
			continue
		}
		cal.dates[d] = struct{}{}
	}
	return cal
}

// FromDates builds a calendar from already-typed dates.
func FromDates(dates ...time.Time) *HolidayCalendar {
	cal := &HolidayCalendar{dates: make(map[time.Time]struct{}, len(dates))}
	for _, d := range dates {
		cal.dates[Day(d)] = struct{}{}
	}
	return cal
}

func holidayDate(rec parser.Record) (time.Time, bool) {
	dv, dok := rec.Lookup(dayKeys...)
	mv, mok := rec.Lookup(monthKeys...)
	yv, yok := rec.Lookup(yearKeys...)
	if !dok && !mok && !yok {
		if v, ok := rec.Lookup(dateKeys...); ok {
			d, err := parser.ParseDate(v)
			if err != nil || d == nil {
				return time.Time{}, false
			}
			return *d, true
		}
		return time.Time{}, false
	}

	day, err := parser.ToInt(dv)
	if err != nil {
		return time.Time{}, false
	}
	month, err := parser.ParseMonth(mv)
	if err != nil {
		return time.Time{}, false
	}
	year, err := parser.ToInt(yv)
	if err != nil || year <= 0 {
		return time.Time{}, false
	}
	return validDate(year, month, day)
}

// validDate rejects triples that time.Date would silently roll over, such as
// February 31st.
func validDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// Contains reports whether the calendar date of t is a holiday.
func (c *HolidayCalendar) Contains(t time.Time) bool {
	if c == nil {
		return false
	}
	_, ok := c.dates[Day(t)]
	return ok
}

// Len returns the number of distinct holidays.
func (c *HolidayCalendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.dates)
}

// Dropped returns how many source records were rejected by Build.
func (c *HolidayCalendar) Dropped() int {
	if c == nil {
		return 0
	}
	return c.dropped
}

// Dates returns the holidays in ascending order.
func (c *HolidayCalendar) Dates() []time.Time {
	if c == nil {
		return nil
	}
	out := make([]time.Time, 0, len(c.dates))
	for d := range c.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
