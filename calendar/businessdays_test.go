package calendar_test

import (
	"pqrsdf-sla/calendar"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusinessDaysBetween(t *testing.T) {
	// 2024-01-01 is a Monday; 2024-01-08 is a Monday holiday.
	holidays := calendar.FromDates(day(2024, time.January, 8))
	weekendHoliday := calendar.FromDates(day(2024, time.January, 6))

	tests := map[string]struct {
		start    time.Time
		end      time.Time
		cal      *calendar.HolidayCalendar
		expected int
	}{
		"SameDay":               {start: day(2024, time.January, 3), end: day(2024, time.January, 3), expected: 0},
		"OneWeek":               {start: day(2024, time.January, 1), end: day(2024, time.January, 8), expected: 5},
		"EndExcluded":           {start: day(2024, time.January, 1), end: day(2024, time.January, 2), expected: 1},
		"FridayToMonday":        {start: day(2024, time.January, 5), end: day(2024, time.January, 8), expected: 1},
		"WeekendOnly":           {start: day(2024, time.January, 6), end: day(2024, time.January, 8), expected: 0},
		"TwoWeeksWithHoliday":   {start: day(2024, time.January, 1), end: day(2024, time.January, 15), cal: holidays, expected: 9},
		"StartsOnHoliday":       {start: day(2024, time.January, 8), end: day(2024, time.January, 9), cal: holidays, expected: 0},
		"HolidayAtEndExcluded":  {start: day(2024, time.January, 5), end: day(2024, time.January, 8), cal: holidays, expected: 1},
		"WeekendHolidayIgnored": {start: day(2024, time.January, 1), end: day(2024, time.January, 15), cal: weekendHoliday, expected: 10},
		"Reversed":              {start: day(2024, time.January, 15), end: day(2024, time.January, 1), cal: holidays, expected: -9},
		"AcrossYearEnd":         {start: day(2023, time.December, 29), end: day(2024, time.January, 2), expected: 2},
		"AcrossYearEndHoliday":  {start: day(2023, time.December, 29), end: day(2024, time.January, 2), cal: calendar.FromDates(day(2024, time.January, 1)), expected: 1},
		"LeapYearFebruary":      {start: day(2024, time.February, 1), end: day(2024, time.March, 1), expected: 21},
		"TimeOfDayIgnored": {
			start:    time.Date(2024, time.January, 1, 23, 0, 0, 0, time.FixedZone("COT", -5*60*60)),
			end:      time.Date(2024, time.January, 3, 1, 0, 0, 0, time.UTC),
			expected: 2,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calendar.BusinessDaysBetween(tt.start, tt.end, tt.cal))
		})
	}
}

func TestBusinessDaysBetween_Properties(t *testing.T) {
	cal := calendar.FromDates(
		day(2024, time.January, 1),
		day(2024, time.January, 8),
		day(2024, time.January, 13),
		day(2024, time.March, 25),
	)

	dates := make([]time.Time, 0, 100)
	for d := day(2023, time.December, 20); d.Before(day(2024, time.March, 30)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	for _, a := range dates {
		assert.Equal(t, 0, calendar.BusinessDaysBetween(a, a, cal), "zero case for %s", a)
		for _, b := range dates {
			forward := calendar.BusinessDaysBetween(a, b, cal)
			assert.Equal(t, forward, -calendar.BusinessDaysBetween(b, a, cal), "symmetry for %s, %s", a, b)
		}
	}
}

func TestBusinessDaysBetween_MatchesDayByDayCount(t *testing.T) {
	cal := calendar.FromDates(day(2024, time.January, 8), day(2024, time.February, 14))
	start := day(2024, time.January, 1)

	for end := start; end.Before(day(2024, time.March, 1)); end = end.AddDate(0, 0, 1) {
		expected := 0
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			if calendar.IsBusinessDay(d, cal) {
				expected++
			}
		}
		assert.Equal(t, expected, calendar.BusinessDaysBetween(start, end, cal), "end %s", end)
	}
}

func TestElapsedBusinessDays(t *testing.T) {
	now := day(2024, time.January, 10)
	filed := day(2024, time.January, 1)
	due := day(2024, time.January, 5)
	holidays := calendar.FromDates(day(2024, time.January, 8))

	tests := map[string]struct {
		start    *time.Time
		end      *time.Time
		expected int
	}{
		"NilStart":      {start: nil, end: &due, expected: 0},
		"BothNil":       {start: nil, end: nil, expected: 0},
		"NilEndUsesNow": {start: &filed, end: nil, expected: 6},
		"ExplicitEnd":   {start: &filed, end: &due, expected: 4},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calendar.ElapsedBusinessDays(tt.start, tt.end, holidays, now))
		})
	}
}

func TestIsBusinessDay(t *testing.T) {
	holidays := calendar.FromDates(day(2024, time.January, 8))

	assert.True(t, calendar.IsBusinessDay(day(2024, time.January, 9), holidays))
	assert.False(t, calendar.IsBusinessDay(day(2024, time.January, 8), holidays))
	assert.False(t, calendar.IsBusinessDay(day(2024, time.January, 6), holidays))
	assert.False(t, calendar.IsBusinessDay(day(2024, time.January, 7), nil))
}

func TestCalendarDaysBetween(t *testing.T) {
	assert.Equal(t, 5, calendar.CalendarDaysBetween(day(2024, time.February, 26), day(2024, time.March, 2)))
	assert.Equal(t, -5, calendar.CalendarDaysBetween(day(2024, time.March, 2), day(2024, time.February, 26)))
	assert.Equal(t, 0, calendar.CalendarDaysBetween(time.Date(2024, time.March, 2, 23, 0, 0, 0, time.UTC), day(2024, time.March, 2)))
}

func TestCalendarDaysBetween_Centuries(t *testing.T) {
	// A mistyped year such as 0224 spans more than a time.Duration can hold.
	typo, due := day(224, time.June, 3), day(2024, time.June, 12)

	assert.Equal(t, 657446, calendar.CalendarDaysBetween(typo, due))
	assert.Equal(t, -657446, calendar.CalendarDaysBetween(due, typo))
	assert.Equal(t, 469604, calendar.BusinessDaysBetween(typo, due, nil))
	assert.Equal(t, -469604, calendar.BusinessDaysBetween(due, typo, nil))
}
