package calendar

import "time"

const secondsPerDay = 24 * 60 * 60

// IsBusinessDay reports whether t falls on a weekday that is not a holiday.
func IsBusinessDay(t time.Time, cal *HolidayCalendar) bool {
	return isWeekday(Day(t)) && !cal.Contains(t)
}

// BusinessDaysBetween counts business days in the half-open range
// [start, end): start is counted, end is not. It is 0 when both fall on the
// same date and negative when end is before start, with
// BusinessDaysBetween(a, b) == -BusinessDaysBetween(b, a).
func BusinessDaysBetween(start, end time.Time, cal *HolidayCalendar) int {
	s, e := Day(start), Day(end)
	if s.Equal(e) {
		return 0
	}
	sign := 1
	if e.Before(s) {
		s, e = e, s
		sign = -1
	}

	days := daysBetween(s, e)
	weeks := days / 7
	count := weeks * 5
	for d := s.AddDate(0, 0, weeks*7); d.Before(e); d = d.AddDate(0, 0, 1) {
		if isWeekday(d) {
			count++
		}
	}
	count -= cal.weekdayHolidaysIn(s, e)

	return sign * count
}

// ElapsedBusinessDays is BusinessDaysBetween with null handling: a nil start
// yields 0, and a nil end means "up to now".
func ElapsedBusinessDays(start, end *time.Time, cal *HolidayCalendar, now time.Time) int {
	if start == nil {
		return 0
	}
	to := now
	if end != nil {
		to = *end
	}
	return BusinessDaysBetween(*start, to, cal)
}

// CalendarDaysBetween is the plain day difference end - start.
func CalendarDaysBetween(start, end time.Time) int {
	return daysBetween(Day(start), Day(end))
}

// weekdayHolidaysIn counts holidays in [from, to) that fall on weekdays;
// weekend holidays were never counted as business days.
func (c *HolidayCalendar) weekdayHolidaysIn(from, to time.Time) int {
	if c == nil {
		return 0
	}
	n := 0
	for d := range c.dates {
		if !d.Before(from) && d.Before(to) && isWeekday(d) {
			n++
		}
	}
	return n
}

// daysBetween expects both arguments at midnight UTC, where every day is
// exactly 86400 seconds long.
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
