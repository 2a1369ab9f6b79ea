package calendar_test

import (
	"pqrsdf-sla/calendar"
	"pqrsdf-sla/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuild(t *testing.T) {
	tests := map[string]struct {
		records  []models.RawRecord
		expected []time.Time
		dropped  int
	}{
		"NumericAndNamedMonths": {
			records: []models.RawRecord{
				{"Día": 1, "Mes": 1, "Año": 2024},
				{"dia": "8", "mes": "enero", "ano": "2024"},
			},
			expected: []time.Time{day(2024, time.January, 1), day(2024, time.January, 8)},
		},
		"SpreadsheetFloats": {
			records: []models.RawRecord{
				{"DIA": 25.0, "MES": 3.0, "AÑO": 2024.0},
			},
			expected: []time.Time{day(2024, time.March, 25)},
		},
		"DuplicatesCollapse": {
			records: []models.RawRecord{
				{"dia": 1, "mes": 5, "ano": 2024},
				{"Día": "1", "Mes": "mayo", "Año": "2024"},
			},
			expected: []time.Time{day(2024, time.May, 1)},
		},
		"SingleDateColumn": {
			records: []models.RawRecord{
				{"Fecha": "20/07/2024"},
			},
			expected: []time.Time{day(2024, time.July, 20)},
		},
		"InvalidCalendarDate": {
			records: []models.RawRecord{
				{"dia": 31, "mes": 2, "año": 2024},
			},
			expected: []time.Time{},
			dropped:  1,
		},
		"MalformedRecordsDropped": {
			records: []models.RawRecord{
				{"dia": "x", "mes": 1, "ano": 2024},
				{"mes": 1, "ano": 2024},
				{"dia": 1, "mes": 13, "ano": 2024},
				{"dia": 0, "mes": 1, "ano": 2024},
				{"dia": 1.5, "mes": 1, "ano": 2024},
				{"fecha": "pronto"},
				{},
				{"dia": 6, "mes": 1, "ano": 2024},
			},
			expected: []time.Time{day(2024, time.January, 6)},
			dropped:  7,
		},
		"Empty": {
			records:  nil,
			expected: []time.Time{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cal := calendar.Build(tt.records)

			assert.Equal(t, tt.expected, cal.Dates())
			assert.Equal(t, len(tt.expected), cal.Len())
			assert.Equal(t, tt.dropped, cal.Dropped())
			for _, d := range tt.expected {
				assert.True(t, cal.Contains(d))
			}
		})
	}
}

func TestBuild_AllMalformedBehavesAsEmpty(t *testing.T) {
	cal := calendar.Build([]models.RawRecord{
		{"dia": 30, "mes": 2, "ano": 2024},
		{"dia": "", "mes": 1, "ano": 2024},
		{"dia": 1, "mes": "nope", "ano": 2024},
	})

	assert.Equal(t, 0, cal.Len())
	assert.Equal(t, 3, cal.Dropped())

	start, end := day(2024, time.January, 1), day(2024, time.March, 1)
	assert.Equal(t, calendar.BusinessDaysBetween(start, end, nil), calendar.BusinessDaysBetween(start, end, cal))
}

func TestContains(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)
	cal := calendar.FromDates(day(2024, time.January, 8))

	assert.True(t, cal.Contains(time.Date(2024, time.January, 8, 23, 30, 0, 0, bogota)))
	assert.False(t, cal.Contains(day(2024, time.January, 9)))

	var none *calendar.HolidayCalendar
	assert.False(t, none.Contains(day(2024, time.January, 8)))
	assert.Equal(t, 0, none.Len())
	assert.Empty(t, none.Dates())
}
