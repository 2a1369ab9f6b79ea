package classifier_test

import (
	"pqrsdf-sla/calendar"
	"pqrsdf-sla/classifier"
	"pqrsdf-sla/models"
	"pqrsdf-sla/parser"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2024-06-12 is a Wednesday; 2024-06-10 is a Monday holiday.
var now = time.Date(2024, time.June, 12, 15, 30, 0, 0, time.FixedZone("COT", -5*60*60))

func dueIn(days int) string {
	return calendar.Day(now).AddDate(0, 0, days).Format("2006-01-02")
}

func intPtr(n int) *int { return &n }

func TestClassify(t *testing.T) {
	cal := calendar.FromDates(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC))

	tests := map[string]struct {
		raw       models.RawRecord
		bucket    models.Bucket
		remaining *int
	}{
		"OverdueFiveDays": {
			raw:       models.RawRecord{"Estado": "Abierto", "Fecha Límite": dueIn(-5)},
			bucket:    models.BucketOverdue,
			remaining: intPtr(-5),
		},
		"OverdueByOneDay": {
			raw:       models.RawRecord{"Estado": "Abierto", "Fecha Límite": dueIn(-1)},
			bucket:    models.BucketOverdue,
			remaining: intPtr(-1),
		},
		"DueToday": {
			raw:       models.RawRecord{"Estado": "Abierto", "Fecha Límite": dueIn(0)},
			bucket:    models.BucketNearDue,
			remaining: intPtr(0),
		},
		"NearDueTwoDays": {
			raw:       models.RawRecord{"Estado": "Abierto", "Fecha Límite": dueIn(2)},
			bucket:    models.BucketNearDue,
			remaining: intPtr(2),
		},
		"NearDueBoundary": {
			raw:       models.RawRecord{"Estado": "En trámite", "Fecha Límite": dueIn(3)},
			bucket:    models.BucketNearDue,
			remaining: intPtr(3),
		},
		"OnTime": {
			raw:       models.RawRecord{"Estado": "Abierto", "Fecha Límite": dueIn(4)},
			bucket:    models.BucketOnTime,
			remaining: intPtr(4),
		},
		"ClosedLongOverdue": {
			raw:       models.RawRecord{"Estado": "Cerrado", "Fecha Límite": dueIn(-100)},
			bucket:    models.BucketClosed,
			remaining: intPtr(-100),
		},
		"ClosedWithoutDueDate": {
			raw:    models.RawRecord{"Estado": "CERRADO"},
			bucket: models.BucketClosed,
		},
		"NoDueDate": {
			raw:    models.RawRecord{"Estado": "Abierto"},
			bucket: models.BucketUnknown,
		},
		"UnreadableDueDate": {
			raw:    models.RawRecord{"Estado": "Abierto", "Fecha Límite": "pronto"},
			bucket: models.BucketUnknown,
		},
		"MissingStatusTreatedAsOpen": {
			raw:       models.RawRecord{"Fecha Límite": dueIn(-2)},
			bucket:    models.BucketOverdue,
			remaining: intPtr(-2),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := classifier.Classify(parser.Normalize(tt.raw), cal, now)

			assert.Equal(t, tt.bucket, got.Bucket)
			assert.Equal(t, tt.remaining, got.DaysRemaining)
		})
	}
}

func TestClassify_ClosedOverridesUrgency(t *testing.T) {
	for days := -400; days <= 400; days += 7 {
		c := parser.Normalize(models.RawRecord{"Estado": "cerrado", "Fecha Límite": dueIn(days)})
		assert.Equal(t, models.BucketClosed, classifier.Classify(c, nil, now).Bucket, "due in %d days", days)
	}
}

func TestClassify_BusinessDays(t *testing.T) {
	cal := calendar.FromDates(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC))

	open := parser.Normalize(models.RawRecord{
		"Estado":           "Abierto",
		"Fecha Radicación": "2024-06-03",
		"Fecha Límite":     "2024-06-17",
	})
	got := classifier.Classify(open, cal, now)

	assert.Equal(t, 9, got.BusinessDaysElapsed)
	assert.Equal(t, intPtr(5), got.DaysRemaining)
	assert.Equal(t, intPtr(3), got.BusinessDaysRemaining)
	assert.Equal(t, models.BucketOnTime, got.Bucket)

	noDue := parser.Normalize(models.RawRecord{"Estado": "Abierto", "Fecha Radicación": "2024-06-03"})
	got = classifier.Classify(noDue, cal, now)

	assert.Equal(t, 6, got.BusinessDaysElapsed)
	assert.Nil(t, got.DaysRemaining)
	assert.Nil(t, got.BusinessDaysRemaining)

	notFiled := parser.Normalize(models.RawRecord{"Estado": "Abierto"})
	assert.Equal(t, 0, classifier.Classify(notFiled, cal, now).BusinessDaysElapsed)
}

func TestClassify_KeepsSLAFlag(t *testing.T) {
	c := parser.Normalize(models.RawRecord{"Estado": "Abierto", "Cumple SLA": "Sí", "Fecha Límite": dueIn(-30)})
	got := classifier.Classify(c, nil, now)

	assert.Equal(t, models.BucketOverdue, got.Bucket)
	assert.Equal(t, models.SLAComplies, got.SLA)
	assert.Equal(t, c, got.Case)
}

func TestClassify_Deterministic(t *testing.T) {
	cal := calendar.FromDates(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC))
	c := parser.Normalize(models.RawRecord{
		"Estado":           "Abierto",
		"Fecha Radicación": "2024-05-20",
		"Fecha Límite":     dueIn(1),
	})

	first := classifier.Classify(c, cal, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, classifier.Classify(c, cal, now))
	}
}

func TestNew_NearDueWindow(t *testing.T) {
	tests := map[string]struct {
		nearDueDays int
		days        int
		expected    models.Bucket
	}{
		"ZeroWindowToday":      {nearDueDays: 0, days: 0, expected: models.BucketNearDue},
		"ZeroWindowTomorrow":   {nearDueDays: 0, days: 1, expected: models.BucketOnTime},
		"WideWindow":           {nearDueDays: 10, days: 10, expected: models.BucketNearDue},
		"NegativeUsesDefault":  {nearDueDays: -1, days: classifier.DefaultNearDueDays, expected: models.BucketNearDue},
		"NegativeUsesDefault2": {nearDueDays: -1, days: classifier.DefaultNearDueDays + 1, expected: models.BucketOnTime},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := parser.Normalize(models.RawRecord{"Estado": "Abierto", "Fecha Límite": dueIn(tt.days)})
			got := classifier.New(nil, tt.nearDueDays).Classify(c, now)
			assert.Equal(t, tt.expected, got.Bucket)
		})
	}
}

func TestClassifyAll(t *testing.T) {
	cases := []models.Case{
		parser.Normalize(models.RawRecord{"Num Caso": "1", "Estado": "Abierto", "Fecha Límite": dueIn(-1)}),
		parser.Normalize(models.RawRecord{"Num Caso": "2", "Estado": "Cerrado"}),
		parser.Normalize(models.RawRecord{"Num Caso": "3", "Estado": "Abierto", "Fecha Límite": dueIn(30)}),
	}

	got := classifier.New(nil, classifier.DefaultNearDueDays).ClassifyAll(cases, now)

	assert.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, models.BucketOverdue, got[0].Bucket)
	assert.Equal(t, models.BucketClosed, got[1].Bucket)
	assert.Equal(t, models.BucketOnTime, got[2].Bucket)

	assert.Empty(t, classifier.New(nil, 3).ClassifyAll(nil, now))
}
