package notify_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/mail"
	"pqrsdf-sla/models"
	"pqrsdf-sla/notify"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func intPtr(n int) *int { return &n }

func due(d int) *time.Time {
	t := time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func openCase(id, area string, bucket models.Bucket, remaining *int) models.ClassifiedCase {
	c := models.ClassifiedCase{
		Case: models.Case{
			ID:            id,
			Area:          area,
			AreaLabel:     area,
			CategoryLabel: "Petición",
			Status:        "abierto",
		},
		DaysRemaining: remaining,
		Bucket:        bucket,
	}
	if remaining != nil {
		c.DueAt = due(12 + *remaining)
	}
	return c
}

func sampleReport() *models.Report {
	return &models.Report{
		AsOf: time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC),
		Cases: []models.ClassifiedCase{
			openCase("1", "registro", models.BucketNearDue, intPtr(2)),
			openCase("2", "admisiones", models.BucketOnTime, intPtr(20)),
			openCase("3", "admisiones", models.BucketNearDue, intPtr(1)),
			openCase("4", "admisiones", models.BucketOverdue, intPtr(-4)),
			openCase("5", "", models.BucketUnknown, nil),
			openCase("6", "", models.BucketOverdue, intPtr(-1)),
		},
	}
}

func TestBuildDigests(t *testing.T) {
	tests := map[string]struct {
		buckets []models.Bucket
		areas   []string
		caseIDs [][]string
	}{
		"OverdueAndNearDue": {
			buckets: []models.Bucket{models.BucketOverdue, models.BucketNearDue},
			areas:   []string{"", "admisiones", "registro"},
			caseIDs: [][]string{{"6"}, {"4", "3"}, {"1"}},
		},
		"UnknownOnly": {
			buckets: []models.Bucket{models.BucketUnknown},
			areas:   []string{""},
			caseIDs: [][]string{{"5"}},
		},
		"NoBuckets": {
			buckets: nil,
			areas:   []string{},
			caseIDs: [][]string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			digests := notify.BuildDigests(sampleReport(), tt.buckets)

			areas := make([]string, len(digests))
			ids := make([][]string, len(digests))
			for i, d := range digests {
				areas[i] = d.Area
				for _, c := range d.Cases {
					ids[i] = append(ids[i], c.ID)
				}
			}
			assert.Equal(t, tt.areas, areas)
			assert.Equal(t, tt.caseIDs, ids)
		})
	}
}

func TestDigestText(t *testing.T) {
	digests := notify.BuildDigests(sampleReport(), []models.Bucket{models.BucketOverdue})

	assert.Equal(t, "[PQRSDF] (sin área): 1 casos requieren atención", digests[0].Subject())
	assert.Equal(t, "[PQRSDF] admisiones: 1 casos requieren atención", digests[1].Subject())
	assert.Contains(t, digests[1].Body(), "Corte: 2024-06-12")
	assert.Contains(t, digests[1].Body(), "- 4 [overdue] Petición, vence 2024-06-08 (-4 días)")
}

type recordingSender struct {
	subjects []string
	failOn   string
}

func (r *recordingSender) Send(ctx context.Context, subject, body string) error {
	if r.failOn != "" && subject == r.failOn {
		return errors.New("mailbox full")
	}
	r.subjects = append(r.subjects, subject)
	return nil
}

func TestNotifier(t *testing.T) {
	sender := &recordingSender{}
	n := notify.NewNotifier(sender, nil, zap.NewNop())

	sent, err := n.Notify(context.Background(), sampleReport())

	assert.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Len(t, sender.subjects, 3)
}

func TestNotifier_ContinuesAfterFailure(t *testing.T) {
	sender := &recordingSender{failOn: "[PQRSDF] admisiones: 2 casos requieren atención"}
	n := notify.NewNotifier(sender, []models.Bucket{models.BucketOverdue, models.BucketNearDue}, zap.NewNop())

	sent, err := n.Notify(context.Background(), sampleReport())

	assert.ErrorContains(t, err, "mailbox full")
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{
		"[PQRSDF] (sin área): 1 casos requieren atención",
		"[PQRSDF] registro: 1 casos requieren atención",
	}, sender.subjects)
}

func TestSMTPSender_NotConfigured(t *testing.T) {
	err := (&notify.SMTPSender{}).Send(context.Background(), "s", "b")
	assert.ErrorContains(t, err, "not configured")
}

func TestSMTPSender_Message(t *testing.T) {
	at := time.Date(2024, time.June, 12, 7, 30, 0, 0, time.FixedZone("COT", -5*60*60))
	subject := "[PQRSDF] Admisiones: 2 casos requieren atención"

	tests := map[string]struct {
		sender *notify.SMTPSender
		to     string
	}{
		"Recipients": {
			sender: &notify.SMTPSender{From: "pqrsdf@example.edu", Recipients: []string{"a@example.edu", "b@example.edu"}},
			to:     "a@example.edu, b@example.edu",
		},
		"FallsBackToSender": {
			sender: &notify.SMTPSender{From: "pqrsdf@example.edu"},
			to:     "pqrsdf@example.edu",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			msg, err := mail.ReadMessage(bytes.NewReader(tt.sender.Message(subject, "Área: Admisiones\n", at)))
			if !assert.NoError(t, err) {
				return
			}

			assert.Equal(t, "pqrsdf@example.edu", msg.Header.Get("From"))
			assert.Equal(t, tt.to, msg.Header.Get("To"))
			date, err := msg.Header.Date()
			assert.NoError(t, err)
			assert.True(t, at.Equal(date))

			decoded, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
			assert.NoError(t, err)
			assert.Equal(t, subject, decoded)
			assert.Equal(t, "text/plain; charset=UTF-8", msg.Header.Get("Content-Type"))

			body, err := io.ReadAll(msg.Body)
			assert.NoError(t, err)
			assert.Equal(t, "Área: Admisiones\n", string(body))
		})
	}
}

func TestParseBuckets(t *testing.T) {
	got, err := notify.ParseBuckets([]string{"Overdue", " near_due "})
	assert.NoError(t, err)
	assert.Equal(t, []models.Bucket{models.BucketOverdue, models.BucketNearDue}, got)

	_, err = notify.ParseBuckets([]string{"late"})
	assert.Error(t, err)
}
