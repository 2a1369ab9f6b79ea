// Package notify builds per-area digests of cases that need attention and
// delivers them by email.
package notify

import (
	"context"
	"fmt"
	"math"
	"mime"
	"net/smtp"
	"pqrsdf-sla/config"
	"pqrsdf-sla/metrics"
	"pqrsdf-sla/models"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Digest lists the cases of one area that fell into a watched bucket.
type Digest struct {
	Area      string
	AreaLabel string
	AsOf      time.Time
	Cases     []models.ClassifiedCase
}

// Subject returns the email subject line.
func (d Digest) Subject() string {
	return fmt.Sprintf("[PQRSDF] %s: %d casos requieren atención", d.label(), len(d.Cases))
}

// Body returns the plain-text email body.
func (d Digest) Body() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Área: %s\nCorte: %s\n\n", d.label(), d.AsOf.Format("2006-01-02")))
	for _, c := range d.Cases {
		id := c.ID
		if id == "" {
			id = "(sin número)"
		}
		due := ""
		if c.DueAt != nil {
			due = c.DueAt.Format("2006-01-02")
		}
		days := ""
		if c.DaysRemaining != nil {
			days = fmt.Sprintf(" (%d días)", *c.DaysRemaining)
		}
		sb.WriteString(fmt.Sprintf("- %s [%s] %s, vence %s%s\n", id, c.Bucket, c.CategoryLabel, due, days))
	}
	return sb.String()
}

func (d Digest) label() string {
	if d.AreaLabel == "" {
		return "(sin área)"
	}
	return d.AreaLabel
}

// BuildDigests groups the cases whose bucket is in buckets by area. Digests
// come back in area order and cases within a digest most urgent first.
func BuildDigests(report *models.Report, buckets []models.Bucket) []Digest {
	index := make(map[string]int)
	digests := make([]Digest, 0)
	for _, c := range report.Cases {
		if !slices.Contains(buckets, c.Bucket) {
			continue
		}
		i, ok := index[c.Area]
		if !ok {
			i = len(digests)
			index[c.Area] = i
			digests = append(digests, Digest{Area: c.Area, AreaLabel: c.AreaLabel, AsOf: report.AsOf})
		}
		digests[i].Cases = append(digests[i].Cases, c)
	}

	sort.SliceStable(digests, func(i, j int) bool { return digests[i].Area < digests[j].Area })
	for _, d := range digests {
		sort.SliceStable(d.Cases, func(i, j int) bool {
			return remaining(d.Cases[i]) < remaining(d.Cases[j])
		})
	}
	return digests
}

func remaining(c models.ClassifiedCase) int {
	if c.DaysRemaining == nil {
		return math.MaxInt
	}
	return *c.DaysRemaining
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// SMTPSender sends plain-text mail through an SMTP relay.
type SMTPSender struct {
	Host       string
	Port       int
	From       string
	Password   string
	Recipients []string
}

// NewSMTPSender creates an SMTPSender from cfg.
func NewSMTPSender(cfg config.NotifyConfig) *SMTPSender {
	return &SMTPSender{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		From:       cfg.From,
		Password:   cfg.Password,
		Recipients: cfg.Recipients,
	}
}

func (s *SMTPSender) Send(ctx context.Context, subject, body string) error {
	if s.Host == "" {
		return fmt.Errorf("email SMTP not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.Password != "" {
		auth = smtp.PlainAuth("", s.From, s.Password, s.Host)
	}

	msg := s.Message(subject, body, time.Now())
	if err := smtp.SendMail(addr, auth, s.From, s.recipients(), msg); err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

// Message renders the RFC 5322 message sent for subject and body. The
// subject is Q-encoded when it carries non-ASCII text.
func (s *SMTPSender) Message(subject, body string, at time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.recipients(), ", "))
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// recipients falls back to the sender address.
func (s *SMTPSender) recipients() []string {
	if len(s.Recipients) == 0 {
		return []string{s.From}
	}
	return s.Recipients
}

// Notifier sends one digest per area for the watched buckets.
type Notifier struct {
	sender  Sender
	buckets []models.Bucket
	logger  *zap.Logger
}

// NewNotifier creates a Notifier. An empty buckets list watches overdue and
// near-due cases.
func NewNotifier(sender Sender, buckets []models.Bucket, logger *zap.Logger) *Notifier {
	if len(buckets) == 0 {
		buckets = []models.Bucket{models.BucketOverdue, models.BucketNearDue}
	}
	return &Notifier{sender: sender, buckets: buckets, logger: logger}
}

// Notify sends the digests of report and returns how many were delivered.
// A failed digest does not stop the others; the first error is returned.
func (n *Notifier) Notify(ctx context.Context, report *models.Report) (int, error) {
	var firstErr error
	sent := 0
	for _, d := range BuildDigests(report, n.buckets) {
		if err := n.sender.Send(ctx, d.Subject(), d.Body()); err != nil {
			metrics.NotificationsSentTotal.WithLabelValues("error").Inc()
			n.logger.Error("digest failed", zap.String("area", d.Area), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.NotificationsSentTotal.WithLabelValues("ok").Inc()
		n.logger.Info("digest sent", zap.String("area", d.Area), zap.Int("cases", len(d.Cases)))
		sent++
	}
	return sent, firstErr
}

// ParseBuckets converts bucket names from configuration.
func ParseBuckets(names []string) ([]models.Bucket, error) {
	out := make([]models.Bucket, 0, len(names))
	for _, name := range names {
		b := models.Bucket(strings.TrimSpace(strings.ToLower(name)))
		if !slices.Contains(models.Buckets, b) {
			return nil, fmt.Errorf("unknown bucket %q", name)
		}
		out = append(out, b)
	}
	return out, nil
}
