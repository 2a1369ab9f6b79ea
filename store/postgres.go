// Package store keeps a history of rendered reports in PostgreSQL so that
// compliance indicators can be compared across refreshes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"pqrsdf-sla/models"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Run is a stored report header.
type Run struct {
	ID                   uuid.UUID      `json:"id"`
	AsOf                 time.Time      `json:"as_of"`
	GeneratedAt          time.Time      `json:"generated_at"`
	GroupBy              models.GroupBy `json:"group_by"`
	TotalCases           int            `json:"total_cases"`
	InScope              int            `json:"in_scope"`
	CompliancePercentage float64        `json:"compliance_percentage"`
}

// Store persists reports.
type Store interface {
	SaveReport(ctx context.Context, report *models.Report) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Summaries(ctx context.Context, runID uuid.UUID) ([]models.ComplianceSummary, error)
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
	logger *zap.Logger
}

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SanitizeSchema validates a schema name before it is interpolated into SQL.
func SanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("db schema is required")
	}
	if !schemaPattern.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// NewPostgresStore connects to url and makes sure the schema exists.
func NewPostgresStore(ctx context.Context, url, schema string, logger *zap.Logger) (*PostgresStore, error) {
	schema, err := SanitizeSchema(schema)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, schema: schema, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.schema) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(schema string) []string {
	return []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.runs (
			id UUID PRIMARY KEY,
			as_of DATE NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			group_by TEXT NOT NULL,
			filter JSONB NOT NULL,
			total_cases INTEGER NOT NULL,
			in_scope INTEGER NOT NULL,
			compliant_in_scope INTEGER NOT NULL,
			compliance_percentage NUMERIC(5,2) NOT NULL,
			invalid_holidays INTEGER NOT NULL,
			case_issues INTEGER NOT NULL
		)`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.summaries (
			run_id UUID NOT NULL REFERENCES %s.runs(id) ON DELETE CASCADE,
			group_key TEXT NOT NULL,
			label TEXT NOT NULL,
			total INTEGER NOT NULL,
			compliant_count INTEGER NOT NULL,
			compliance_percentage NUMERIC(5,2) NOT NULL,
			on_time INTEGER NOT NULL,
			near_due INTEGER NOT NULL,
			overdue INTEGER NOT NULL,
			closed INTEGER NOT NULL,
			unknown INTEGER NOT NULL,
			PRIMARY KEY (run_id, group_key)
		)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS runs_as_of_idx ON %s.runs (as_of DESC)`, schema),
	}
}

// SaveReport stores the report header and its summaries in one transaction.
func (s *PostgresStore) SaveReport(ctx context.Context, report *models.Report) error {
	filterJSON, err := json.Marshal(report.Filter)
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	o := report.Overview
	_, err = tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s.runs (id, as_of, generated_at, group_by, filter, total_cases, in_scope,
			compliant_in_scope, compliance_percentage, invalid_holidays, case_issues)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.schema), report.RunID, report.AsOf, report.GeneratedAt, string(report.GroupBy), filterJSON,
		o.Total, o.InScope, o.CompliantInScope, o.CompliancePercentage, report.InvalidHolidays, report.CaseIssues)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	insert := fmt.Sprintf(`
		INSERT INTO %s.summaries (run_id, group_key, label, total, compliant_count, compliance_percentage,
			on_time, near_due, overdue, closed, unknown)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.schema)
	for _, sm := range report.Summaries {
		batch.Queue(insert, report.RunID, sm.Group, sm.Label, sm.Total, sm.CompliantCount,
			sm.CompliancePercentage, sm.OnTime, sm.NearDue, sm.Overdue, sm.Closed, sm.Unknown)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert summaries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.logger.Info("report stored",
		zap.String("run_id", report.RunID.String()),
		zap.Int("summaries", len(report.Summaries)))
	return nil
}

// ListRuns returns the most recent runs first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, as_of, generated_at, group_by, total_cases, in_scope, compliance_percentage::float8
		FROM %s.runs
		ORDER BY generated_at DESC
		LIMIT $1
	`, s.schema), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		var groupBy string
		if err := rows.Scan(&r.ID, &r.AsOf, &r.GeneratedAt, &groupBy, &r.TotalCases, &r.InScope, &r.CompliancePercentage); err != nil {
			return nil, err
		}
		r.GroupBy = models.GroupBy(groupBy)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Summaries returns the stored summaries of one run.
func (s *PostgresStore) Summaries(ctx context.Context, runID uuid.UUID) ([]models.ComplianceSummary, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT group_key, label, total, compliant_count, compliance_percentage::float8,
			on_time, near_due, overdue, closed, unknown
		FROM %s.summaries
		WHERE run_id = $1
		ORDER BY compliance_percentage DESC, total DESC, group_key
	`, s.schema), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ComplianceSummary, 0)
	for rows.Next() {
		var sm models.ComplianceSummary
		if err := rows.Scan(&sm.Group, &sm.Label, &sm.Total, &sm.CompliantCount, &sm.CompliancePercentage,
			&sm.OnTime, &sm.NearDue, &sm.Overdue, &sm.Closed, &sm.Unknown); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
