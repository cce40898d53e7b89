package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigilab/incident-triage/internal/model"
)

// PostgresStore implements History on a PostgreSQL connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL, verifies the connection, and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS incident_reports (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    title TEXT,
    log_text TEXT,
    verdict TEXT,
    confidence INT,
    severity TEXT,
    report JSONB
);

CREATE INDEX IF NOT EXISTS idx_incident_reports_created ON incident_reports(created_at);
CREATE INDEX IF NOT EXISTS idx_incident_reports_verdict ON incident_reports(verdict);
CREATE INDEX IF NOT EXISTS idx_incident_reports_severity ON incident_reports(severity);
`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveReport inserts one report row. The full report is stored as JSONB;
// the queried columns are duplicated for indexing.
func (s *PostgresStore) SaveReport(ctx context.Context, report model.Report, logText string) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	created := report.GeneratedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO incident_reports (id, created_at, title, log_text, verdict, confidence, severity, report)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET report = EXCLUDED.report`,
		report.ID, created, report.Title, logText,
		string(report.Classification.Verdict), report.Classification.Confidence,
		string(report.AdjustedSeverity), data,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListRecent returns up to limit incidents, newest first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]model.HistoricalIncident, error) {
	if limit <= 0 {
		limit = DefaultCapacity
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, log_text, created_at
		 FROM incident_reports
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var incidents []model.HistoricalIncident
	for rows.Next() {
		var inc model.HistoricalIncident
		if err := rows.Scan(&inc.ID, &inc.Title, &inc.LogText, &inc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return incidents, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
