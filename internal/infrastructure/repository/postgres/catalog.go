package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

// IngestCatalog records how ingestion handled each document, so the
// best-effort batch can be audited after the fact.
type IngestCatalog struct {
	db *sql.DB
}

func NewIngestCatalog(db *sql.DB) *IngestCatalog {
	return &IngestCatalog{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (c *IngestCatalog) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS ingest_outcomes (
	filename TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	outcome TEXT NOT NULL,
	detail TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ingest_outcomes_outcome ON ingest_outcomes(outcome);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (c *IngestCatalog) RecordOutcome(ctx context.Context, doc domain.Document, outcome domain.IngestOutcome, detail string) error {
	const query = `
INSERT INTO ingest_outcomes (filename, document_id, outcome, detail, recorded_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (filename) DO UPDATE
SET document_id = EXCLUDED.document_id,
    outcome = EXCLUDED.outcome,
    detail = EXCLUDED.detail,
    recorded_at = EXCLUDED.recorded_at
`
	_, err := c.db.ExecContext(ctx, query, doc.Filename, doc.ID, string(outcome), detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record ingest outcome: %w", err)
	}
	return nil
}

func (c *IngestCatalog) CountByOutcome(ctx context.Context) (map[domain.IngestOutcome]int64, error) {
	const query = `SELECT outcome, COUNT(*) FROM ingest_outcomes GROUP BY outcome`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count ingest outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.IngestOutcome]int64)
	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan ingest outcome row: %w", err)
		}
		out[domain.IngestOutcome(outcome)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingest outcome rows: %w", err)
	}
	return out, nil
}
