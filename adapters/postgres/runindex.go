// Package postgres provides a database-backed run index for deployments
// where the JSONL file is not shared across hosts.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"abfactory/domain/verdict"
	"abfactory/ports"
)

type RunIndexImpl struct {
	db *sqlx.DB
}

var _ ports.RunIndex = (*RunIndexImpl)(nil)

func NewRunIndex(db *sqlx.DB) *RunIndexImpl {
	return &RunIndexImpl{db: db}
}

func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the run index table if it does not exist yet.
func (r *RunIndexImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_index (
			run_id         TEXT PRIMARY KEY,
			case_id        TEXT NOT NULL,
			decision       TEXT NOT NULL,
			reasons        TEXT NOT NULL DEFAULT '',
			confidence     DOUBLE PRECISION NOT NULL,
			policy_version TEXT NOT NULL DEFAULT '',
			duration_ms    BIGINT NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure run_index schema: %w", err)
	}
	return nil
}

func (r *RunIndexImpl) Append(ctx context.Context, rec ports.RunRecord) error {
	reasons := make([]string, len(rec.Reasons))
	for i, code := range rec.Reasons {
		reasons[i] = string(code)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO run_index (run_id, case_id, decision, reasons, confidence, policy_version, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.RunID, rec.CaseID, rec.Decision, strings.Join(reasons, ","),
		rec.Confidence, rec.PolicyVersion, rec.DurationMs, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

func (r *RunIndexImpl) Recent(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	type row struct {
		ports.RunRecord
		RawReasons string `db:"reasons"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, case_id, decision, reasons, confidence, policy_version, duration_ms, created_at
		FROM run_index
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query run index: %w", err)
	}

	records := make([]ports.RunRecord, 0, len(rows))
	for _, rw := range rows {
		rec := rw.RunRecord
		if rw.RawReasons != "" {
			for _, code := range strings.Split(rw.RawReasons, ",") {
				rec.Reasons = append(rec.Reasons, verdict.ReasonCode(code))
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
