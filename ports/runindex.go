package ports

import (
	"context"

	"abfactory/domain/core"
	"abfactory/domain/verdict"
)

// RunRecord is the per-run summary appended to the run index
type RunRecord struct {
	RunID         core.RunID           `json:"run_id" db:"run_id"`
	CaseID        core.CaseID          `json:"case_id" db:"case_id"`
	Decision      verdict.Outcome      `json:"decision" db:"decision"`
	Reasons       []verdict.ReasonCode `json:"reasons" db:"-"`
	Confidence    float64              `json:"confidence" db:"confidence"`
	PolicyVersion string               `json:"policy_version,omitempty" db:"policy_version"`
	DurationMs    int64                `json:"duration_ms" db:"duration_ms"`
	Timestamp     string               `json:"timestamp" db:"created_at"`
}

// RunIndex records completed runs for later browsing. Appends must be safe
// to interleave from concurrent case evaluations.
type RunIndex interface {
	Append(ctx context.Context, rec RunRecord) error

	// Recent returns up to limit records, newest first
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
}
