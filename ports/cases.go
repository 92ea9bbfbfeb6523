package ports

import (
	"context"

	"abfactory/domain/contract"
	"abfactory/domain/dataset"
)

// CaseBundle is everything loaded for one experiment case
type CaseBundle struct {
	// Dir is the case directory on disk
	Dir string

	Contract contract.Contract

	// Truth is the labeled expectation, present only for self-check corpora
	Truth *contract.Truth

	// Headers is the raw data-table header row, for sanity checks
	Headers []string

	Table dataset.Table
}

// CaseRepository discovers and loads experiment cases. Implementations do
// all parsing; the engine only ever sees typed records.
type CaseRepository interface {
	// DiscoverCases lists case directories in deterministic order
	DiscoverCases(ctx context.Context) ([]string, error)

	// ResolveCase maps a user-supplied spec (name, prefix, or bare number)
	// to a case directory
	ResolveCase(ctx context.Context, spec string) (string, error)

	// LoadCase reads one case directory into typed records
	LoadCase(ctx context.Context, dir string) (*CaseBundle, error)
}
