// Package casefile is the filesystem case repository: it parses
// contract.json, truth.json, and data.csv into the typed records the engine
// consumes. All parsing leniency lives here; unparsable numeric cells become
// nil values (missing evidence), never zeros.
package casefile

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"abfactory/domain/contract"
	"abfactory/domain/core"
	"abfactory/domain/dataset"
	"abfactory/ports"
)

const (
	contractFile = "contract.json"
	truthFile    = "truth.json"
	dataFile     = "data.csv"
)

const (
	effectSuffix = "_effect_relative"
	pValueSuffix = "_p_value"
)

// Repository loads cases from a root directory. The root may contain a
// cases/ subdirectory or hold case directories directly.
type Repository struct {
	root string
}

// NewRepository creates a filesystem case repository
func NewRepository(root string) *Repository {
	return &Repository{root: root}
}

var _ ports.CaseRepository = (*Repository)(nil)

// DiscoverCases lists directories containing a contract.json, sorted by name
func (r *Repository) DiscoverCases(_ context.Context) ([]string, error) {
	search := r.root
	if fi, err := os.Stat(filepath.Join(r.root, "cases")); err == nil && fi.IsDir() {
		search = filepath.Join(r.root, "cases")
	}

	entries, err := os.ReadDir(search)
	if err != nil {
		return nil, fmt.Errorf("read cases root %s: %w", search, err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(search, e.Name())
		if _, err := os.Stat(filepath.Join(dir, contractFile)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ResolveCase maps a spec to a case directory. Accepts an exact directory
// name, a case_ prefix, or a bare number ("4" matches case_004_*).
func (r *Repository) ResolveCase(ctx context.Context, spec string) (string, error) {
	dirs, err := r.DiscoverCases(ctx)
	if err != nil {
		return "", err
	}

	isNumber := spec != "" && strings.IndexFunc(spec, func(c rune) bool { return c < '0' || c > '9' }) == -1
	padded := ""
	if isNumber {
		n, _ := strconv.Atoi(spec)
		padded = fmt.Sprintf("case_%03d", n)
	}

	for _, dir := range dirs {
		name := filepath.Base(dir)
		switch {
		case name == spec:
			return dir, nil
		case isNumber && strings.Contains(name, padded):
			return dir, nil
		case strings.HasPrefix(spec, "case_") && strings.HasPrefix(name, spec):
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w: %s", core.ErrCaseNotFound, spec)
}

// LoadCase reads one case directory into typed records
func (r *Repository) LoadCase(_ context.Context, dir string) (*ports.CaseBundle, error) {
	var c contract.Contract
	if err := readJSON(filepath.Join(dir, contractFile), &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	headers, table, err := readDataCSV(filepath.Join(dir, dataFile), c.CaseID)
	if err != nil {
		return nil, err
	}

	bundle := &ports.CaseBundle{
		Dir:      dir,
		Contract: c,
		Headers:  headers,
		Table:    table,
	}

	// truth.json is optional: only labeled corpora carry it
	truthPath := filepath.Join(dir, truthFile)
	if _, err := os.Stat(truthPath); err == nil {
		var truth contract.Truth
		if err := readJSON(truthPath, &truth); err != nil {
			return nil, err
		}
		bundle.Truth = &truth
	}

	return bundle, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// readDataCSV parses the metric table. Effect and p-value columns are folded
// into a per-metric measurement map once, here, so nothing downstream builds
// column names from strings.
func readDataCSV(path string, caseID core.CaseID) ([]string, dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dataset.Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, dataset.Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, dataset.Table{}, fmt.Errorf("%w: %s", core.ErrEmptyTable, path)
	}

	headers := records[0]
	table := dataset.Table{Rows: make([]dataset.Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		table.Rows = append(table.Rows, parseRow(headers, rec, caseID))
	}
	return headers, table, nil
}

func parseRow(headers, rec []string, caseID core.CaseID) dataset.Row {
	row := dataset.Row{
		CaseID:       caseID,
		Values:       make(map[string]*float64),
		Measurements: make(map[string]dataset.Measurement),
	}

	for i, col := range headers {
		if i >= len(rec) {
			break
		}
		cell := strings.TrimSpace(rec[i])
		switch {
		case col == "case_id":
			if cell != "" {
				row.CaseID = core.CaseID(cell)
			}
		case col == "segment":
			row.Segment = cell
		case col == "variant":
			row.Variant = cell
		case strings.HasSuffix(col, effectSuffix):
			metric := strings.TrimSuffix(col, effectSuffix)
			m := row.Measurements[metric]
			m.EffectRelative = safeFloat(cell)
			row.Measurements[metric] = m
		case strings.HasSuffix(col, pValueSuffix):
			metric := strings.TrimSuffix(col, pValueSuffix)
			m := row.Measurements[metric]
			m.PValue = safeFloat(cell)
			row.Measurements[metric] = m
		default:
			row.Values[col] = safeFloat(cell)
		}
	}

	// Drop nil raw values so empty cells read as absent, not zero
	for k, v := range row.Values {
		if v == nil {
			delete(row.Values, k)
		}
	}
	return row
}

// safeFloat parses a numeric cell, nil on anything unparsable
func safeFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
