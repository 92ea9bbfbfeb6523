// Package dataset holds the per-variant, per-segment metric table supplied
// with a case. Effect sizes and p-values arrive precomputed; this package
// only exposes typed access to them.
package dataset

import (
	"abfactory/domain/core"
)

const (
	// SegmentAll denotes the overall population
	SegmentAll = "all"
	// VariantControl is the baseline variant
	VariantControl = "control"
)

// RequiredColumns are the raw metric columns every data table must carry
var RequiredColumns = []string{
	"case_id", "segment", "variant", "n_users", "revenue", "cpm",
	"fillrate", "ctr", "shows",
}

// Measurement pairs a precomputed relative effect with its p-value for one
// metric on one row. Either field may be nil (missing evidence).
type Measurement struct {
	EffectRelative *float64
	PValue         *float64
}

// IsUsable reports whether both effect and p-value are present
func (m Measurement) IsUsable() bool {
	return m.EffectRelative != nil && m.PValue != nil
}

// Row is one (segment, variant) observation. Values holds raw metric
// readings; Measurements holds precomputed per-metric statistics. The loader
// builds the metric mapping once from the table header, so lookups here are
// by metric identifier, not by column-name construction.
type Row struct {
	CaseID       core.CaseID
	Segment      string
	Variant      string
	Values       map[string]*float64
	Measurements map[string]Measurement
}

// Value returns the raw reading for a metric, nil when absent or unparsable
func (r Row) Value(metric string) *float64 {
	if r.Values == nil {
		return nil
	}
	return r.Values[metric]
}

// Measurement returns the precomputed statistics for a metric; the zero
// Measurement (both fields nil) when the table carries none
func (r Row) Measurement(metric string) Measurement {
	if r.Measurements == nil {
		return Measurement{}
	}
	return r.Measurements[metric]
}

// IsControl reports whether the row is the baseline variant
func (r Row) IsControl() bool {
	return r.Variant == VariantControl
}

// Table is the ordered set of rows for one case
type Table struct {
	Rows []Row
}

// OverallTest returns the first non-control overall row, nil when absent
func (t Table) OverallTest() *Row {
	return t.first(SegmentAll, false)
}

// OverallControl returns the overall control row, nil when absent
func (t Table) OverallControl() *Row {
	return t.first(SegmentAll, true)
}

// SegmentTest returns the first non-control row of a segment, nil when absent
func (t Table) SegmentTest(segment string) *Row {
	return t.first(segment, false)
}

// SegmentControl returns a segment's control row, nil when absent
func (t Table) SegmentControl(segment string) *Row {
	return t.first(segment, true)
}

func (t Table) first(segment string, control bool) *Row {
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.Segment == segment && r.IsControl() == control {
			return r
		}
	}
	return nil
}

// Segments returns the distinct segments present, in first-seen order
func (t Table) Segments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		if !seen[r.Segment] {
			seen[r.Segment] = true
			out = append(out, r.Segment)
		}
	}
	return out
}

// DeriveEffect computes (test - control) / control for a raw metric.
// Returns nil when either value is missing or the control is zero: a zero
// denominator is missing evidence, never a panic.
func DeriveEffect(control, test *Row, metric string) *float64 {
	if control == nil || test == nil {
		return nil
	}
	cv := control.Value(metric)
	tv := test.Value(metric)
	if cv == nil || tv == nil || *cv == 0 {
		return nil
	}
	eff := (*tv - *cv) / *cv
	return &eff
}
