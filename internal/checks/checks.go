// Package checks runs structural sanity checks over a case's data table
// before the engine sees it. Check failures are reported, not fatal: the
// engine treats bad cells as missing evidence either way, but surfacing them
// early keeps report readers honest about data quality.
package checks

import (
	"fmt"
	"sort"
	"strings"

	mstats "github.com/montanaflynn/stats"

	"abfactory/domain/contract"
	"abfactory/domain/dataset"
)

// maxReasonableEffect bounds plausible relative effects; anything larger is
// almost certainly a data generation or join error.
const maxReasonableEffect = 0.50

// Check is one named sanity check outcome
type Check struct {
	Name   string `json:"check"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail"`
}

// ColumnSummary describes the distribution of one raw metric column
type ColumnSummary struct {
	Metric string  `json:"metric"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Result aggregates all checks for one case
type Result struct {
	Checks  []Check         `json:"checks"`
	Columns []ColumnSummary `json:"columns,omitempty"`
	AllPass bool            `json:"all_pass"`
}

// Run executes every sanity check against the loaded table. Headers is the
// raw CSV header list as read from disk.
func Run(c contract.Contract, headers []string, table dataset.Table) Result {
	res := Result{}
	res.Checks = append(res.Checks,
		requiredColumns(headers),
		noEmptyRows(table),
		variantsPerSegment(c, table),
		pValuesInRange(table),
		effectsReasonable(table),
	)

	res.AllPass = true
	for _, ch := range res.Checks {
		if !ch.Pass {
			res.AllPass = false
		}
	}
	res.Columns = columnSummaries(table)
	return res
}

func requiredColumns(headers []string) Check {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, col := range dataset.RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Check{Name: "required_columns", Detail: fmt.Sprintf("missing: %v", missing)}
	}
	return Check{Name: "required_columns", Pass: true, Detail: "all present"}
}

func noEmptyRows(table dataset.Table) Check {
	var empty []int
	for i, r := range table.Rows {
		if r.Segment == "" && r.Variant == "" && len(r.Values) == 0 {
			empty = append(empty, i)
		}
	}
	if len(empty) > 0 {
		return Check{Name: "no_empty_rows", Detail: fmt.Sprintf("empty rows at indices: %v", empty)}
	}
	return Check{Name: "no_empty_rows", Pass: true, Detail: "ok"}
}

func variantsPerSegment(c contract.Contract, table dataset.Table) Check {
	expected := make(map[string]bool, len(c.Variants))
	for _, v := range c.Variants {
		expected[v] = true
	}

	bySegment := make(map[string]map[string]bool)
	for _, r := range table.Rows {
		if bySegment[r.Segment] == nil {
			bySegment[r.Segment] = make(map[string]bool)
		}
		bySegment[r.Segment][r.Variant] = true
	}

	var issues []string
	for seg, variants := range bySegment {
		var missing []string
		for v := range expected {
			if !variants[v] {
				missing = append(missing, v)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			issues = append(issues, fmt.Sprintf("segment %q missing variants: %v", seg, missing))
		}
	}
	if len(issues) > 0 {
		sort.Strings(issues)
		return Check{Name: "variants_per_segment", Detail: strings.Join(issues, "; ")}
	}
	return Check{Name: "variants_per_segment", Pass: true, Detail: "ok"}
}

func pValuesInRange(table dataset.Table) Check {
	var issues []string
	for i, r := range table.Rows {
		for metric, m := range r.Measurements {
			if m.PValue != nil && (*m.PValue < 0 || *m.PValue > 1) {
				issues = append(issues, fmt.Sprintf("row %d %s_p_value=%v", i, metric, *m.PValue))
			}
		}
	}
	if len(issues) > 0 {
		sort.Strings(issues)
		return Check{Name: "p_values_in_range", Detail: strings.Join(issues, "; ")}
	}
	return Check{Name: "p_values_in_range", Pass: true, Detail: "ok"}
}

func effectsReasonable(table dataset.Table) Check {
	var issues []string
	for i, r := range table.Rows {
		for metric, m := range r.Measurements {
			if m.EffectRelative == nil {
				continue
			}
			if v := *m.EffectRelative; v > maxReasonableEffect || v < -maxReasonableEffect {
				issues = append(issues, fmt.Sprintf("row %d %s_effect_relative=%v", i, metric, v))
			}
		}
	}
	if len(issues) > 0 {
		sort.Strings(issues)
		return Check{Name: "effects_reasonable", Detail: strings.Join(issues, "; ")}
	}
	return Check{Name: "effects_reasonable", Pass: true, Detail: "ok"}
}

// columnSummaries describes each raw metric column that has at least one
// parsed value
func columnSummaries(table dataset.Table) []ColumnSummary {
	values := make(map[string][]float64)
	for _, r := range table.Rows {
		for metric, v := range r.Values {
			if v != nil {
				values[metric] = append(values[metric], *v)
			}
		}
	}

	metrics := make([]string, 0, len(values))
	for m := range values {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	out := make([]ColumnSummary, 0, len(metrics))
	for _, metric := range metrics {
		data := mstats.Float64Data(values[metric])
		mean, _ := mstats.Mean(data)
		stddev, _ := mstats.StandardDeviation(data)
		minV, _ := mstats.Min(data)
		maxV, _ := mstats.Max(data)
		out = append(out, ColumnSummary{
			Metric: metric,
			Count:  len(data),
			Mean:   mean,
			StdDev: stddev,
			Min:    minV,
			Max:    maxV,
		})
	}
	return out
}
