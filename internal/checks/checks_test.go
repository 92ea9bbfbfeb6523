package checks

import (
	"strings"
	"testing"

	"abfactory/domain/contract"
	"abfactory/domain/dataset"
)

func fp(v float64) *float64 { return &v }

func goodHeaders() []string {
	return []string{
		"case_id", "segment", "variant", "n_users", "revenue", "cpm",
		"fillrate", "ctr", "shows", "revenue_effect_relative", "revenue_p_value",
	}
}

func goodTable() dataset.Table {
	rev := 2000000.0
	return dataset.Table{Rows: []dataset.Row{
		{
			Segment: "all", Variant: "control",
			Values: map[string]*float64{"revenue": &rev, "n_users": fp(500000)},
		},
		{
			Segment: "all", Variant: "test",
			Values: map[string]*float64{"revenue": fp(2060000), "n_users": fp(501000)},
			Measurements: map[string]dataset.Measurement{
				"revenue": {EffectRelative: fp(0.03), PValue: fp(0.01)},
			},
		},
	}}
}

func testContract() contract.Contract {
	return contract.Contract{CaseID: "case_001", Variants: []string{"control", "test"}}
}

func findCheck(t *testing.T, res Result, name string) Check {
	t.Helper()
	for _, c := range res.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found in %+v", name, res.Checks)
	return Check{}
}

func TestRun_AllPass(t *testing.T) {
	res := Run(testContract(), goodHeaders(), goodTable())
	if !res.AllPass {
		t.Fatalf("AllPass = false, checks: %+v", res.Checks)
	}
	if len(res.Checks) != 5 {
		t.Errorf("got %d checks, want 5", len(res.Checks))
	}
}

func TestRun_MissingColumns(t *testing.T) {
	headers := []string{"case_id", "segment", "variant"}
	res := Run(testContract(), headers, goodTable())

	ch := findCheck(t, res, "required_columns")
	if ch.Pass {
		t.Error("required_columns passed with missing headers")
	}
	if !strings.Contains(ch.Detail, "revenue") {
		t.Errorf("detail %q does not name the missing column", ch.Detail)
	}
	if res.AllPass {
		t.Error("AllPass = true despite failing check")
	}
}

func TestRun_MissingVariant(t *testing.T) {
	tbl := goodTable()
	tbl.Rows = tbl.Rows[:1] // only the control row

	ch := findCheck(t, Run(testContract(), goodHeaders(), tbl), "variants_per_segment")
	if ch.Pass {
		t.Error("variants_per_segment passed with the test variant absent")
	}
	if !strings.Contains(ch.Detail, "test") {
		t.Errorf("detail %q does not name the missing variant", ch.Detail)
	}
}

func TestRun_PValueOutOfRange(t *testing.T) {
	tbl := goodTable()
	tbl.Rows[1].Measurements["revenue"] = dataset.Measurement{
		EffectRelative: fp(0.03), PValue: fp(1.7),
	}

	ch := findCheck(t, Run(testContract(), goodHeaders(), tbl), "p_values_in_range")
	if ch.Pass {
		t.Error("p_values_in_range passed with p=1.7")
	}
}

func TestRun_UnreasonableEffect(t *testing.T) {
	tbl := goodTable()
	tbl.Rows[1].Measurements["revenue"] = dataset.Measurement{
		EffectRelative: fp(0.9), PValue: fp(0.01),
	}

	ch := findCheck(t, Run(testContract(), goodHeaders(), tbl), "effects_reasonable")
	if ch.Pass {
		t.Error("effects_reasonable passed with a 90% effect")
	}
}

func TestRun_ColumnSummaries(t *testing.T) {
	res := Run(testContract(), goodHeaders(), goodTable())

	var revenue *ColumnSummary
	for i := range res.Columns {
		if res.Columns[i].Metric == "revenue" {
			revenue = &res.Columns[i]
		}
	}
	if revenue == nil {
		t.Fatalf("no revenue summary in %+v", res.Columns)
	}
	if revenue.Count != 2 {
		t.Errorf("revenue count = %d, want 2", revenue.Count)
	}
	if revenue.Min != 2000000 || revenue.Max != 2060000 {
		t.Errorf("revenue min/max = %v/%v, want 2000000/2060000", revenue.Min, revenue.Max)
	}
}
