package policy

import (
	"testing"

	"abfactory/domain/verdict"
)

func TestDefaultIsValid(t *testing.T) {
	pol := Default()
	if err := pol.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if pol.PrimaryMetric.Name != "revenue" {
		t.Errorf("primary metric = %s", pol.PrimaryMetric.Name)
	}
	if pol.Significance.Alpha != 0.05 {
		t.Errorf("alpha = %v", pol.Significance.Alpha)
	}
	if len(pol.Guardrails) != 2 {
		t.Fatalf("guardrails = %d, want 2", len(pol.Guardrails))
	}
	if pol.Guardrails[0].Metric != "ctr" || pol.Guardrails[0].Severity != SeverityHard {
		t.Errorf("first guardrail = %+v", pol.Guardrails[0])
	}
}

func TestValidateRejectsBadPolicies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"alpha zero", func(p *Policy) { p.Significance.Alpha = 0 }},
		{"alpha one", func(p *Policy) { p.Significance.Alpha = 1 }},
		{"positive guardrail threshold", func(p *Policy) { p.Guardrails[0].ThresholdPct = 3.0 }},
		{"unknown severity", func(p *Policy) { p.Guardrails[0].Severity = "medium" }},
		{"unknown conflict action", func(p *Policy) { p.Segments.ConflictAction = "escalate" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol := Default()
			tt.mutate(&pol)
			if err := pol.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWeightDefaultsToZero(t *testing.T) {
	pol := Default()
	if w := pol.Confidence.Weight("no_such_factor"); w != 0 {
		t.Errorf("unknown factor weight = %v, want 0", w)
	}
	if w := pol.Confidence.Weight("not_significant"); w != -0.8 {
		t.Errorf("not_significant weight = %v, want -0.8", w)
	}
}

func TestActionDefaults(t *testing.T) {
	var pol Policy
	if got := pol.ConflictAction(); got != verdict.OutcomeInvestigate {
		t.Errorf("empty conflict action = %s, want investigate", got)
	}
	if got := pol.ReversalAction(); got != verdict.OutcomeDoNotShip {
		t.Errorf("empty reversal action = %s, want do_not_ship", got)
	}

	pol.Segments.ConflictAction = verdict.OutcomeDoNotShip
	if got := pol.ConflictAction(); got != verdict.OutcomeDoNotShip {
		t.Errorf("configured conflict action = %s", got)
	}
}
