package engine

import (
	"testing"

	"abfactory/domain/policy"
	"abfactory/domain/signal"
)

func TestScore_FactorsFireWithWeights(t *testing.T) {
	pol := policy.Default()
	s := signal.Set{
		PrimaryMetric: "revenue",
		UpliftPct:     fp(3.2),
		PValue:        fp(0.01),
		Alpha:         0.05,
		IsSignificant: true,
		Guardrails: []signal.GuardrailSignal{
			{Metric: "ctr", DeltaPct: fp(0.1), ThresholdPct: -3.0, Severity: "hard"},
			{Metric: "fillrate", DeltaPct: fp(-0.2), ThresholdPct: -2.0, Severity: "soft"},
		},
		HasSegmentData:  true,
		HasLongTermData: true,
	}

	conf, explain := Score(s, pol)

	wantScore := pol.Confidence.Base + pol.Confidence.Weight("primary_uplift_strong")
	if explain.Score != round4(wantScore) {
		t.Errorf("score = %v, want %v", explain.Score, wantScore)
	}
	if len(explain.Factors) != 1 || explain.Factors[0].Name != "primary_uplift_strong" {
		t.Errorf("factors = %+v, want only primary_uplift_strong", explain.Factors)
	}
	if len(explain.MissingEvidence) != 0 {
		t.Errorf("missing evidence = %v, want none", explain.MissingEvidence)
	}
	if want := round4(sigmoid(wantScore)); conf != want {
		t.Errorf("confidence = %v, want %v", conf, want)
	}
}

func TestScore_NegativeSignalsLowerConfidence(t *testing.T) {
	pol := policy.Default()

	clean := signal.Set{
		UpliftPct: fp(3.0), PValue: fp(0.01), Alpha: 0.05, IsSignificant: true,
		Guardrails: []signal.GuardrailSignal{
			{Metric: "ctr", DeltaPct: fp(0.1)},
			{Metric: "fillrate", DeltaPct: fp(0.1)},
		},
		HasSegmentData: true, HasLongTermData: true,
	}
	conflicted := clean
	conflicted.SegmentConflict = true

	cleanConf, _ := Score(clean, pol)
	conflictedConf, _ := Score(conflicted, pol)
	if conflictedConf >= cleanConf {
		t.Errorf("segment conflict did not lower confidence: %v >= %v", conflictedConf, cleanConf)
	}
}

func TestScore_EvidenceSparse(t *testing.T) {
	pol := policy.Default()

	// Nothing observed at all.
	conf, explain := Score(signal.Set{Alpha: 0.05}, pol)

	want := map[string]bool{
		"primary_uplift_pct": true,
		"p_value":            true,
		"guardrail:ctr":      true,
		"guardrail:fillrate": true,
		"segments":           true,
		"long_term":          true,
	}
	if len(explain.MissingEvidence) != len(want) {
		t.Fatalf("missing evidence = %v, want %d identifiers", explain.MissingEvidence, len(want))
	}
	for _, id := range explain.MissingEvidence {
		if !want[id] {
			t.Errorf("unexpected missing-evidence id %q", id)
		}
	}

	fired := false
	for _, f := range explain.Factors {
		if f.Name == "evidence_sparse" {
			fired = true
		}
	}
	if !fired {
		t.Error("evidence_sparse factor did not fire")
	}
	if conf < 0.01 || conf > 0.99 {
		t.Errorf("confidence %v outside bounds", conf)
	}
}

func TestScore_BoundsUnderExtremeWeights(t *testing.T) {
	tests := []struct {
		name string
		base float64
		want float64
	}{
		{"huge positive score clamps to ceiling", 1e6, 0.99},
		{"huge negative score clamps to floor", -1e6, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol := policy.Default()
			pol.Confidence.Base = tt.base
			s := signal.Set{
				UpliftPct: fp(3.0), PValue: fp(0.01), Alpha: 0.05, IsSignificant: true,
				Guardrails: []signal.GuardrailSignal{
					{Metric: "ctr", DeltaPct: fp(0.1)},
					{Metric: "fillrate", DeltaPct: fp(0.1)},
				},
				HasSegmentData: true, HasLongTermData: true,
			}
			conf, _ := Score(s, pol)
			if conf != tt.want {
				t.Errorf("confidence = %v, want %v", conf, tt.want)
			}
		})
	}
}

func TestSigmoid(t *testing.T) {
	if got := sigmoid(0); got != 0.5 {
		t.Errorf("sigmoid(0) = %v, want 0.5", got)
	}
	if got := sigmoid(1000); got != 1.0 {
		t.Errorf("sigmoid(1000) = %v, want 1.0", got)
	}
	if got := sigmoid(-1000); got != 0.0 {
		t.Errorf("sigmoid(-1000) = %v, want 0.0", got)
	}
}
