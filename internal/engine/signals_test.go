package engine

import (
	"testing"

	"abfactory/domain/contract"
	"abfactory/domain/dataset"
	"abfactory/domain/policy"
)

func TestExtract_GuardrailDerivedFromRawValues(t *testing.T) {
	// No precomputed ctr effect column: the delta must be derived from raw
	// control/test values.
	tbl := dataset.Table{Rows: []dataset.Row{
		testRow("all", "control", map[string]float64{"revenue": 100, "ctr": 0.05, "fillrate": 0.8}, nil),
		testRow("all", "test", map[string]float64{"revenue": 103, "ctr": 0.048, "fillrate": 0.8}, map[string]dataset.Measurement{
			"revenue": {EffectRelative: fp(0.03), PValue: fp(0.01)},
		}),
	}}

	s, err := Extract(baseContract(), tbl, policy.Default())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	delta := s.GuardrailDelta("ctr")
	if delta == nil {
		t.Fatal("ctr delta = nil, want derived value")
	}
	if got := *delta; got < -4.01 || got > -3.99 {
		t.Errorf("ctr delta = %v, want -4.0", got)
	}
	if !s.HardViolated() {
		t.Error("derived -4%% ctr drop should violate the -3%% hard guardrail")
	}
}

func TestExtract_PrecomputedEffectWinsOverRaw(t *testing.T) {
	// Raw values imply a -4% drop but the precomputed column says -1%. The
	// precomputed value is authoritative.
	tbl := dataset.Table{Rows: []dataset.Row{
		testRow("all", "control", map[string]float64{"revenue": 100, "ctr": 0.05}, nil),
		testRow("all", "test", map[string]float64{"revenue": 103, "ctr": 0.048}, map[string]dataset.Measurement{
			"revenue": {EffectRelative: fp(0.03), PValue: fp(0.01)},
			"ctr":     {EffectRelative: fp(-0.01), PValue: fp(0.2)},
		}),
	}}

	s, err := Extract(baseContract(), tbl, policy.Default())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if delta := s.GuardrailDelta("ctr"); delta == nil || *delta != -1.0 {
		t.Errorf("ctr delta = %v, want precomputed -1.0", delta)
	}
	if s.HardViolated() {
		t.Error("precomputed -1%% must not violate the -3%% threshold")
	}
}

func TestExtract_ZeroControlIsMissingEvidence(t *testing.T) {
	tbl := dataset.Table{Rows: []dataset.Row{
		testRow("all", "control", map[string]float64{"revenue": 100, "ctr": 0}, nil),
		testRow("all", "test", map[string]float64{"revenue": 103, "ctr": 0.05}, map[string]dataset.Measurement{
			"revenue": {EffectRelative: fp(0.03), PValue: fp(0.01)},
		}),
	}}

	s, err := Extract(baseContract(), tbl, policy.Default())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if delta := s.GuardrailDelta("ctr"); delta != nil {
		t.Errorf("ctr delta = %v, want nil for zero-denominator derivation", *delta)
	}
	if s.HardViolated() || s.SoftViolated() {
		t.Error("missing evidence must never count as a violation")
	}
}

func TestExtract_ContractGuardrailDirections(t *testing.T) {
	tests := []struct {
		name         string
		guardrail    contract.Guardrail
		effect       float64
		wantViolated bool
	}{
		{
			name:         "up metric dropping past max_drop violates",
			guardrail:    contract.Guardrail{Name: "dau", Direction: contract.DirectionUp, MaxDropRelative: fp(0.02)},
			effect:       -0.03,
			wantViolated: true,
		},
		{
			name:         "up metric rising never violates",
			guardrail:    contract.Guardrail{Name: "dau", Direction: contract.DirectionUp, MaxDropRelative: fp(0.02)},
			effect:       0.05,
			wantViolated: false,
		},
		{
			name:         "neutral metric small drop within bound",
			guardrail:    contract.Guardrail{Name: "dau", Direction: contract.DirectionNeutral, MaxDropRelative: fp(0.02)},
			effect:       -0.01,
			wantViolated: false,
		},
		{
			name:         "down metric rising past max_rise violates",
			guardrail:    contract.Guardrail{Name: "complaints", Direction: contract.DirectionDown, MaxRiseRelative: fp(0.05)},
			effect:       0.08,
			wantViolated: true,
		},
		{
			name:         "down metric falling never violates",
			guardrail:    contract.Guardrail{Name: "complaints", Direction: contract.DirectionDown, MaxRiseRelative: fp(0.05)},
			effect:       -0.10,
			wantViolated: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseContract()
			c.Guardrails = []contract.Guardrail{tt.guardrail}

			tbl := dataset.Table{Rows: []dataset.Row{
				testRow("all", "control", map[string]float64{"revenue": 100}, nil),
				testRow("all", "test", map[string]float64{"revenue": 103}, map[string]dataset.Measurement{
					"revenue":        {EffectRelative: fp(0.03), PValue: fp(0.01)},
					tt.guardrail.Name: {EffectRelative: fp(tt.effect)},
				}),
			}}

			s, err := Extract(c, tbl, policy.Default())
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			violated := false
			for _, m := range s.ViolatedMetrics("hard") {
				if m == tt.guardrail.Name {
					violated = true
				}
			}
			if violated != tt.wantViolated {
				t.Errorf("violated = %v, want %v", violated, tt.wantViolated)
			}
		})
	}
}

func TestExtract_ConflictRequiresDirectionalDisagreement(t *testing.T) {
	// A wide but all-positive spread is not a conflict.
	c := baseContract()
	c.Segments = []string{"news", "dzen"}

	tbl := overallTable(0.02, 0.01, 0.001, 0.5)
	tbl.Rows = append(tbl.Rows,
		testRow("news", "test", map[string]float64{"revenue": 1}, map[string]dataset.Measurement{
			"revenue": {EffectRelative: fp(0.08), PValue: fp(0.01)},
		}),
		testRow("dzen", "test", map[string]float64{"revenue": 1}, map[string]dataset.Measurement{
			"revenue": {EffectRelative: fp(0.01), PValue: fp(0.01)},
		}),
	)

	s, err := Extract(c, tbl, policy.Default())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if s.SegmentConflict {
		t.Error("all-positive spread flagged as conflict")
	}
}

func TestExtract_ConflictDisabledByPolicy(t *testing.T) {
	c := baseContract()
	c.Segments = []string{"news", "dzen"}

	tbl := overallTable(0.002, 0.4, 0.001, 0.5)
	tbl.Rows = append(tbl.Rows,
		testRow("news", "test", map[string]float64{"revenue": 1}, map[string]dataset.Measurement{
			"revenue": {EffectRelative: fp(0.03), PValue: fp(0.01)},
		}),
		testRow("dzen", "test", map[string]float64{"revenue": 1}, map[string]dataset.Measurement{
			"revenue": {EffectRelative: fp(-0.025), PValue: fp(0.02)},
		}),
	)

	pol := policy.Default()
	pol.Segments.Enabled = false
	s, err := Extract(c, tbl, pol)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if s.SegmentConflict {
		t.Error("segment conflict detected despite policy disables it")
	}
}

func TestExtract_ReversalKeywords(t *testing.T) {
	tests := []struct {
		notes string
		want  bool
	}{
		{"Long-run pricing test. Trend Reversal observed after day 21.", true},
		{"Effect reverses in the holdout group.", true},
		{"Watch for a TREND CHANGE after the promo window.", true},
		{"Standard experiment, nothing unusual.", false},
		{"", false},
	}

	for _, tt := range tests {
		c := baseContract()
		c.Notes = tt.notes
		s, err := Extract(c, overallTable(0.01, 0.2, 0, 0.5), policy.Default())
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if s.LongTermReversal != tt.want {
			t.Errorf("notes %q: reversal = %v, want %v", tt.notes, s.LongTermReversal, tt.want)
		}
	}
}

func TestExtract_ReversalDisabledByPolicy(t *testing.T) {
	c := baseContract()
	c.Notes = "trend reversal everywhere"

	pol := policy.Default()
	pol.LongTerm.Enabled = false
	s, err := Extract(c, overallTable(0.01, 0.2, 0, 0.5), pol)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if s.LongTermReversal {
		t.Error("reversal flagged despite long_term disabled")
	}
}
