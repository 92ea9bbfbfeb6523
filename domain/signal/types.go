// Package signal defines the flat signal set derived from one case: the
// statistical and business signals the decision rules and the confidence
// model consume. Signals are recomputed fresh per case and never cached.
//
// A nil pointer always means missing evidence, never zero. Rules and the
// confidence model must distinguish "no evidence of a problem" from "no
// evidence collected".
package signal

// GuardrailSignal records the observed delta for one guardrail metric,
// whether it violated its threshold, and how severe a violation is.
type GuardrailSignal struct {
	Metric       string   `json:"metric"`
	DeltaPct     *float64 `json:"delta_pct"`
	ThresholdPct float64  `json:"threshold_pct"`
	Severity     string   `json:"severity"` // "hard" or "soft"
	Violated     bool     `json:"violated"`
}

// Set is the complete signal set for one case evaluation
type Set struct {
	PrimaryMetric  string
	EffectRelative *float64
	UpliftPct      *float64
	PValue         *float64
	Alpha          float64
	IsSignificant  bool

	// Guardrails holds every evaluated guardrail in policy order followed by
	// contract-declared extras; deltas are recorded even when not violated.
	Guardrails []GuardrailSignal

	SegmentConflict  bool
	LongTermReversal bool

	// Evidence-observed flags: whether the corresponding evidence category
	// was collected at all, used by the evidence_sparse confidence factor.
	HasSegmentData  bool
	HasLongTermData bool
}

// HardViolated reports whether any hard guardrail violated
func (s Set) HardViolated() bool {
	for _, g := range s.Guardrails {
		if g.Violated && g.Severity == "hard" {
			return true
		}
	}
	return false
}

// SoftViolated reports whether any soft guardrail violated
func (s Set) SoftViolated() bool {
	for _, g := range s.Guardrails {
		if g.Violated && g.Severity == "soft" {
			return true
		}
	}
	return false
}

// ViolatedMetrics returns the metrics of violated guardrails with the given
// severity, in evaluation order
func (s Set) ViolatedMetrics(severity string) []string {
	var out []string
	for _, g := range s.Guardrails {
		if g.Violated && g.Severity == severity {
			out = append(out, g.Metric)
		}
	}
	return out
}

// GuardrailDelta returns the recorded delta for a metric, nil when the
// guardrail was not evaluated or its evidence was missing
func (s Set) GuardrailDelta(metric string) *float64 {
	for _, g := range s.Guardrails {
		if g.Metric == metric {
			return g.DeltaPct
		}
	}
	return nil
}

// Summary is the subset of signals exported on the decision record
type Summary struct {
	PrimaryMetric    string              `json:"primary_metric"`
	PrimaryUpliftPct *float64            `json:"primary_uplift_pct"`
	PValue           *float64            `json:"p_value"`
	IsSignificant    bool                `json:"is_significant"`
	Alpha            float64             `json:"alpha"`
	Guardrails       map[string]*float64 `json:"guardrails"`
	SegmentConflict  bool                `json:"segment_conflict"`
	LongTermReversal bool                `json:"long_term_reversal"`
}

// Summary projects the signal set into its exported form
func (s Set) Summary() Summary {
	deltas := make(map[string]*float64, len(s.Guardrails))
	for _, g := range s.Guardrails {
		deltas[g.Metric] = g.DeltaPct
	}
	return Summary{
		PrimaryMetric:    s.PrimaryMetric,
		PrimaryUpliftPct: s.UpliftPct,
		PValue:           s.PValue,
		IsSignificant:    s.IsSignificant,
		Alpha:            s.Alpha,
		Guardrails:       deltas,
		SegmentConflict:  s.SegmentConflict,
		LongTermReversal: s.LongTermReversal,
	}
}
