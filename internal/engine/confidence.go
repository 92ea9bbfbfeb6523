package engine

import (
	"fmt"
	"math"

	"abfactory/domain/policy"
	"abfactory/domain/signal"
	"abfactory/domain/verdict"
)

// Confidence model factor names; weights come from policy.
const (
	factorUpliftStrong  = "primary_uplift_strong"
	factorUpliftSmall   = "primary_uplift_small"
	factorNotSig        = "not_significant"
	factorHardViolation = "guardrail_hard_violation"
	factorSoftViolation = "guardrail_soft_violation"
	factorSegConflict   = "segment_conflict"
	factorReversal      = "long_term_reversal"
	factorSparse        = "evidence_sparse"
)

// Clamp bounds: confidence is never reported as certain or impossible.
const (
	confidenceFloor = 0.01
	confidenceCeil  = 0.99
)

// Score applies the linear confidence model over the signal set and squashes
// the accumulated score through a logistic function. The returned explanation
// lists every fired factor and all missing-evidence identifiers so the score
// can be audited factor by factor.
func Score(s signal.Set, pol policy.Policy) (float64, verdict.ConfidenceExplain) {
	practicalPct := pol.PrimaryMetric.PracticalThresholdPct
	alpha := pol.Significance.Alpha
	if alpha == 0 {
		alpha = defaultAlpha
	}

	score := pol.Confidence.Base
	factors := make([]verdict.ConfidenceFactor, 0, 4)
	add := func(name string) {
		w := pol.Confidence.Weight(name)
		factors = append(factors, verdict.ConfidenceFactor{Name: name, Weight: w})
		score += w
	}

	if s.UpliftPct != nil {
		if abs(*s.UpliftPct) >= practicalPct {
			add(factorUpliftStrong)
		} else {
			add(factorUpliftSmall)
		}
	}
	if s.PValue == nil || *s.PValue > alpha {
		add(factorNotSig)
	}
	if s.HardViolated() {
		add(factorHardViolation)
	}
	if s.SoftViolated() {
		add(factorSoftViolation)
	}
	if s.SegmentConflict {
		add(factorSegConflict)
	}
	if s.LongTermReversal {
		add(factorReversal)
	}

	missing := missingEvidence(s, pol)
	if len(missing) > 0 {
		add(factorSparse)
	}

	confidence := clamp(round4(sigmoid(score)), confidenceFloor, confidenceCeil)

	return confidence, verdict.ConfidenceExplain{
		Score:           round4(score),
		Factors:         factors,
		MissingEvidence: missing,
	}
}

// missingEvidence lists every expected signal that could not be computed.
// Only policy-defined guardrails count as expected; contract-only guardrails
// are opportunistic evidence.
func missingEvidence(s signal.Set, pol policy.Policy) []string {
	missing := []string{}
	if s.UpliftPct == nil {
		missing = append(missing, "primary_uplift_pct")
	}
	if s.PValue == nil {
		missing = append(missing, "p_value")
	}
	for _, pg := range pol.Guardrails {
		if s.GuardrailDelta(pg.Metric) == nil {
			missing = append(missing, fmt.Sprintf("guardrail:%s", pg.Metric))
		}
	}
	if pol.Segments.Enabled && !s.HasSegmentData {
		missing = append(missing, "segments")
	}
	if pol.LongTerm.Enabled && !s.HasLongTermData {
		missing = append(missing, "long_term")
	}
	return missing
}

// sigmoid is the logistic squash. Extreme scores clamp to the bounds instead
// of overflowing.
func sigmoid(x float64) float64 {
	if x > 500 {
		return 1.0
	}
	if x < -500 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-x))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
