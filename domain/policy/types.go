// Package policy defines the organization-wide decision policy: default
// thresholds, guardrail definitions, and the confidence model. A Policy is
// loaded once per run and treated as immutable; evaluations never mutate it,
// so one value may back any number of concurrent case evaluations.
package policy

import (
	"abfactory/domain/core"
	"abfactory/domain/verdict"
)

// Severity classifies how a guardrail violation affects the decision
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// PrimaryMetric carries the org default primary metric and the practical
// significance floor in percent
type PrimaryMetric struct {
	Name                  string  `json:"name"`
	PracticalThresholdPct float64 `json:"practical_threshold_pct"`
}

// Significance configures the statistical gate
type Significance struct {
	Alpha                            float64 `json:"alpha"`
	RequireSignificanceForShip       bool    `json:"require_significance_for_ship"`
	AllowInvestigateIfNotSignificant bool    `json:"allow_investigate_if_not_significant"`
}

// Guardrail is an org-wide guardrail metric with a drop threshold in percent.
// ThresholdPct is negative: -3.0 means "a drop of 3% or more violates".
type Guardrail struct {
	Metric       string   `json:"metric"`
	ThresholdPct float64  `json:"threshold_pct"`
	Severity     Severity `json:"severity"`
}

// Segments configures segment-conflict detection
type Segments struct {
	Enabled                 bool            `json:"enabled"`
	MinAbsPctGapForConflict float64         `json:"min_abs_pct_gap_for_conflict"`
	ConflictAction          verdict.Outcome `json:"conflict_action"`
}

// LongTerm configures long-term reversal handling
type LongTerm struct {
	Enabled        bool            `json:"enabled"`
	ReversalAction verdict.Outcome `json:"reversal_action"`
}

// ConfidenceModel is a linear scoring model squashed through a logistic
// function. Weights are keyed by factor name; unknown factors score 0.
type ConfidenceModel struct {
	Base    float64            `json:"base"`
	Weights map[string]float64 `json:"weights"`
}

// Policy is the complete org decision policy
type Policy struct {
	PolicyID      core.PolicyID   `json:"policy_id"`
	PolicyVersion string          `json:"policy_version"`
	PrimaryMetric PrimaryMetric   `json:"primary_metric"`
	Significance  Significance    `json:"significance"`
	Guardrails    []Guardrail     `json:"guardrails"`
	Segments      Segments        `json:"segments"`
	LongTerm      LongTerm        `json:"long_term"`
	Confidence    ConfidenceModel `json:"confidence_model"`
}

// Default returns the baseline policy used when no policy file is supplied.
// File-loaded policies are unmarshalled over this value, so absent fields
// keep these defaults.
func Default() Policy {
	return Policy{
		PolicyID:      "org_default",
		PolicyVersion: "1.0",
		PrimaryMetric: PrimaryMetric{
			Name:                  "revenue",
			PracticalThresholdPct: 0.5,
		},
		Significance: Significance{
			Alpha:                            0.05,
			RequireSignificanceForShip:       true,
			AllowInvestigateIfNotSignificant: true,
		},
		Guardrails: []Guardrail{
			{Metric: "ctr", ThresholdPct: -3.0, Severity: SeverityHard},
			{Metric: "fillrate", ThresholdPct: -2.0, Severity: SeveritySoft},
		},
		Segments: Segments{
			Enabled:                 true,
			MinAbsPctGapForConflict: 2.0,
			ConflictAction:          verdict.OutcomeInvestigate,
		},
		LongTerm: LongTerm{
			Enabled:        true,
			ReversalAction: verdict.OutcomeDoNotShip,
		},
		Confidence: ConfidenceModel{
			Base: 0.8,
			Weights: map[string]float64{
				"primary_uplift_strong":    1.2,
				"primary_uplift_small":     -0.6,
				"not_significant":          -0.8,
				"guardrail_hard_violation": 0.9,
				"guardrail_soft_violation": -0.3,
				"segment_conflict":         -0.7,
				"long_term_reversal":       0.5,
				"evidence_sparse":          -1.0,
			},
		},
	}
}

// Weight returns the configured weight for a confidence factor, 0 when unset
func (m ConfidenceModel) Weight(factor string) float64 {
	if m.Weights == nil {
		return 0
	}
	return m.Weights[factor]
}

// ConflictAction returns the configured segment-conflict outcome, defaulting
// to investigate when unset
func (p Policy) ConflictAction() verdict.Outcome {
	if p.Segments.ConflictAction == "" {
		return verdict.OutcomeInvestigate
	}
	return p.Segments.ConflictAction
}

// ReversalAction returns the configured long-term reversal outcome, defaulting
// to do_not_ship when unset
func (p Policy) ReversalAction() verdict.Outcome {
	if p.LongTerm.ReversalAction == "" {
		return verdict.OutcomeDoNotShip
	}
	return p.LongTerm.ReversalAction
}

// Validate checks the policy is structurally usable
func (p Policy) Validate() error {
	if p.Significance.Alpha <= 0 || p.Significance.Alpha >= 1 {
		return core.NewPolicyError("significance.alpha", "must be in (0, 1)")
	}
	for _, g := range p.Guardrails {
		if g.Metric == "" {
			return core.NewPolicyError("guardrails.metric", "must not be empty")
		}
		if g.Severity != SeverityHard && g.Severity != SeveritySoft {
			return core.NewPolicyError("guardrails.severity", "must be hard or soft")
		}
		if g.ThresholdPct > 0 {
			return core.NewPolicyError("guardrails.threshold_pct", "must be negative (a drop)")
		}
	}
	if a := p.Segments.ConflictAction; a != "" && !a.IsValid() {
		return core.NewPolicyError("segments.conflict_action", "must be a known outcome")
	}
	if a := p.LongTerm.ReversalAction; a != "" && !a.IsValid() {
		return core.NewPolicyError("long_term.reversal_action", "must be a known outcome")
	}
	return nil
}
