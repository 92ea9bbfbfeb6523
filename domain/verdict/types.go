// Package verdict defines the decision record produced for one experiment
// case: the outcome, the ordered reason codes, and the confidence explanation.
// Decisions are created once per evaluation and never mutated afterwards.
package verdict

import (
	"fmt"

	"abfactory/domain/core"
	"abfactory/domain/signal"
)

// Outcome is the final call on an experiment case
type Outcome string

const (
	OutcomeShip        Outcome = "ship"
	OutcomeDoNotShip   Outcome = "do_not_ship"
	OutcomeInvestigate Outcome = "investigate"
)

// IsValid reports whether the outcome is one of the three known verdicts
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeShip, OutcomeDoNotShip, OutcomeInvestigate:
		return true
	}
	return false
}

// ReasonCode explains one contribution to a decision. The vocabulary is
// fixed; guardrail codes are parameterized by metric name.
type ReasonCode string

const (
	ReasonPrimaryUplift        ReasonCode = "primary_uplift"
	ReasonPracticallySmall     ReasonCode = "practically_small"
	ReasonNotSignificant       ReasonCode = "not_significant"
	ReasonSegmentConflict      ReasonCode = "segment_conflict"
	ReasonLongTermReversal     ReasonCode = "long_term_reversal"
	ReasonInsufficientEvidence ReasonCode = "insufficient_evidence"
)

// GuardrailViolation builds the reason code for a hard guardrail breach,
// e.g. "guardrail_violation:ctr"
func GuardrailViolation(metric string) ReasonCode {
	return ReasonCode(fmt.Sprintf("guardrail_violation:%s", metric))
}

// GuardrailSoftViolation builds the reason code for a soft guardrail breach
func GuardrailSoftViolation(metric string) ReasonCode {
	return ReasonCode(fmt.Sprintf("guardrail_soft_violation:%s", metric))
}

// ConfidenceFactor records one fired factor of the confidence model
type ConfidenceFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// ConfidenceExplain is the audit trail of the confidence score: the raw
// pre-squash score, every factor that fired, and the evidence that was
// expected but could not be computed.
type ConfidenceExplain struct {
	Score           float64            `json:"score"`
	Factors         []ConfidenceFactor `json:"factors"`
	MissingEvidence []string           `json:"missing_evidence"`
}

// SegmentSummary reports the primary-metric effect within one segment
type SegmentSummary struct {
	Effect      *float64 `json:"effect"`
	PValue      *float64 `json:"p_value"`
	Significant bool     `json:"significant"`
}

// PolicyRef identifies the policy a decision was made under
type PolicyRef struct {
	PolicyID      core.PolicyID `json:"policy_id"`
	PolicyVersion string        `json:"policy_version"`
}

// Decision is the complete, immutable result of evaluating one case
type Decision struct {
	CaseID     core.CaseID               `json:"case_id"`
	Decision   Outcome                   `json:"decision"`
	Confidence float64                   `json:"confidence"`
	Reasons    []ReasonCode              `json:"reasons"`
	Policy     PolicyRef                 `json:"policy"`
	Signals    signal.Summary            `json:"signals"`
	Explain    ConfidenceExplain         `json:"confidence_explain"`
	Segments   map[string]SegmentSummary `json:"segments_summary,omitempty"`
}
