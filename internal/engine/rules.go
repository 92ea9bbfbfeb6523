package engine

import (
	"abfactory/domain/contract"
	"abfactory/domain/policy"
	"abfactory/domain/signal"
	"abfactory/domain/verdict"
)

// ruleInput is everything one decision step may look at
type ruleInput struct {
	signals        signal.Set
	policy         policy.Policy
	abovePractical bool
}

// rule is one step of the priority chain. A step either declines (matched ==
// false) or terminates evaluation with an outcome and ordered reasons.
type rule struct {
	name  string
	apply func(in ruleInput) (verdict.Outcome, []verdict.ReasonCode, bool)
}

// decisionRules is the fixed-priority chain. Order is the contract: the first
// matching step wins and later steps are never consulted. Do not reorder.
var decisionRules = []rule{
	{
		name: "hard_guardrail",
		apply: func(in ruleInput) (verdict.Outcome, []verdict.ReasonCode, bool) {
			if !in.signals.HardViolated() {
				return "", nil, false
			}
			var reasons []verdict.ReasonCode
			for _, metric := range in.signals.ViolatedMetrics(string(policy.SeverityHard)) {
				reasons = append(reasons, verdict.GuardrailViolation(metric))
			}
			// A genuine uplift is listed ahead of the breach codes
			if in.signals.IsSignificant && in.abovePractical {
				reasons = append([]verdict.ReasonCode{verdict.ReasonPrimaryUplift}, reasons...)
			}
			return verdict.OutcomeDoNotShip, reasons, true
		},
	},
	{
		name: "long_term_reversal",
		apply: func(in ruleInput) (verdict.Outcome, []verdict.ReasonCode, bool) {
			if !in.signals.LongTermReversal {
				return "", nil, false
			}
			reasons := []verdict.ReasonCode{verdict.ReasonLongTermReversal}
			if !in.signals.IsSignificant {
				reasons = append(reasons, verdict.ReasonNotSignificant)
			}
			return in.policy.ReversalAction(), reasons, true
		},
	},
	{
		name: "segment_conflict",
		apply: func(in ruleInput) (verdict.Outcome, []verdict.ReasonCode, bool) {
			if !in.signals.SegmentConflict {
				return "", nil, false
			}
			reasons := []verdict.ReasonCode{verdict.ReasonSegmentConflict}
			if !in.signals.IsSignificant {
				reasons = append(reasons, verdict.ReasonNotSignificant)
			}
			return in.policy.ConflictAction(), reasons, true
		},
	},
	{
		name: "practically_small",
		apply: func(in ruleInput) (verdict.Outcome, []verdict.ReasonCode, bool) {
			if !in.signals.IsSignificant || in.abovePractical {
				return "", nil, false
			}
			return verdict.OutcomeDoNotShip, []verdict.ReasonCode{verdict.ReasonPracticallySmall}, true
		},
	},
	{
		name: "significance_gate",
		apply: func(in ruleInput) (verdict.Outcome, []verdict.ReasonCode, bool) {
			if in.signals.IsSignificant || !in.policy.Significance.RequireSignificanceForShip {
				return "", nil, false
			}
			if in.policy.Significance.AllowInvestigateIfNotSignificant {
				return verdict.OutcomeInvestigate, []verdict.ReasonCode{verdict.ReasonNotSignificant}, true
			}
			return verdict.OutcomeDoNotShip, []verdict.ReasonCode{verdict.ReasonNotSignificant}, true
		},
	},
	{
		name: "primary_uplift",
		apply: func(in ruleInput) (verdict.Outcome, []verdict.ReasonCode, bool) {
			if !in.signals.IsSignificant || !in.abovePractical {
				return "", nil, false
			}
			return verdict.OutcomeShip, []verdict.ReasonCode{verdict.ReasonPrimaryUplift}, true
		},
	},
}

// Decide applies the priority chain and returns the outcome with ordered
// reasons. Deterministic: identical inputs always yield identical output.
func Decide(s signal.Set, c contract.Contract, pol policy.Policy) (verdict.Outcome, []verdict.ReasonCode) {
	practicalPct := EffectivePracticalThresholdPct(c, pol)
	in := ruleInput{
		signals:        s,
		policy:         pol,
		abovePractical: s.UpliftPct != nil && abs(*s.UpliftPct) >= practicalPct,
	}

	for _, r := range decisionRules {
		if outcome, reasons, matched := r.apply(in); matched {
			return outcome, reasons
		}
	}
	return verdict.OutcomeInvestigate, []verdict.ReasonCode{verdict.ReasonInsufficientEvidence}
}

// EffectivePracticalThresholdPct resolves the practical threshold in percent.
// The contract override may only raise the policy floor, never lower it.
func EffectivePracticalThresholdPct(c contract.Contract, pol policy.Policy) float64 {
	floor := pol.PrimaryMetric.PracticalThresholdPct
	if rel := c.DecisionFramework.PracticalThresholdRelative; rel != nil {
		if pct := *rel * 100; pct > floor {
			return pct
		}
	}
	return floor
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
