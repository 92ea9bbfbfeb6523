// Package engine is the decision core: it derives statistical and business
// signals from one case, applies the fixed-priority rule chain, and scores
// the confidence of the resulting verdict.
//
// The engine is stateless across cases. An Engine holds only the immutable
// policy it was built with, so one Engine may evaluate any number of cases
// concurrently at the caller's discretion.
package engine

import (
	"fmt"

	"abfactory/domain/contract"
	"abfactory/domain/dataset"
	"abfactory/domain/policy"
	"abfactory/domain/verdict"
)

// Engine evaluates experiment cases under one org policy
type Engine struct {
	policy policy.Policy
}

// New builds an engine after validating the policy. Structurally invalid
// policies are rejected here so no partial evaluation can happen later.
func New(pol policy.Policy) (*Engine, error) {
	if err := pol.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Engine{policy: pol}, nil
}

// Policy returns the policy the engine evaluates under
func (e *Engine) Policy() policy.Policy {
	return e.policy
}

// Evaluate runs extract -> decide -> score for one case and assembles the
// decision record. Repeated evaluation of the same inputs yields an
// identical decision.
func (e *Engine) Evaluate(c contract.Contract, table dataset.Table) (verdict.Decision, error) {
	if err := c.Validate(); err != nil {
		return verdict.Decision{}, err
	}

	signals, err := Extract(c, table, e.policy)
	if err != nil {
		return verdict.Decision{}, err
	}

	outcome, reasons := Decide(signals, c, e.policy)
	confidence, explain := Score(signals, e.policy)

	return verdict.Decision{
		CaseID:     c.CaseID,
		Decision:   outcome,
		Confidence: confidence,
		Reasons:    reasons,
		Policy: verdict.PolicyRef{
			PolicyID:      e.policy.PolicyID,
			PolicyVersion: e.policy.PolicyVersion,
		},
		Signals:  signals.Summary(),
		Explain:  explain,
		Segments: segmentSummaries(c, table, signals.PrimaryMetric, signals.Alpha),
	}, nil
}

// segmentSummaries reports the primary-metric effect per contract segment for
// downstream rendering. Segments without a test row are omitted.
func segmentSummaries(c contract.Contract, table dataset.Table, pmName string, alpha float64) map[string]verdict.SegmentSummary {
	if len(c.Segments) == 0 {
		return nil
	}
	out := make(map[string]verdict.SegmentSummary, len(c.Segments))
	for _, seg := range c.Segments {
		st := table.SegmentTest(seg)
		if st == nil {
			continue
		}
		m := st.Measurement(pmName)
		out[seg] = verdict.SegmentSummary{
			Effect:      m.EffectRelative,
			PValue:      m.PValue,
			Significant: m.PValue != nil && *m.PValue < alpha,
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
