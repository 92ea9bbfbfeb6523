package engine

import (
	"strings"

	"abfactory/domain/contract"
	"abfactory/domain/core"
	"abfactory/domain/dataset"
	"abfactory/domain/policy"
	"abfactory/domain/signal"
)

// reversalKeywords are scanned case-insensitively in contract notes
var reversalKeywords = []string{"reversal", "revers", "trend change"}

const defaultAlpha = 0.05

// Extract reduces contract + data + policy into the flat signal set. It is a
// pure function: inputs are never mutated and no state survives the call.
// Missing rows or unparsable values become nil signals, never zeros.
func Extract(c contract.Contract, table dataset.Table, pol policy.Policy) (signal.Set, error) {
	pmName := c.PrimaryMetric.Name
	if pmName == "" {
		pmName = pol.PrimaryMetric.Name
	}
	if pmName == "" {
		return signal.Set{}, core.ErrNoPrimaryMetric
	}

	test := table.OverallTest()
	control := table.OverallControl()

	var effect, pval *float64
	if test != nil {
		m := test.Measurement(pmName)
		effect = m.EffectRelative
		pval = m.PValue
	}
	var upliftPct *float64
	if effect != nil {
		v := *effect * 100
		upliftPct = &v
	}

	alpha := pol.Significance.Alpha
	if c.Stats.Alpha != nil {
		alpha = *c.Stats.Alpha
	}
	if alpha == 0 {
		alpha = defaultAlpha
	}
	isSig := pval != nil && *pval <= alpha

	s := signal.Set{
		PrimaryMetric:  pmName,
		EffectRelative: effect,
		UpliftPct:      upliftPct,
		PValue:         pval,
		Alpha:          alpha,
		IsSignificant:  isSig,
	}

	s.Guardrails = extractGuardrails(c, pol, control, test)
	s.SegmentConflict = detectSegmentConflict(c, table, pol, pmName, alpha)
	s.HasSegmentData = len(c.Segments) >= 2

	if pol.LongTerm.Enabled {
		notes := strings.ToLower(c.Notes)
		for _, kw := range reversalKeywords {
			if strings.Contains(notes, kw) {
				s.LongTermReversal = true
				break
			}
		}
	}
	s.HasLongTermData = s.LongTermReversal

	return s, nil
}

// extractGuardrails evaluates policy guardrails first, then contract-declared
// guardrails not already covered by policy. Precomputed effect columns win
// over raw derivation when both are available.
func extractGuardrails(c contract.Contract, pol policy.Policy, control, test *dataset.Row) []signal.GuardrailSignal {
	out := make([]signal.GuardrailSignal, 0, len(pol.Guardrails)+len(c.Guardrails))
	covered := make(map[string]bool, len(pol.Guardrails))

	for _, pg := range pol.Guardrails {
		covered[pg.Metric] = true
		delta := guardrailDeltaPct(control, test, pg.Metric)
		violated := delta != nil && *delta <= pg.ThresholdPct
		out = append(out, signal.GuardrailSignal{
			Metric:       pg.Metric,
			DeltaPct:     delta,
			ThresholdPct: pg.ThresholdPct,
			Severity:     string(pg.Severity),
			Violated:     violated,
		})
	}

	for _, g := range c.Guardrails {
		if covered[g.Name] {
			continue
		}
		delta := guardrailDeltaPct(control, test, g.Name)
		gs := signal.GuardrailSignal{
			Metric:   g.Name,
			DeltaPct: delta,
			Severity: string(policy.SeverityHard),
		}
		if delta != nil {
			eff := *delta / 100
			switch g.Direction {
			case contract.DirectionDown:
				if g.MaxRiseRelative != nil {
					gs.ThresholdPct = *g.MaxRiseRelative * 100
					gs.Violated = eff > 0 && eff > *g.MaxRiseRelative
				}
			default: // up and neutral guard against drops
				if g.MaxDropRelative != nil {
					gs.ThresholdPct = -*g.MaxDropRelative * 100
					gs.Violated = eff < 0 && -eff > *g.MaxDropRelative
				}
			}
		}
		out = append(out, gs)
	}

	return out
}

// guardrailDeltaPct prefers the precomputed effect column and falls back to
// deriving from raw control/test values. The precomputed value is treated as
// authoritative even when a raw derivation would disagree.
func guardrailDeltaPct(control, test *dataset.Row, metric string) *float64 {
	var eff *float64
	if test != nil {
		eff = test.Measurement(metric).EffectRelative
	}
	if eff == nil {
		eff = dataset.DeriveEffect(control, test, metric)
	}
	if eff == nil {
		return nil
	}
	v := *eff * 100
	return &v
}

// detectSegmentConflict requires genuine directional disagreement under
// significance: at least one significant positive and one significant
// negative segment, with an effect spread at or above the policy gap. A wide
// but all-positive spread is not a conflict.
func detectSegmentConflict(c contract.Contract, table dataset.Table, pol policy.Policy, pmName string, alpha float64) bool {
	if len(c.Segments) < 2 || !pol.Segments.Enabled {
		return false
	}

	type segUplift struct {
		upliftPct float64
		pval      float64
	}
	var uplifts []segUplift
	for _, seg := range c.Segments {
		st := table.SegmentTest(seg)
		if st == nil {
			continue
		}
		m := st.Measurement(pmName)
		if !m.IsUsable() {
			continue
		}
		uplifts = append(uplifts, segUplift{upliftPct: *m.EffectRelative * 100, pval: *m.PValue})
	}
	if len(uplifts) < 2 {
		return false
	}

	minU, maxU := uplifts[0].upliftPct, uplifts[0].upliftPct
	hasSigPos, hasSigNeg := false, false
	for _, u := range uplifts {
		if u.upliftPct < minU {
			minU = u.upliftPct
		}
		if u.upliftPct > maxU {
			maxU = u.upliftPct
		}
		if u.upliftPct > 0 && u.pval < alpha {
			hasSigPos = true
		}
		if u.upliftPct < 0 && u.pval < alpha {
			hasSigNeg = true
		}
	}

	return maxU-minU >= pol.Segments.MinAbsPctGapForConflict && hasSigPos && hasSigNeg
}
