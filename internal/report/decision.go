package report

import (
	"fmt"
	"sort"
	"strings"

	"abfactory/domain/contract"
	"abfactory/domain/policy"
	"abfactory/domain/verdict"
	"abfactory/internal/engine"
)

// DecisionReport renders decision.md: the verdict, its ordered reasons, the
// key signals behind it, and the full confidence explanation.
func DecisionReport(d verdict.Decision, c contract.Contract, pol policy.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Decision: %s\n\n", strings.ToUpper(string(d.Decision)))
	fmt.Fprintf(&b, "- Case: %s\n", d.CaseID)
	fmt.Fprintf(&b, "- Confidence: %.4f\n", d.Confidence)
	fmt.Fprintf(&b, "- Policy: %s %s\n\n", d.Policy.PolicyID, d.Policy.PolicyVersion)

	b.WriteString("### Reasons\n\n")
	for i, r := range d.Reasons {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	b.WriteString("\n### Key Signals\n\n")
	fmt.Fprintf(&b, "- Primary metric: %s\n", d.Signals.PrimaryMetric)
	fmt.Fprintf(&b, "- Uplift: %s (practical threshold %.2f%%)\n",
		fmtPctPtr(d.Signals.PrimaryUpliftPct), engine.EffectivePracticalThresholdPct(c, pol))
	fmt.Fprintf(&b, "- p-value: %s (alpha %s), significant: %t\n",
		fmtPtr(d.Signals.PValue), fmtFloat(d.Signals.Alpha), d.Signals.IsSignificant)

	if len(d.Signals.Guardrails) > 0 {
		metrics := make([]string, 0, len(d.Signals.Guardrails))
		for m := range d.Signals.Guardrails {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		b.WriteString("- Guardrail deltas:")
		for _, m := range metrics {
			fmt.Fprintf(&b, " %s %s;", m, fmtPctPtr(d.Signals.Guardrails[m]))
		}
		b.WriteString("\n")
	}
	if d.Signals.SegmentConflict {
		b.WriteString("- Segment conflict detected\n")
	}
	if d.Signals.LongTermReversal {
		b.WriteString("- Long-term reversal flagged\n")
	}

	if len(d.Segments) > 0 {
		b.WriteString("\n### Segments\n\n")
		b.WriteString("| Segment | Effect | p-value | Significant |\n|---|---|---|---|\n")
		segs := make([]string, 0, len(d.Segments))
		for s := range d.Segments {
			segs = append(segs, s)
		}
		sort.Strings(segs)
		for _, s := range segs {
			sum := d.Segments[s]
			fmt.Fprintf(&b, "| %s | %s | %s | %t |\n",
				s, fmtPtr(sum.Effect), fmtPtr(sum.PValue), sum.Significant)
		}
	}

	b.WriteString("\n### Confidence\n\n")
	fmt.Fprintf(&b, "Raw score %s squashed to %.4f.\n\n", fmtFloat(d.Explain.Score), d.Confidence)
	if len(d.Explain.Factors) > 0 {
		b.WriteString("| Factor | Weight |\n|---|---|\n")
		for _, f := range d.Explain.Factors {
			fmt.Fprintf(&b, "| %s | %+.2f |\n", f.Name, f.Weight)
		}
	}
	if len(d.Explain.MissingEvidence) > 0 {
		fmt.Fprintf(&b, "\nMissing evidence: %s\n", strings.Join(d.Explain.MissingEvidence, ", "))
	}
	return b.String()
}
