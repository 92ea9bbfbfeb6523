// Package report renders the per-run markdown artifacts: the case summary,
// the sanity check table, the decision report, the segment comparison, and
// the run timeline. Every renderer is a pure function over already-computed
// results so the artifacts can be rebuilt from a run directory at any time.
package report

import (
	"fmt"
	"strings"
)

const missingCell = "n/a"

func fmtFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

func fmtPtr(v *float64) string {
	if v == nil {
		return missingCell
	}
	return fmtFloat(*v)
}

func fmtPctPtr(v *float64) string {
	if v == nil {
		return missingCell
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

// FinalReport joins rendered sections into final_report.md, the decision
// first, separated by horizontal rules.
func FinalReport(sections ...string) string {
	var kept []string
	for _, s := range sections {
		s = strings.TrimSpace(s)
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n---\n\n") + "\n"
}
