package report

import (
	"fmt"
	"strings"

	"abfactory/domain/contract"
	"abfactory/domain/dataset"
)

// vizMetrics are the raw columns worth comparing across variants
var vizMetrics = []string{"revenue", "cpm", "fillrate", "ctr", "shows"}

// SegmentComparison renders a per-segment control vs test table for each raw
// metric, with the derived relative delta.
func SegmentComparison(c contract.Contract, table dataset.Table) string {
	var b strings.Builder
	b.WriteString("## Segment Comparison\n\n")

	segments := table.Segments()
	if len(segments) == 0 {
		b.WriteString("No data rows to compare.\n")
		return b.String()
	}

	for _, metric := range vizMetrics {
		if !anyValue(table, metric) {
			continue
		}
		heading := metric
		if metric == c.PrimaryMetric.Name {
			heading += " (primary)"
		}
		fmt.Fprintf(&b, "### %s\n\n", heading)
		b.WriteString("| Segment | Control | Test | Delta |\n|---|---|---|---|\n")
		for _, seg := range segments {
			control := table.SegmentControl(seg)
			test := table.SegmentTest(seg)
			var cv, tv *float64
			if control != nil {
				cv = control.Value(metric)
			}
			if test != nil {
				tv = test.Value(metric)
			}
			delta := dataset.DeriveEffect(control, test, metric)
			deltaCell := missingCell
			if delta != nil {
				deltaCell = fmt.Sprintf("%+.2f%%", *delta*100)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", seg, fmtPtr(cv), fmtPtr(tv), deltaCell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func anyValue(table dataset.Table, metric string) bool {
	for _, r := range table.Rows {
		if r.Value(metric) != nil {
			return true
		}
	}
	return false
}
