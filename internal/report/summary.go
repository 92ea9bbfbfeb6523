package report

import (
	"fmt"
	"strings"

	"abfactory/domain/contract"
	"abfactory/domain/dataset"
	"abfactory/internal/checks"
)

// CaseSummary renders what was tested: the contract's framing plus the shape
// of the data table.
func CaseSummary(c contract.Contract, table dataset.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Case Summary: %s\n\n", c.CaseID)
	if c.Title != "" {
		fmt.Fprintf(&b, "**%s**\n\n", c.Title)
	}
	fmt.Fprintf(&b, "- Domain: %s\n", c.Domain)
	fmt.Fprintf(&b, "- Unit: %s\n", c.Unit)
	fmt.Fprintf(&b, "- Variants: %s\n", strings.Join(c.Variants, ", "))
	if c.Time.StartDate != "" {
		fmt.Fprintf(&b, "- Window: %s to %s (%d day horizon)\n", c.Time.StartDate, c.Time.EndDate, c.Time.HorizonDays)
	}
	fmt.Fprintf(&b, "- Primary metric: %s (direction %s, MDE %s)\n",
		c.PrimaryMetric.Name, c.PrimaryMetric.Direction, fmtFloat(c.PrimaryMetric.MDERelative))

	if len(c.Guardrails) > 0 {
		b.WriteString("- Guardrails:")
		for _, g := range c.Guardrails {
			bound := ""
			switch {
			case g.MaxDropRelative != nil:
				bound = fmt.Sprintf("max drop %s", fmtFloat(*g.MaxDropRelative))
			case g.MaxRiseRelative != nil:
				bound = fmt.Sprintf("max rise %s", fmtFloat(*g.MaxRiseRelative))
			}
			fmt.Fprintf(&b, " %s (%s);", g.Name, bound)
		}
		b.WriteString("\n")
	}
	if len(c.Segments) > 0 {
		fmt.Fprintf(&b, "- Segments: %s\n", strings.Join(c.Segments, ", "))
	}
	fmt.Fprintf(&b, "- Data rows: %d\n", len(table.Rows))
	if c.Notes != "" {
		fmt.Fprintf(&b, "\n> %s\n", c.Notes)
	}
	return b.String()
}

// ChecksReport renders the sanity check outcomes and column summaries
func ChecksReport(res checks.Result) string {
	var b strings.Builder
	b.WriteString("## Data Sanity Checks\n\n")
	b.WriteString("| Check | Result | Detail |\n|---|---|---|\n")
	for _, ch := range res.Checks {
		status := "PASS"
		if !ch.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", ch.Name, status, ch.Detail)
	}
	if !res.AllPass {
		b.WriteString("\n**Some checks failed; treat affected cells as missing evidence.**\n")
	}

	if len(res.Columns) > 0 {
		b.WriteString("\n### Column Summaries\n\n")
		b.WriteString("| Metric | Count | Mean | StdDev | Min | Max |\n|---|---|---|---|---|---|\n")
		for _, col := range res.Columns {
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s |\n",
				col.Metric, col.Count, fmtFloat(col.Mean), fmtFloat(col.StdDev),
				fmtFloat(col.Min), fmtFloat(col.Max))
		}
	}
	return b.String()
}
