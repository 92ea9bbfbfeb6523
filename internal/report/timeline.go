package report

import (
	"fmt"
	"strings"

	"abfactory/internal/trace"
)

// Timeline renders timeline.md from a run's trace events, grouped by stage
// with durations measured between each stage's first and last event.
func Timeline(events []trace.Event) string {
	var b strings.Builder
	b.WriteString("## Run Timeline\n\n")
	if len(events) == 0 {
		b.WriteString("No trace events recorded.\n")
		return b.String()
	}

	type stageSpan struct {
		name  string
		first trace.Event
		last  trace.Event
		count int
	}
	var stages []*stageSpan
	byStage := make(map[string]*stageSpan)
	for _, ev := range events {
		span, ok := byStage[ev.Stage]
		if !ok {
			span = &stageSpan{name: ev.Stage, first: ev}
			byStage[ev.Stage] = span
			stages = append(stages, span)
		}
		span.last = ev
		span.count++
	}

	b.WriteString("| Stage | Events | Duration | Outcome |\n|---|---|---|---|\n")
	for _, span := range stages {
		duration := missingCell
		start := trace.ParseTS(span.first.TS)
		end := trace.ParseTS(span.last.TS)
		if !start.IsZero() && !end.IsZero() {
			duration = fmt.Sprintf("%dms", end.Sub(start).Milliseconds())
		}
		outcome := span.last.Event
		if span.last.Severity != "info" && span.last.Severity != "" {
			outcome = fmt.Sprintf("%s (%s)", outcome, span.last.Severity)
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", span.name, span.count, duration, outcome)
	}

	b.WriteString("\n### Events\n\n")
	for _, ev := range events {
		line := fmt.Sprintf("- `%s` %s/%s %s", ev.TS, ev.Stage, ev.Step, ev.Event)
		if ev.Message != "" {
			line += ": " + ev.Message
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
