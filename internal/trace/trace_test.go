package trace

import (
	"os"
	"path/filepath"
	"testing"

	"abfactory/domain/core"
)

func TestEmitAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	em := NewEmitter(path, core.RunID("run_1"), core.CaseID("case_001"))

	if err := em.Emit("load", "case", "done", "loaded 2 rows", nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := em.EmitSeverity("checks", "sanity", "done", "warn", "", map[string]interface{}{"all_pass": false}); err != nil {
		t.Fatalf("EmitSeverity: %v", err)
	}

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Severity != "info" {
		t.Errorf("default severity = %s, want info", events[0].Severity)
	}
	if events[1].Severity != "warn" {
		t.Errorf("severity = %s, want warn", events[1].Severity)
	}
	if events[1].Payload["all_pass"] != false {
		t.Errorf("payload lost: %+v", events[1].Payload)
	}
	if events[0].RunID != "run_1" || events[0].CaseID != "case_001" {
		t.Errorf("identity fields lost: %+v", events[0])
	}
}

func TestReadEventsSkipsDamagedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	em := NewEmitter(path, core.RunID("run_1"), core.CaseID("case_001"))
	if err := em.Emit("load", "case", "done", "", nil); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("not json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}

func TestParseTS(t *testing.T) {
	ts := ParseTS("2025-03-01T12:00:00.250000Z")
	if ts.IsZero() {
		t.Fatal("failed to parse valid timestamp")
	}
	if ParseTS("garbage").IsZero() != true {
		t.Error("invalid timestamp should parse to zero time")
	}
}
