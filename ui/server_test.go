package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"abfactory/adapters/runindex"
	"abfactory/domain/core"
	"abfactory/domain/verdict"
	"abfactory/internal"
	"abfactory/ports"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	runsDir := t.TempDir()
	idx := runindex.NewJSONLIndex(runsDir)
	rec := ports.RunRecord{
		RunID:      core.RunID("20250301_120000_abcd1234"),
		CaseID:     core.CaseID("case_001"),
		Decision:   verdict.OutcomeShip,
		Confidence: 0.8808,
		Timestamp:  "2025-03-01T12:00:00.000000Z",
	}
	if err := idx.Append(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	runDir := filepath.Join(runsDir, string(rec.RunID))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatal(err)
	}
	report := "## Decision: SHIP\n\n| Factor | Weight |\n|---|---|\n| primary_uplift_strong | +1.20 |\n"
	if err := os.WriteFile(filepath.Join(runDir, "final_report.md"), []byte(report), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "decision.json"), []byte(`{"decision":"ship"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	return NewServer(idx, runsDir, internal.NewLogger(internal.LogLevelError)), string(rec.RunID)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestIndexListsRuns(t *testing.T) {
	srv, runID := newTestServer(t)
	w := get(t, srv, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, runID) || !strings.Contains(body, "case_001") {
		t.Errorf("index missing run row:\n%s", body)
	}
}

func TestRunReportRendersMarkdown(t *testing.T) {
	srv, runID := newTestServer(t)
	w := get(t, srv, "/runs/"+runID)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<h2") || !strings.Contains(body, "Decision: SHIP") {
		t.Errorf("markdown not rendered to HTML:\n%s", body)
	}
	if !strings.Contains(body, "<table>") {
		t.Errorf("table extension not applied:\n%s", body)
	}
}

func TestRunDecisionJSON(t *testing.T) {
	srv, runID := newTestServer(t)
	w := get(t, srv, "/runs/"+runID+"/decision.json")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ship"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestUnknownRunIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	if w := get(t, srv, "/runs/20990101_000000_ffffffff"); w.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", w.Code)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv, "/runs/..%2F..%2Fetc")
	if w.Code == http.StatusOK {
		t.Errorf("escaped path served: %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	if w := get(t, srv, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("status %d", w.Code)
	}
}
