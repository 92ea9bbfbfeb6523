// Package trace appends structured JSONL events for one run. Every pipeline
// stage emits start/done events here; the timeline renderer reads them back.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"abfactory/domain/core"
)

// Event is one structured trace record
type Event struct {
	RunID    core.RunID             `json:"run_id"`
	TS       string                 `json:"ts"`
	CaseID   core.CaseID            `json:"case_id"`
	Stage    string                 `json:"stage"`
	Step     string                 `json:"step"`
	Event    string                 `json:"event"`
	Severity string                 `json:"severity"`
	Message  string                 `json:"message"`
	Payload  map[string]interface{} `json:"payload"`
}

// Emitter appends events to one trace file
type Emitter struct {
	path   string
	runID  core.RunID
	caseID core.CaseID
}

// NewEmitter creates an emitter for one (run, case) pair
func NewEmitter(path string, runID core.RunID, caseID core.CaseID) *Emitter {
	return &Emitter{path: path, runID: runID, caseID: caseID}
}

// Emit appends one event. Severity defaults to "info"; payload may be nil.
func (e *Emitter) Emit(stage, step, event, message string, payload map[string]interface{}) error {
	return e.EmitSeverity(stage, step, event, "info", message, payload)
}

// EmitSeverity appends one event with an explicit severity
func (e *Emitter) EmitSeverity(stage, step, event, severity, message string, payload map[string]interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	rec := Event{
		RunID:    e.runID,
		TS:       core.Now().UTCString(),
		CaseID:   e.caseID,
		Stage:    stage,
		Step:     step,
		Event:    event,
		Severity: severity,
		Message:  message,
		Payload:  payload,
	}
	return appendJSONL(e.path, rec)
}

func appendJSONL(path string, rec Event) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal trace event: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append trace event: %w", err)
	}
	return nil
}

// ReadEvents loads every parsable event from a trace file, sorted by
// timestamp. Unparsable lines are skipped, not fatal.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace file: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].TS < events[j].TS })
	return events, nil
}

// ParseTS parses an event timestamp; the zero time on failure
func ParseTS(ts string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05.000000Z", ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
