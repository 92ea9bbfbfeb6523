package core

import (
	"strings"
	"testing"
	"time"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestNewRunID tests the sortable run identifier format
func TestNewRunID(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC)
	id := NewRunID(now)

	if !strings.HasPrefix(string(id), "20250301_123045_") {
		t.Errorf("Expected timestamp prefix, got %s", id)
	}
	if len(string(id)) != len("20250301_123045_")+8 {
		t.Errorf("Expected 8-char suffix, got %s", id)
	}

	other := NewRunID(now)
	if id == other {
		t.Errorf("Expected distinct run IDs within one second, got %s twice", id)
	}
}

// TestParseCaseID tests case ID parsing
func TestParseCaseID(t *testing.T) {
	tests := []struct {
		input    string
		expected CaseID
		hasError bool
	}{
		{"case_001", CaseID("case_001"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCaseID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseCaseID(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCaseID(%q): unexpected error %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseCaseID(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}

// TestTimestampUTCString tests the trace timestamp format
func TestTimestampUTCString(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 3, 1, 12, 0, 0, 250000000, time.UTC))
	if got := ts.UTCString(); got != "2025-03-01T12:00:00.250000Z" {
		t.Errorf("UTCString() = %s", got)
	}
}
