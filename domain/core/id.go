package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	CaseID   ID
	RunID    ID
	PolicyID ID
)

// String conversions for domain IDs
func (id CaseID) String() string   { return ID(id).String() }
func (id RunID) String() string    { return ID(id).String() }
func (id PolicyID) String() string { return ID(id).String() }

// NewRunID creates a run identifier of the form 20060102_150405_<suffix>.
// The timestamp prefix keeps runs sortable on disk; the uuid suffix keeps
// concurrent runs within one second distinct.
func NewRunID(now time.Time) RunID {
	suffix := uuid.New().String()[:8]
	return RunID(fmt.Sprintf("%s_%s", now.UTC().Format("20060102_150405"), suffix))
}

// ParseCaseID parses a string into CaseID
func ParseCaseID(s string) (CaseID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("case ID cannot be empty")
	}
	return CaseID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}
