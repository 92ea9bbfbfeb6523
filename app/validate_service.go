package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"abfactory/domain/dataset"
	"abfactory/internal"
	apperrors "abfactory/internal/errors"
	"abfactory/ports"
)

// ValidationIssue is one structural problem found in a case directory
type ValidationIssue struct {
	Dir    string
	Detail string
}

// ValidationResult reports corpus-wide structural validation
type ValidationResult struct {
	Cases  int
	Issues []ValidationIssue
}

func (r ValidationResult) OK() bool {
	return len(r.Issues) == 0
}

// Render formats the validation outcome as plain text
func (r ValidationResult) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validated %d cases: ", r.Cases)
	if r.OK() {
		b.WriteString("all OK\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d issues\n", len(r.Issues))
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "  %s: %s\n", issue.Dir, issue.Detail)
	}
	return b.String()
}

// ValidateService checks that every case directory is structurally usable
// before any evaluation is attempted.
type ValidateService struct {
	repo ports.CaseRepository
	log  *internal.Logger
}

func NewValidateService(repo ports.CaseRepository, log *internal.Logger) *ValidateService {
	return &ValidateService{repo: repo, log: log.Named("validate")}
}

func (s *ValidateService) Validate(ctx context.Context) (*ValidationResult, error) {
	dirs, err := s.repo.DiscoverCases(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "discover cases")
	}

	res := &ValidationResult{Cases: len(dirs)}
	for _, dir := range dirs {
		name := filepath.Base(dir)
		bundle, err := s.repo.LoadCase(ctx, dir)
		if err != nil {
			res.Issues = append(res.Issues, ValidationIssue{Dir: name, Detail: err.Error()})
			continue
		}
		for _, issue := range validateBundle(bundle) {
			res.Issues = append(res.Issues, ValidationIssue{Dir: name, Detail: issue})
		}
	}
	if !res.OK() {
		s.log.Warn("corpus validation found %d issues", len(res.Issues))
	}
	return res, nil
}

func validateBundle(bundle *ports.CaseBundle) []string {
	var issues []string

	present := make(map[string]bool, len(bundle.Headers))
	for _, h := range bundle.Headers {
		present[h] = true
	}
	for _, col := range dataset.RequiredColumns {
		if !present[col] {
			issues = append(issues, fmt.Sprintf("data.csv missing column %q", col))
		}
	}

	if bundle.Table.OverallControl() == nil {
		issues = append(issues, "no overall control row")
	}
	if bundle.Table.OverallTest() == nil {
		issues = append(issues, "no overall test row")
	}
	for _, r := range bundle.Table.Rows {
		if r.CaseID != "" && r.CaseID != bundle.Contract.CaseID {
			issues = append(issues, fmt.Sprintf("row case_id %q does not match contract %q", r.CaseID, bundle.Contract.CaseID))
			break
		}
	}

	if bundle.Truth != nil {
		if bundle.Truth.CaseID != bundle.Contract.CaseID {
			issues = append(issues, "truth.json case_id does not match contract")
		}
		if !bundle.Truth.ExpectedDecision.IsValid() {
			issues = append(issues, fmt.Sprintf("truth.json expected_decision %q is not a known outcome", bundle.Truth.ExpectedDecision))
		}
	}
	return issues
}
