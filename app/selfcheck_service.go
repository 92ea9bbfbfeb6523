package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"abfactory/domain/core"
	"abfactory/domain/verdict"
	"abfactory/internal"
	apperrors "abfactory/internal/errors"
	"abfactory/internal/engine"
	"abfactory/ports"
)

// Mismatch records one case whose decision disagrees with its truth label
type Mismatch struct {
	CaseID   core.CaseID
	Dir      string
	Got      verdict.Outcome
	Want     verdict.Outcome
	Reasons  []verdict.ReasonCode
	Expected []verdict.ReasonCode
}

// SelfcheckResult summarizes a labeled-corpus accuracy run
type SelfcheckResult struct {
	Total      int
	Labeled    int
	Matched    int
	Mismatches []Mismatch
}

// Accuracy is the matched fraction over labeled cases; 0 when none
func (r SelfcheckResult) Accuracy() float64 {
	if r.Labeled == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Labeled)
}

// Render formats the self-check outcome as markdown
func (r SelfcheckResult) Render() string {
	var b strings.Builder
	b.WriteString("## Self-Check\n\n")
	fmt.Fprintf(&b, "- Cases: %d (%d labeled)\n", r.Total, r.Labeled)
	fmt.Fprintf(&b, "- Matched: %d (accuracy %.1f%%)\n", r.Matched, r.Accuracy()*100)
	if len(r.Mismatches) > 0 {
		b.WriteString("\n| Case | Got | Want | Reasons |\n|---|---|---|---|\n")
		for _, m := range r.Mismatches {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				m.CaseID, m.Got, m.Want, joinReasons(m.Reasons))
		}
	}
	return b.String()
}

func joinReasons(codes []verdict.ReasonCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// SelfcheckService replays every labeled case through the engine and
// compares decisions against the truth files.
type SelfcheckService struct {
	repo   ports.CaseRepository
	engine *engine.Engine
	log    *internal.Logger
}

func NewSelfcheckService(repo ports.CaseRepository, eng *engine.Engine, log *internal.Logger) *SelfcheckService {
	return &SelfcheckService{repo: repo, engine: eng, log: log.Named("selfcheck")}
}

func (s *SelfcheckService) Check(ctx context.Context) (*SelfcheckResult, error) {
	dirs, err := s.repo.DiscoverCases(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "discover cases")
	}

	res := &SelfcheckResult{Total: len(dirs)}
	for _, dir := range dirs {
		bundle, err := s.repo.LoadCase(ctx, dir)
		if err != nil {
			return nil, apperrors.Wrapf(err, "load case %s", dir)
		}
		if bundle.Truth == nil {
			s.log.Debug("case %s: no truth label, skipping", bundle.Contract.CaseID)
			continue
		}
		res.Labeled++

		decision, err := s.engine.Evaluate(bundle.Contract, bundle.Table)
		if err != nil {
			return nil, apperrors.Wrapf(err, "evaluate case %s", bundle.Contract.CaseID)
		}
		if decision.Decision == bundle.Truth.ExpectedDecision {
			res.Matched++
			continue
		}
		s.log.Warn("case %s: decided %s, expected %s",
			bundle.Contract.CaseID, decision.Decision, bundle.Truth.ExpectedDecision)
		res.Mismatches = append(res.Mismatches, Mismatch{
			CaseID:   bundle.Contract.CaseID,
			Dir:      filepath.Base(dir),
			Got:      decision.Decision,
			Want:     bundle.Truth.ExpectedDecision,
			Reasons:  decision.Reasons,
			Expected: bundle.Truth.KeyReasons,
		})
	}
	return res, nil
}
