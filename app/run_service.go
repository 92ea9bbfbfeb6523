// Package app wires the decision pipeline end to end: loading cases, running
// sanity checks, evaluating, and writing the run artifacts.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"abfactory/domain/core"
	"abfactory/domain/verdict"
	"abfactory/internal"
	apperrors "abfactory/internal/errors"
	"abfactory/internal/checks"
	"abfactory/internal/engine"
	"abfactory/internal/report"
	"abfactory/internal/trace"
	"abfactory/ports"
)

// maxConcurrentCases bounds parallel case evaluations in RunAll
const maxConcurrentCases = 4

// RunResult is the outcome of evaluating one case
type RunResult struct {
	RunID      core.RunID
	CaseID     core.CaseID
	Dir        string
	Decision   verdict.Decision
	Checks     checks.Result
	DurationMs int64
}

// RunService executes the full pipeline for one or many cases
type RunService struct {
	repo     ports.CaseRepository
	index    ports.RunIndex
	engine   *engine.Engine
	runsDir  string
	keepRuns int
	log      *internal.Logger
}

func NewRunService(repo ports.CaseRepository, index ports.RunIndex, eng *engine.Engine, runsDir string, keepRuns int, log *internal.Logger) *RunService {
	return &RunService{
		repo:     repo,
		index:    index,
		engine:   eng,
		runsDir:  runsDir,
		keepRuns: keepRuns,
		log:      log.Named("run"),
	}
}

// RunCase evaluates one case directory and writes its run artifacts:
// decision.json, final_report.md, timeline.md, and the trace file.
func (s *RunService) RunCase(ctx context.Context, caseDir string) (*RunResult, error) {
	started := time.Now()
	runID := core.NewRunID(started)
	runDir := filepath.Join(s.runsDir, string(runID))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, "create run directory")
	}

	bundle, err := s.repo.LoadCase(ctx, caseDir)
	if err != nil {
		return nil, apperrors.Wrapf(err, "load case %s", caseDir)
	}
	caseID := bundle.Contract.CaseID
	emitter := trace.NewEmitter(filepath.Join(runDir, "trace.jsonl"), runID, caseID)
	_ = emitter.Emit("load", "case", "done", fmt.Sprintf("loaded %d rows", len(bundle.Table.Rows)), nil)

	checkResult := checks.Run(bundle.Contract, bundle.Headers, bundle.Table)
	severity := "info"
	if !checkResult.AllPass {
		severity = "warn"
		s.log.Warn("case %s: sanity checks failed", caseID)
	}
	_ = emitter.EmitSeverity("checks", "sanity", "done", severity, "", map[string]interface{}{
		"all_pass": checkResult.AllPass,
	})

	_ = emitter.Emit("evaluate", "signals", "start", "", nil)
	decision, err := s.engine.Evaluate(bundle.Contract, bundle.Table)
	if err != nil {
		_ = emitter.EmitSeverity("evaluate", "decision", "failed", "error", err.Error(), nil)
		return nil, apperrors.Wrapf(err, "evaluate case %s", caseID)
	}
	_ = emitter.Emit("evaluate", "decision", "done", string(decision.Decision), map[string]interface{}{
		"confidence": decision.Confidence,
	})

	if err := s.writeArtifacts(runDir, bundle, decision, checkResult); err != nil {
		return nil, err
	}
	_ = emitter.Emit("report", "render", "done", "", nil)

	// Timeline renders last so it covers every stage above
	events, err := trace.ReadEvents(filepath.Join(runDir, "trace.jsonl"))
	if err == nil {
		_ = os.WriteFile(filepath.Join(runDir, "timeline.md"), []byte(report.Timeline(events)), 0o644)
	}

	durationMs := time.Since(started).Milliseconds()
	rec := ports.RunRecord{
		RunID:         runID,
		CaseID:        caseID,
		Decision:      decision.Decision,
		Reasons:       decision.Reasons,
		Confidence:    decision.Confidence,
		PolicyVersion: decision.Policy.PolicyVersion,
		DurationMs:    durationMs,
		Timestamp:     core.Now().UTCString(),
	}
	if err := s.index.Append(ctx, rec); err != nil {
		return nil, apperrors.Wrap(err, "append run index")
	}

	if err := s.pruneRuns(); err != nil {
		s.log.Warn("prune old runs: %v", err)
	}

	s.log.Info("case %s: %s (confidence %.4f, %dms)", caseID, decision.Decision, decision.Confidence, durationMs)
	return &RunResult{
		RunID:      runID,
		CaseID:     caseID,
		Dir:        runDir,
		Decision:   decision,
		Checks:     checkResult,
		DurationMs: durationMs,
	}, nil
}

// RunAll evaluates every discovered case with bounded concurrency and
// returns results in case order. The first failure cancels the rest.
func (s *RunService) RunAll(ctx context.Context) ([]*RunResult, error) {
	dirs, err := s.repo.DiscoverCases(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "discover cases")
	}
	if len(dirs) == 0 {
		return nil, apperrors.New("no_cases", "no case directories found")
	}

	results := make([]*RunResult, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCases)
	for i, dir := range dirs {
		g.Go(func() error {
			res, err := s.RunCase(gctx, dir)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Run resolves a case spec and evaluates it
func (s *RunService) Run(ctx context.Context, caseSpec string) (*RunResult, error) {
	dir, err := s.repo.ResolveCase(ctx, caseSpec)
	if err != nil {
		return nil, err
	}
	return s.RunCase(ctx, dir)
}

func (s *RunService) writeArtifacts(runDir string, bundle *ports.CaseBundle, decision verdict.Decision, checkResult checks.Result) error {
	decisionJSON, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "marshal decision")
	}
	if err := os.WriteFile(filepath.Join(runDir, "decision.json"), append(decisionJSON, '\n'), 0o644); err != nil {
		return apperrors.Wrap(err, "write decision.json")
	}

	pol := s.engine.Policy()
	final := report.FinalReport(
		report.DecisionReport(decision, bundle.Contract, pol),
		report.CaseSummary(bundle.Contract, bundle.Table),
		report.ChecksReport(checkResult),
		report.SegmentComparison(bundle.Contract, bundle.Table),
	)
	if err := os.WriteFile(filepath.Join(runDir, "final_report.md"), []byte(final), 0o644); err != nil {
		return apperrors.Wrap(err, "write final_report.md")
	}
	return nil
}

// pruneRuns keeps only the newest keepRuns run directories. Zero or negative
// keepRuns disables pruning.
func (s *RunService) pruneRuns() error {
	if s.keepRuns <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.runsDir)
	if err != nil {
		return err
	}
	var runDirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if !looksLikeRunDir(e.Name()) {
			continue
		}
		runDirs = append(runDirs, e.Name())
	}
	// Run IDs start with a timestamp, so name order is age order
	sort.Strings(runDirs)
	for len(runDirs) > s.keepRuns {
		victim := runDirs[0]
		runDirs = runDirs[1:]
		if err := os.RemoveAll(filepath.Join(s.runsDir, victim)); err != nil {
			return err
		}
	}
	return nil
}

// looksLikeRunDir matches the 20060102_150405_<suffix> naming of run
// directories so pruning never touches anything else under runs/
func looksLikeRunDir(name string) bool {
	if len(name) < 16 || name[8] != '_' || name[15] != '_' {
		return false
	}
	for i, r := range name[:15] {
		if i == 8 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
