package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"abfactory/domain/core"
	"abfactory/domain/verdict"
	"abfactory/internal"
	apperrors "abfactory/internal/errors"
	"abfactory/ports"
)

// CaseOverview is one row of the corpus summary
type CaseOverview struct {
	CaseID           core.CaseID
	Dir              string
	Title            string
	PrimaryMetric    string
	Segments         int
	Rows             int
	ExpectedDecision verdict.Outcome
	ExpectedEffect   float64
	Labeled          bool
}

// SummaryService describes a case corpus without evaluating it
type SummaryService struct {
	repo ports.CaseRepository
	log  *internal.Logger
}

func NewSummaryService(repo ports.CaseRepository, log *internal.Logger) *SummaryService {
	return &SummaryService{repo: repo, log: log.Named("summary")}
}

func (s *SummaryService) Overview(ctx context.Context) ([]CaseOverview, error) {
	dirs, err := s.repo.DiscoverCases(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "discover cases")
	}

	out := make([]CaseOverview, 0, len(dirs))
	for _, dir := range dirs {
		bundle, err := s.repo.LoadCase(ctx, dir)
		if err != nil {
			return nil, apperrors.Wrapf(err, "load case %s", dir)
		}
		ov := CaseOverview{
			CaseID:        bundle.Contract.CaseID,
			Dir:           filepath.Base(dir),
			Title:         bundle.Contract.Title,
			PrimaryMetric: bundle.Contract.PrimaryMetric.Name,
			Segments:      len(bundle.Contract.Segments),
			Rows:          len(bundle.Table.Rows),
		}
		if bundle.Truth != nil {
			ov.Labeled = true
			ov.ExpectedDecision = bundle.Truth.ExpectedDecision
			ov.ExpectedEffect = bundle.Truth.PrimaryEffectRelative
		}
		out = append(out, ov)
	}
	return out, nil
}

// Render formats the overview as markdown
func (s *SummaryService) Render(overviews []CaseOverview) string {
	var b strings.Builder
	b.WriteString("## Case Corpus\n\n")
	fmt.Fprintf(&b, "%d cases.\n\n", len(overviews))

	counts := make(map[verdict.Outcome]int)
	labeled := 0
	for _, ov := range overviews {
		if ov.Labeled {
			labeled++
			counts[ov.ExpectedDecision]++
		}
	}
	if labeled > 0 {
		b.WriteString("Expected decisions:")
		for _, outcome := range []verdict.Outcome{verdict.OutcomeShip, verdict.OutcomeDoNotShip, verdict.OutcomeInvestigate} {
			fmt.Fprintf(&b, " %s=%d", outcome, counts[outcome])
		}
		b.WriteString("\n\n")
	}
	b.WriteString("| Case | Title | Primary | Rows | Expected |\n|---|---|---|---|---|\n")
	for _, ov := range overviews {
		expected := "unlabeled"
		if ov.Labeled {
			expected = string(ov.ExpectedDecision)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
			ov.CaseID, ov.Title, ov.PrimaryMetric, ov.Rows, expected)
	}
	return b.String()
}

var xlsxColumns = []string{
	"case_id", "directory", "title", "primary_metric", "segments",
	"rows", "labeled", "expected_decision", "expected_effect_relative",
}

// ExportXLSX writes the overview as a spreadsheet for offline review
func (s *SummaryService) ExportXLSX(overviews []CaseOverview, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Cases"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return apperrors.Wrap(err, "rename sheet")
	}
	for i, col := range xlsxColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return apperrors.Wrap(err, "header cell name")
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return apperrors.Wrap(err, "write header")
		}
	}

	for row, ov := range overviews {
		values := []interface{}{
			string(ov.CaseID), ov.Dir, ov.Title, ov.PrimaryMetric, ov.Segments,
			ov.Rows, ov.Labeled, string(ov.ExpectedDecision), ov.ExpectedEffect,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return apperrors.Wrap(err, "cell name")
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return apperrors.Wrapf(err, "write row %d", row+2)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.Wrapf(err, "save %s", path)
	}
	s.log.Info("exported %d cases to %s", len(overviews), path)
	return nil
}
