// Package casegen produces synthetic labeled experiment cases: a contract,
// a metric table, and the expected decision. Generation is deterministic for
// a given seed so a corpus can be reproduced exactly.
package casegen

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"abfactory/domain/contract"
	"abfactory/domain/core"
)

// DefaultSeed reproduces the reference corpus
const DefaultSeed = 42

var header = []string{
	"case_id", "segment", "variant", "n_users", "revenue", "cpm",
	"fillrate", "ctr", "shows",
	"revenue_effect_relative", "revenue_p_value",
	"ctr_effect_relative", "ctr_p_value",
}

var titles = []string{
	"Bid floor optimization",
	"New rewarded ad placement",
	"Refreshed creative rotation",
	"Header bidding rollout",
	"Frequency cap tuning",
	"Native ad format test",
	"Revamped waterfall ordering",
	"Latency-optimized ad loader",
}

type archetype struct {
	slug   string
	weight float64
	build  func(g *Generator, caseID string) builtCase
}

// Archetype mix: mostly clean ships, the rest split across the failure modes
var archetypes = []archetype{
	{"clean_uplift", 0.30, (*Generator).cleanUplift},
	{"guardrail_breach", 0.20, (*Generator).guardrailBreach},
	{"practically_small", 0.20, (*Generator).practicallySmall},
	{"segment_conflict", 0.15, (*Generator).segmentConflict},
	{"long_term_reversal", 0.15, (*Generator).longTermReversal},
}

type builtCase struct {
	contract contract.Contract
	rows     [][]string
	truth    contract.Truth
}

// Generator draws cases from a seeded source
type Generator struct {
	rng    *rand.Rand
	normal distuv.Normal
}

func New(seed uint64) *Generator {
	src := rand.NewPCG(seed, seed)
	return &Generator{
		rng:    rand.New(src),
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// Generate writes n cases under outDir and returns their directory names
func (g *Generator) Generate(outDir string, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("case count must be positive, got %d", n)
	}
	var dirs []string
	for i := 1; i <= n; i++ {
		arch := g.pickArchetype()
		caseID := fmt.Sprintf("case_%03d", i)
		built := arch.build(g, caseID)

		dir := filepath.Join(outDir, fmt.Sprintf("%s_%s", caseID, arch.slug))
		if err := writeCase(dir, built); err != nil {
			return nil, fmt.Errorf("write %s: %w", caseID, err)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

func (g *Generator) pickArchetype() archetype {
	r := g.rng.Float64()
	cumulative := 0.0
	for _, a := range archetypes {
		cumulative += a.weight
		if r < cumulative {
			return a
		}
	}
	return archetypes[len(archetypes)-1]
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// jitter draws a small multiplicative factor around 1
func (g *Generator) jitter(sigma float64) float64 {
	return 1 + g.normal.Rand()*sigma
}

// baseline holds the control-side raw metrics for one segment
type baseline struct {
	nUsers   float64
	revenue  float64
	cpm      float64
	fillrate float64
	ctr      float64
	shows    float64
}

func (g *Generator) baseline() baseline {
	nUsers := float64(g.rng.IntN(600_000) + 200_000)
	return baseline{
		nUsers:   nUsers,
		revenue:  nUsers * g.uniform(3.5, 4.5),
		cpm:      120 * g.jitter(0.08),
		fillrate: g.uniform(0.78, 0.90),
		ctr:      g.uniform(0.040, 0.060),
		shows:    nUsers * g.uniform(18, 22),
	}
}

// effects are the relative deltas and p-values applied to one test row
type effects struct {
	revenue  float64
	revenueP float64
	ctr      float64
	ctrP     float64
}

func controlRow(caseID, segment string, b baseline) []string {
	return []string{
		caseID, segment, "control",
		num(b.nUsers), num(b.revenue), num(b.cpm), num(b.fillrate), num(b.ctr), num(b.shows),
		"", "", "", "",
	}
}

func (g *Generator) testRow(caseID, segment string, b baseline, e effects) []string {
	return []string{
		caseID, segment, "test",
		num(b.nUsers * g.jitter(0.005)),
		num(b.revenue * (1 + e.revenue)),
		num(b.cpm * g.jitter(0.01)),
		num(b.fillrate * g.jitter(0.005)),
		num(b.ctr * (1 + e.ctr)),
		num(b.shows * g.jitter(0.005)),
		num(e.revenue), num(e.revenueP), num(e.ctr), num(e.ctrP),
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func (g *Generator) baseContract(caseID, title, notes string) contract.Contract {
	alpha := 0.05
	maxDrop := 0.03
	practical := 0.005
	return contract.Contract{
		CaseID:   core.CaseID(caseID),
		Title:    title,
		Domain:   "ads_monetization",
		Unit:     "user",
		Variants: []string{"control", "test"},
		Time:     contract.TimeWindow{StartDate: "2025-03-01", EndDate: "2025-03-15", HorizonDays: 14},
		PrimaryMetric: contract.PrimaryMetric{
			Name: "revenue", Direction: contract.DirectionUp, MDERelative: 0.01,
		},
		Guardrails: []contract.Guardrail{
			{Name: "ctr", Direction: contract.DirectionUp, MaxDropRelative: &maxDrop},
		},
		Stats: contract.StatsConfig{Method: "delta", Alpha: &alpha, PowerTarget: 0.8},
		DecisionFramework: contract.DecisionFramework{
			Rule:                       "ship_if_primary_sig_and_guardrails_ok",
			PracticalThresholdRelative: &practical,
		},
		Notes: notes,
	}
}

func (g *Generator) title() string {
	return titles[g.rng.IntN(len(titles))]
}

func writeCase(dir string, built builtCase) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "contract.json"), built.contract); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "truth.json"), built.truth); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "data.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(built.rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
