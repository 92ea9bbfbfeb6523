// Package contract defines one experiment's specification: what was tested,
// which metric decides it, and which guardrails bound it.
package contract

import (
	"abfactory/domain/core"
	"abfactory/domain/verdict"
)

// Direction describes which way a metric is supposed to move
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// PrimaryMetric names the deciding metric and its minimum detectable effect
type PrimaryMetric struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	MDERelative float64   `json:"mde_relative"`
}

// Guardrail is a contract-declared guardrail. For up/neutral metrics a
// violation is a drop beyond MaxDropRelative; for down metrics a rise beyond
// MaxRiseRelative.
type Guardrail struct {
	Name            string    `json:"name"`
	Direction       Direction `json:"direction"`
	MaxDropRelative *float64  `json:"max_drop_relative,omitempty"`
	MaxRiseRelative *float64  `json:"max_rise_relative,omitempty"`
}

// TimeWindow is the experiment observation window
type TimeWindow struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	HorizonDays int    `json:"horizon_days"`
}

// StatsConfig carries the statistical configuration; Alpha overrides the
// policy default when present
type StatsConfig struct {
	Method      string   `json:"method"`
	Alpha       *float64 `json:"alpha,omitempty"`
	PowerTarget float64  `json:"power_target"`
}

// DecisionFramework carries the per-experiment decision overrides. The
// practical threshold may only tighten the policy floor, never loosen it.
type DecisionFramework struct {
	Rule                       string   `json:"rule"`
	PracticalThresholdRelative *float64 `json:"practical_threshold_relative,omitempty"`
}

// Contract is one experiment's full specification
type Contract struct {
	CaseID            core.CaseID       `json:"case_id"`
	Title             string            `json:"title"`
	Domain            string            `json:"domain"`
	Unit              string            `json:"unit"`
	Variants          []string          `json:"variants"`
	Time              TimeWindow        `json:"time"`
	PrimaryMetric     PrimaryMetric     `json:"primary_metric"`
	Guardrails        []Guardrail       `json:"guardrails"`
	Segments          []string          `json:"segments,omitempty"`
	Stats             StatsConfig       `json:"stats"`
	DecisionFramework DecisionFramework `json:"decision_framework"`
	Notes             string            `json:"notes"`
}

// Validate checks structural requirements that must hold before any
// evaluation starts. Missing-evidence conditions are not errors; this only
// rejects contracts the engine cannot meaningfully evaluate.
func (c Contract) Validate() error {
	if c.CaseID == "" {
		return core.NewContractError("case_id", "must not be empty")
	}
	if c.Stats.Alpha != nil && (*c.Stats.Alpha <= 0 || *c.Stats.Alpha >= 1) {
		return core.NewContractError("stats.alpha", "must be in (0, 1)")
	}
	for _, g := range c.Guardrails {
		if g.Name == "" {
			return core.NewContractError("guardrails.name", "must not be empty")
		}
	}
	return nil
}

// Truth is the labeled expectation for a case, used by self-check
type Truth struct {
	CaseID                core.CaseID          `json:"case_id"`
	ExpectedDecision      verdict.Outcome      `json:"expected_decision"`
	PrimaryEffectRelative float64              `json:"primary_effect_relative"`
	IsStatSig             bool                 `json:"is_stat_sig"`
	GuardrailsOK          bool                 `json:"guardrails_ok"`
	KeyReasons            []verdict.ReasonCode `json:"key_reasons"`
	HumanRationale        string               `json:"human_rationale"`
}
