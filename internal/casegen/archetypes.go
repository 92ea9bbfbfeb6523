package casegen

import (
	"abfactory/domain/contract"
	"abfactory/domain/core"
	"abfactory/domain/verdict"
)

func (g *Generator) cleanUplift(caseID string) builtCase {
	c := g.baseContract(caseID, g.title(),
		"Standard two-week experiment, no anomalies observed.")
	b := g.baseline()
	e := effects{
		revenue:  g.uniform(0.02, 0.05),
		revenueP: g.uniform(0.001, 0.03),
		ctr:      g.uniform(-0.005, 0.01),
		ctrP:     g.uniform(0.2, 0.8),
	}
	return builtCase{
		contract: c,
		rows: [][]string{
			controlRow(caseID, "all", b),
			g.testRow(caseID, "all", b, e),
		},
		truth: contract.Truth{
			CaseID:                core.CaseID(caseID),
			ExpectedDecision:      verdict.OutcomeShip,
			PrimaryEffectRelative: e.revenue,
			IsStatSig:             true,
			GuardrailsOK:          true,
			KeyReasons:            []verdict.ReasonCode{verdict.ReasonPrimaryUplift},
			HumanRationale:        "Significant revenue uplift above the practical bar with guardrails intact.",
		},
	}
}

func (g *Generator) guardrailBreach(caseID string) builtCase {
	c := g.baseContract(caseID, g.title(),
		"Revenue looks good but engagement metrics dipped during the test.")
	b := g.baseline()
	e := effects{
		revenue:  g.uniform(0.01, 0.03),
		revenueP: g.uniform(0.001, 0.03),
		ctr:      -g.uniform(0.035, 0.06),
		ctrP:     g.uniform(0.001, 0.02),
	}
	return builtCase{
		contract: c,
		rows: [][]string{
			controlRow(caseID, "all", b),
			g.testRow(caseID, "all", b, e),
		},
		truth: contract.Truth{
			CaseID:                core.CaseID(caseID),
			ExpectedDecision:      verdict.OutcomeDoNotShip,
			PrimaryEffectRelative: e.revenue,
			IsStatSig:             true,
			GuardrailsOK:          false,
			KeyReasons:            []verdict.ReasonCode{verdict.GuardrailViolation("ctr")},
			HumanRationale:        "CTR dropped past the hard guardrail; the revenue gain does not cover it.",
		},
	}
}

func (g *Generator) practicallySmall(caseID string) builtCase {
	c := g.baseContract(caseID, g.title(),
		"Large sample made a tiny effect statistically detectable.")
	b := g.baseline()
	e := effects{
		revenue:  g.uniform(0.0005, 0.003),
		revenueP: g.uniform(0.001, 0.04),
		ctr:      g.uniform(-0.002, 0.002),
		ctrP:     g.uniform(0.3, 0.9),
	}
	return builtCase{
		contract: c,
		rows: [][]string{
			controlRow(caseID, "all", b),
			g.testRow(caseID, "all", b, e),
		},
		truth: contract.Truth{
			CaseID:                core.CaseID(caseID),
			ExpectedDecision:      verdict.OutcomeDoNotShip,
			PrimaryEffectRelative: e.revenue,
			IsStatSig:             true,
			GuardrailsOK:          true,
			KeyReasons:            []verdict.ReasonCode{verdict.ReasonPracticallySmall},
			HumanRationale:        "Statistically significant but below the practical threshold.",
		},
	}
}

func (g *Generator) segmentConflict(caseID string) builtCase {
	c := g.baseContract(caseID, g.title(),
		"Platform teams report opposite reactions to the change.")
	c.Segments = []string{"ios", "android"}

	overall := g.baseline()
	ios := g.baseline()
	android := g.baseline()

	iosEffect := g.uniform(0.025, 0.05)
	androidEffect := -g.uniform(0.025, 0.05)
	overallEffects := effects{
		revenue:  g.uniform(-0.003, 0.003),
		revenueP: g.uniform(0.4, 0.9),
		ctr:      g.uniform(-0.002, 0.002),
		ctrP:     g.uniform(0.3, 0.9),
	}
	return builtCase{
		contract: c,
		rows: [][]string{
			controlRow(caseID, "all", overall),
			g.testRow(caseID, "all", overall, overallEffects),
			controlRow(caseID, "ios", ios),
			g.testRow(caseID, "ios", ios, effects{
				revenue: iosEffect, revenueP: g.uniform(0.001, 0.02),
				ctr: g.uniform(-0.002, 0.002), ctrP: g.uniform(0.3, 0.9),
			}),
			controlRow(caseID, "android", android),
			g.testRow(caseID, "android", android, effects{
				revenue: androidEffect, revenueP: g.uniform(0.001, 0.02),
				ctr: g.uniform(-0.002, 0.002), ctrP: g.uniform(0.3, 0.9),
			}),
		},
		truth: contract.Truth{
			CaseID:                core.CaseID(caseID),
			ExpectedDecision:      verdict.OutcomeInvestigate,
			PrimaryEffectRelative: overallEffects.revenue,
			IsStatSig:             false,
			GuardrailsOK:          true,
			KeyReasons:            []verdict.ReasonCode{verdict.ReasonSegmentConflict},
			HumanRationale:        "Segments move in significant opposite directions; the overall read is a wash.",
		},
	}
}

func (g *Generator) longTermReversal(caseID string) builtCase {
	c := g.baseContract(caseID, g.title(),
		"Holdback monitoring shows a reversal of the early gain after day 10.")
	b := g.baseline()
	e := effects{
		revenue:  g.uniform(0.015, 0.04),
		revenueP: g.uniform(0.001, 0.03),
		ctr:      g.uniform(-0.005, 0.005),
		ctrP:     g.uniform(0.2, 0.8),
	}
	return builtCase{
		contract: c,
		rows: [][]string{
			controlRow(caseID, "all", b),
			g.testRow(caseID, "all", b, e),
		},
		truth: contract.Truth{
			CaseID:                core.CaseID(caseID),
			ExpectedDecision:      verdict.OutcomeDoNotShip,
			PrimaryEffectRelative: e.revenue,
			IsStatSig:             true,
			GuardrailsOK:          true,
			KeyReasons:            []verdict.ReasonCode{verdict.ReasonLongTermReversal},
			HumanRationale:        "Short-term gain reverses in the long-term holdback; shipping would lock in the loss.",
		},
	}
}
