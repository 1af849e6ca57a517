// Package advisor implements the recommendation pipeline: numeric risk
// scaffolding, model-backed generation, schema repair and validation, and
// pre-trade checks. Every entry point returns a schema-complete result no
// matter how the model or market data behaves.
package advisor

import "github.com/stocksage/stocksage/internal/models"

// ReturnTiers holds an annual-return assumption (or a projected future
// value) for each of the three standard risk postures.
type ReturnTiers struct {
	Conservative float64
	Moderate     float64
	Aggressive   float64
}

// VolatilityBands holds expected movement fractions over three windows.
type VolatilityBands struct {
	Daily   float64
	Monthly float64
	Yearly  float64
}

// Scaffold is the purely arithmetic risk framework computed before any model
// call. Its numbers feed the thinking prompt; they never alter which
// recommendations are produced.
type Scaffold struct {
	Years         int
	HorizonFactor float64

	Returns      ReturnTiers
	FutureValues ReturnTiers

	MaxPositionFraction float64
	MaxPositionAmount   float64

	Volatility  VolatilityBands
	DailyRisk   float64
	MonthlyRisk float64
	YearlyRisk  float64
	MaxDrawdown float64

	CorePosition     float64
	TacticalPosition float64
	StrategicReserve float64
	RiskPerTrade     float64
}

// horizonYears maps a time-horizon label to a year count, bounded 1-30.
func horizonYears(horizon string) int {
	years := 5
	switch horizon {
	case models.HorizonShort:
		years = 2
	case models.HorizonMedium:
		years = 5
	case models.HorizonLong:
		years = 10
	}
	if years < 1 {
		years = 1
	}
	if years > 30 {
		years = 30
	}
	return years
}

// returnAssumptions tiers annual-return assumptions by horizon length;
// shorter horizons get more conservative numbers.
func returnAssumptions(years int) ReturnTiers {
	switch {
	case years <= 2:
		return ReturnTiers{Conservative: 0.04, Moderate: 0.06, Aggressive: 0.08}
	case years <= 5:
		return ReturnTiers{Conservative: 0.06, Moderate: 0.08, Aggressive: 0.12}
	default:
		return ReturnTiers{Conservative: 0.07, Moderate: 0.10, Aggressive: 0.15}
	}
}

// baseAllocation is the maximum single-position fraction before the horizon
// adjustment.
func baseAllocation(risk string) float64 {
	switch risk {
	case models.RiskLow:
		return 0.15
	case models.RiskHigh:
		return 0.35
	default:
		return 0.25
	}
}

func volatilityBands(risk string) VolatilityBands {
	switch risk {
	case models.RiskLow:
		return VolatilityBands{Daily: 0.01, Monthly: 0.03, Yearly: 0.10}
	case models.RiskHigh:
		return VolatilityBands{Daily: 0.02, Monthly: 0.07, Yearly: 0.25}
	default:
		return VolatilityBands{Daily: 0.015, Monthly: 0.05, Yearly: 0.15}
	}
}

func compound(amount, rate float64, years int) float64 {
	fv := amount
	for i := 0; i < years; i++ {
		fv *= 1 + rate
	}
	return fv
}

// BuildScaffold derives the full risk framework from a persona.
func BuildScaffold(p models.Persona) Scaffold {
	amount := p.InvestmentAmount
	years := horizonYears(p.TimeHorizon)
	returns := returnAssumptions(years)

	// Longer horizons allow larger single positions, capped at 1.5x the
	// base allocation and 40% overall.
	factor := float64(years) / 10
	if factor > 1.5 {
		factor = 1.5
	}
	maxFraction := baseAllocation(p.RiskAppetite) * factor
	if maxFraction > 0.40 {
		maxFraction = 0.40
	}
	maxAmount := amount * maxFraction

	bands := volatilityBands(p.RiskAppetite)

	return Scaffold{
		Years:         years,
		HorizonFactor: factor,
		Returns:       returns,
		FutureValues: ReturnTiers{
			Conservative: compound(amount, returns.Conservative, years),
			Moderate:     compound(amount, returns.Moderate, years),
			Aggressive:   compound(amount, returns.Aggressive, years),
		},
		MaxPositionFraction: maxFraction,
		MaxPositionAmount:   maxAmount,
		Volatility:          bands,
		DailyRisk:           amount * bands.Daily,
		MonthlyRisk:         amount * bands.Monthly,
		YearlyRisk:          amount * bands.Yearly,
		MaxDrawdown:         amount * bands.Yearly * 1.5,
		CorePosition:        maxAmount * 0.5,
		TacticalPosition:    maxAmount * 0.3,
		StrategicReserve:    maxAmount * 0.2,
		RiskPerTrade:        amount * 0.02,
	}
}
