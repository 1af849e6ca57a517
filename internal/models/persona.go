package models

// Persona is the five-field structured representation of a user's investment
// preferences. All five fields are always populated after parsing; defaults
// substitute for anything the parser could not determine.
type Persona struct {
	RiskAppetite     string  `json:"risk_appetite"`
	InvestmentGoals  string  `json:"investment_goals"`
	TimeHorizon      string  `json:"time_horizon"`
	InvestmentAmount float64 `json:"investment_amount"`
	InvestmentStyle  string  `json:"investment_style"`
}

// Risk appetite values.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Investment goal values.
const (
	GoalRetirement = "retirement"
	GoalGrowth     = "growth"
	GoalIncome     = "income"
)

// Time horizon values.
const (
	HorizonShort  = "short"
	HorizonMedium = "medium"
	HorizonLong   = "long"
)

// Investment style values.
const (
	StyleValue  = "value"
	StyleGrowth = "growth"
	StyleIndex  = "index"
)

// DefaultPersona returns the static defaults used whenever parsing cannot
// determine a field: medium risk, growth goal, medium horizon, $10,000, index style.
func DefaultPersona() Persona {
	return Persona{
		RiskAppetite:     RiskMedium,
		InvestmentGoals:  GoalGrowth,
		TimeHorizon:      HorizonMedium,
		InvestmentAmount: 10000.0,
		InvestmentStyle:  StyleIndex,
	}
}

// ValidRisk reports whether v is a recognized risk appetite.
func ValidRisk(v string) bool {
	return v == RiskLow || v == RiskMedium || v == RiskHigh
}

// ValidGoal reports whether v is a recognized investment goal.
func ValidGoal(v string) bool {
	return v == GoalRetirement || v == GoalGrowth || v == GoalIncome
}

// ValidHorizon reports whether v is a recognized time horizon.
func ValidHorizon(v string) bool {
	return v == HorizonShort || v == HorizonMedium || v == HorizonLong
}

// ValidStyle reports whether v is a recognized investment style.
func ValidStyle(v string) bool {
	return v == StyleValue || v == StyleGrowth || v == StyleIndex
}

// Validate reports whether every field of the persona is well-formed.
func (p Persona) Validate() bool {
	return ValidRisk(p.RiskAppetite) &&
		ValidGoal(p.InvestmentGoals) &&
		ValidHorizon(p.TimeHorizon) &&
		p.InvestmentAmount > 0 &&
		ValidStyle(p.InvestmentStyle)
}
