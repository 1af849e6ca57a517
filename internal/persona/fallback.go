package persona

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stocksage/stocksage/internal/models"
)

var amountPattern = regexp.MustCompile(`\$?(\d+\.?\d*)`)

// keywordFallback derives a persona from the normalized text using fixed
// vocabularies. Each field is matched independently; anything unmatched
// keeps its default.
func keywordFallback(text string) models.Persona {
	p := models.DefaultPersona()

	switch {
	case containsAny(text, "safe", "secure", "cautious"):
		p.RiskAppetite = models.RiskLow
	case containsAny(text, "aggressive", "risky"):
		p.RiskAppetite = models.RiskHigh
	}

	switch {
	case containsAny(text, "retirement", "long-term savings"):
		p.InvestmentGoals = models.GoalRetirement
	case containsAny(text, "wealth", "expansion"):
		p.InvestmentGoals = models.GoalGrowth
	case containsAny(text, "dividends", "passive income"):
		p.InvestmentGoals = models.GoalIncome
	}

	switch {
	case containsAny(text, "1-3 years", "short-term", "short term"):
		p.TimeHorizon = models.HorizonShort
	case containsAny(text, "3-7 years"):
		p.TimeHorizon = models.HorizonMedium
	case containsAny(text, "7+ years", "long-term", "long term"):
		p.TimeHorizon = models.HorizonLong
	}

	if m := amountPattern.FindStringSubmatch(text); m != nil {
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil && amount > 0 {
			p.InvestmentAmount = amount
		}
	}

	switch {
	case strings.Contains(text, "value"):
		p.InvestmentStyle = models.StyleValue
	case strings.Contains(text, "growth"):
		p.InvestmentStyle = models.StyleGrowth
	case containsAny(text, "index", "passive"):
		p.InvestmentStyle = models.StyleIndex
	}

	return p
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
