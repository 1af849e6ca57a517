package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stocksage/stocksage/internal/models"
)

// thinkingMarker splits the model's free-text narration into discrete
// thoughts.
const thinkingMarker = "Inner Monologue:"

// buildThinkingPrompt embeds the scaffold numbers into a narration request.
// The reply is display trace only; it has no effect on recommendations.
func buildThinkingPrompt(p models.Persona, s Scaffold, quotes map[string]models.Quote) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert investment advisor. Think through this investment scenario step by step, sharing your detailed inner monologue with specific numerical analysis.

Investor Profile:
- Risk appetite: %s
- Investment goals: %s
- Time horizon: %d years (%s)
- Investment style: %s
Available Investment Amount: $%.2f

Current Market Data:
%s
`,
		p.RiskAppetite, p.InvestmentGoals, s.Years, p.TimeHorizon, p.InvestmentStyle,
		p.InvestmentAmount, formatQuoteTable(quotes))

	fmt.Fprintf(&b, `
Consider and explicitly state your thinking about:

1. Initial Portfolio Analysis:
   - Maximum single stock position: $%.2f (%.1f%% of $%.2f)
   - Risk-adjusted position sizes based on the %s profile and %d year horizon
   - Time horizon factor: %.2fx base allocation

2. Risk-Return Projections (%d years):
   - Conservative (%.1f%%/year): $%.2f -> $%.2f
   - Moderate (%.1f%%/year): $%.2f -> $%.2f
   - Aggressive (%.1f%%/year): $%.2f -> $%.2f

3. Volatility Analysis (%s profile):
   - Daily volatility: +/-$%.2f (+/-%.1f%% of $%.2f)
   - Monthly volatility: +/-$%.2f (+/-%.1f%%)
   - Yearly volatility: +/-$%.2f (+/-%.1f%%)
   - Maximum drawdown protection: -$%.2f (-%.1f%%)

4. Position Sizing and Risk Management:
   - Core position: $%.2f (50%% of max)
   - Tactical allocation: $%.2f (30%% of max)
   - Strategic reserve: $%.2f (20%% of max)
   - Risk per trade: $%.2f (2%% rule)

Format your response as a stream of consciousness, with each thought starting with "%s". Make each thought detailed and show the mathematical reasoning. Return ONLY the list of thoughts.`,
		s.MaxPositionAmount, s.MaxPositionFraction*100, p.InvestmentAmount,
		p.RiskAppetite, s.Years, s.HorizonFactor,
		s.Years,
		s.Returns.Conservative*100, p.InvestmentAmount, s.FutureValues.Conservative,
		s.Returns.Moderate*100, p.InvestmentAmount, s.FutureValues.Moderate,
		s.Returns.Aggressive*100, p.InvestmentAmount, s.FutureValues.Aggressive,
		p.RiskAppetite,
		s.DailyRisk, s.Volatility.Daily*100, p.InvestmentAmount,
		s.MonthlyRisk, s.Volatility.Monthly*100,
		s.YearlyRisk, s.Volatility.Yearly*100,
		s.MaxDrawdown, s.Volatility.Yearly*150,
		s.CorePosition, s.TacticalPosition, s.StrategicReserve, s.RiskPerTrade,
		thinkingMarker)

	return b.String()
}

// buildRecommendationPrompt is the actual recommendation request. Prices and
// costs in the reply are advisory only; validation recomputes them from the
// authoritative quote source.
func buildRecommendationPrompt(p models.Persona, quotes map[string]models.Quote, sentiments map[string]models.Sentiment, universe models.Universe) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert investment advisor performing a detailed market analysis and generating recommendations.

IMPORTANT: You must return ONLY a valid JSON object with no additional text, comments, or explanations.
ANY TEXT OUTSIDE THE JSON OBJECT WILL CAUSE ERRORS.

Input Parameters:
- Investor Profile: risk appetite %s, goals %s, time horizon %s, style %s
- Investment Budget: $%.2f - **ABSOLUTE MAXIMUM**
- Current Market Data:
%s
- News Sentiment: %s
- Allowed Stocks: %s

**BUDGET ENFORCEMENT RULES:**
1. Calculate total cost for each recommendation: Quantity x CurrentPrice
2. If total cost > $%.2f, reduce quantity or exclude the stock
3. Never recommend more than the investor can afford
4. Budget compliance takes priority over all other factors

Required JSON Structure:
{
    "recommendations": [
        {
            "Symbol": "string (must be from the allowed list)",
            "Company": "string",
            "Action": "Buy or Sell",
            "Quantity": "number - MUST result in total cost <= %.2f",
            "CurrentPrice": "number",
            "TotalCost": "number - MUST be <= %.2f",
            "Reason": "string",
            "Caution": "string",
            "NewsSentiment": "Positive/Negative/Neutral",
            "Score": "number (0-100)"
        }
    ],
    "insights": "Comprehensive market insight summary with specific data points and actionable conclusions"
}

REQUIREMENTS:
1. Return ONLY the JSON object above
2. Do not include any text before or after the JSON
3. Do not use markdown code blocks
4. Ensure all numeric fields are actual numbers, not strings
5. Use only the allowed stock symbols
6. Include exactly 3 recommendations
7. Format all currency values as numbers without $ signs
8. **BUDGET COMPLIANCE: Every recommendation must have TotalCost <= $%.2f**`,
		p.RiskAppetite, p.InvestmentGoals, p.TimeHorizon, p.InvestmentStyle,
		p.InvestmentAmount, formatQuoteTable(quotes), formatSentiments(sentiments),
		strings.Join(universe, ", "),
		p.InvestmentAmount, p.InvestmentAmount, p.InvestmentAmount, p.InvestmentAmount)

	return b.String()
}

// buildTradeValidationPrompt requests the structured three-part pre-trade
// analysis: risk assessment, validation verdict, execution plan.
func buildTradeValidationPrompt(rec models.Recommendation, p models.Persona, universe models.Universe) string {
	return fmt.Sprintf(`You are an expert trading advisor performing a complete trade validation analysis.

Context:
Trade Details: %s %s x%.2f at $%.2f (total $%.2f)
Investor Profile: risk appetite %s, goals %s, time horizon %s, budget $%.2f
Allowed Stocks: %s

Return your complete analysis as a JSON object with these exact keys:
{
    "analysis": {
        "risk_assessment": {
            "score": "1-100 numeric risk score",
            "factors": ["Risk factors"],
            "market_conditions": "Current market state"
        }
    },
    "validation": {
        "validation_result": {
            "is_valid": true/false,
            "confidence": "1-100 numeric score",
            "primary_reasons": ["Main decision factors"],
            "concerns": ["Key concerns"],
            "modifications": {
                "quantity": "Suggested quantity changes",
                "timing": "Timing recommendations"
            }
        }
    },
    "execution": {
        "execution_strategy": {
            "entry_points": ["Specific entry criteria"],
            "monitoring": ["Key metrics to watch"],
            "risk_management": {
                "stop_loss": "Recommended stop-loss",
                "take_profit": "Profit targets"
            }
        }
    }
}

Important:
1. Keep all text on one line for each point
2. Use simple punctuation (periods, commas)
3. Format prices as "$X.XX"

Return ONLY the JSON object, no other text.`,
		rec.Action, rec.Symbol, rec.Quantity, rec.CurrentPrice, rec.Quantity*rec.CurrentPrice,
		p.RiskAppetite, p.InvestmentGoals, p.TimeHorizon, p.InvestmentAmount,
		strings.Join(universe, ", "))
}

// formatQuoteTable renders quotes in stable symbol order for prompts.
func formatQuoteTable(quotes map[string]models.Quote) string {
	symbols := make([]string, 0, len(quotes))
	for s := range quotes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var b strings.Builder
	for _, s := range symbols {
		q := quotes[s]
		fmt.Fprintf(&b, "  %s: price %.2f, high %.2f, low %.2f, previous close %.2f\n",
			s, q.CurrentPrice, q.High, q.Low, q.PreviousClose)
	}
	if b.Len() == 0 {
		return "  (no market data available)\n"
	}
	return b.String()
}

func formatSentiments(sentiments map[string]models.Sentiment) string {
	if len(sentiments) == 0 {
		return "(unavailable)"
	}
	symbols := make([]string, 0, len(sentiments))
	for s := range sentiments {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	parts := make([]string, 0, len(symbols))
	for _, s := range symbols {
		parts = append(parts, fmt.Sprintf("%s %s", s, sentiments[s]))
	}
	return strings.Join(parts, ", ")
}
