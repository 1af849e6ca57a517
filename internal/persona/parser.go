// Package persona maps free-text user input into the five-field investment
// persona. The model path produces structured JSON; a deterministic keyword
// fallback covers every failure mode so Parse always returns a complete
// persona and never an error.
package persona

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stocksage/stocksage/internal/extract"
	"github.com/stocksage/stocksage/internal/llm"
	"github.com/stocksage/stocksage/internal/models"
	"github.com/stocksage/stocksage/internal/numeric"
)

// Parser turns user preference text into a models.Persona.
type Parser struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewParser creates a persona parser. A nil completer skips the model path
// entirely and relies on the keyword fallback.
func NewParser(completer llm.Completer, logger *slog.Logger) *Parser {
	return &Parser{
		completer: completer,
		logger:    logger,
	}
}

// Parse maps text to a persona. Empty or whitespace input returns the
// defaults immediately without a model call. Model failures, unparseable
// replies, and schema violations all fall back to keyword matching over the
// normalized text, so every exit path yields a valid persona.
func (p *Parser) Parse(ctx context.Context, text string) models.Persona {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.DefaultPersona()
	}
	normalized := strings.ToLower(trimmed)

	if p.completer != nil {
		reply, err := p.completer.Complete(ctx, "persona_parse", buildPrompt(normalized))
		if err != nil {
			p.logger.Warn("persona model call failed, using keyword fallback", "error", err)
		} else {
			result := extract.JSON(reply)
			if !result.OK {
				p.logger.Warn("persona reply not parseable, using keyword fallback",
					"reason", result.Reason)
			} else if persona, ok := personaFromValue(result.Value); ok {
				return persona
			} else {
				p.logger.Warn("persona reply failed schema validation, using keyword fallback")
			}
		}
	}

	return keywordFallback(normalized)
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following investment preferences and respond with ONLY a JSON object containing exactly these five fields:

{
  "risk_appetite": "low" | "medium" | "high",
  "investment_goals": "retirement" | "growth" | "income",
  "time_horizon": "short" | "medium" | "long",
  "investment_amount": <number>,
  "investment_style": "value" | "growth" | "index"
}

Mapping rules:
- Words like "safe", "secure", "cautious" mean low risk; "aggressive" or "risky" mean high risk.
- "retirement" or "long-term savings" mean the retirement goal; "dividends" or "passive income" mean the income goal.
- "1-3 years" or "short-term" is a short horizon; "3-7 years" is medium; "7+ years" or "long-term" is long.
- A dollar amount like "$5000" maps to investment_amount 5000.0.
- When a field is not mentioned, use: medium risk, growth goal, medium horizon, 10000.0, index style.

User preferences: %s`, text)
}

// personaFromValue validates the extracted JSON against the persona schema.
// Enum strings are normalized to lowercase before checking but invalid
// values are rejected outright, never coerced to a default here.
func personaFromValue(value map[string]any) (models.Persona, bool) {
	risk, ok := stringField(value, "risk_appetite")
	if !ok || !models.ValidRisk(risk) {
		return models.Persona{}, false
	}
	goals, ok := stringField(value, "investment_goals")
	if !ok || !models.ValidGoal(goals) {
		return models.Persona{}, false
	}
	horizon, ok := stringField(value, "time_horizon")
	if !ok || !models.ValidHorizon(horizon) {
		return models.Persona{}, false
	}
	style, ok := stringField(value, "investment_style")
	if !ok || !models.ValidStyle(style) {
		return models.Persona{}, false
	}

	raw, ok := value["investment_amount"]
	if !ok {
		return models.Persona{}, false
	}
	amount := numeric.ToFloat(raw)
	if amount <= 0 {
		return models.Persona{}, false
	}

	return models.Persona{
		RiskAppetite:     risk,
		InvestmentGoals:  goals,
		TimeHorizon:      horizon,
		InvestmentAmount: amount,
		InvestmentStyle:  style,
	}, true
}

func stringField(value map[string]any, key string) (string, bool) {
	raw, ok := value[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(s)), true
}
