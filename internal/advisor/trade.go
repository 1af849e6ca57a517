package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stocksage/stocksage/internal/extract"
	"github.com/stocksage/stocksage/internal/llm"
	"github.com/stocksage/stocksage/internal/marketdata"
	"github.com/stocksage/stocksage/internal/models"
)

// TradeValidator re-checks a single selected recommendation against budget
// and policy before simulated execution, with a model call supplying the
// qualitative risk commentary.
type TradeValidator struct {
	completer llm.Completer
	quotes    marketdata.QuoteProvider
	universe  models.Universe
	logger    *slog.Logger
}

// NewTradeValidator creates a pre-trade validator.
func NewTradeValidator(completer llm.Completer, quotes marketdata.QuoteProvider, universe models.Universe, logger *slog.Logger) *TradeValidator {
	return &TradeValidator{
		completer: completer,
		quotes:    quotes,
		universe:  universe,
		logger:    logger,
	}
}

// ValidateTrade runs the deterministic pre-checks, then the model analysis.
// The model's verdict is trusted only while the independently recomputed
// cost still fits the budget. The explanation keeps the same bulleted layout
// whether or not the model filled in every sub-field.
func (tv *TradeValidator) ValidateTrade(ctx context.Context, rec models.Recommendation, p models.Persona) models.TradeVerdict {
	var steps []string

	if !tv.universe.Contains(rec.Symbol) {
		return models.TradeVerdict{
			Explanation: fmt.Sprintf("Invalid stock symbol: %s is not in the allowed list", rec.Symbol),
			Steps:       steps,
		}
	}

	quote, err := tv.quotes.GetQuote(ctx, rec.Symbol)
	if err != nil || quote.CurrentPrice <= 0 {
		return models.TradeVerdict{
			Explanation: fmt.Sprintf("Could not get valid price for %s", rec.Symbol),
			Steps:       steps,
		}
	}
	price := quote.CurrentPrice
	totalCost := price * rec.Quantity

	if rec.Action == models.ActionBuy && totalCost > p.InvestmentAmount {
		return models.TradeVerdict{
			Explanation: fmt.Sprintf("Total cost ($%.2f) exceeds investment amount ($%.2f)",
				totalCost, p.InvestmentAmount),
			Steps: steps,
		}
	}

	steps = append(steps, "Performing comprehensive trade validation...")

	reply, err := tv.completer.Complete(ctx, "trade_validate", buildTradeValidationPrompt(rec, p, tv.universe))
	if err != nil {
		tv.logger.Error("[TRADE VALIDATE FAILED]", "symbol", rec.Symbol, "error", err)
		return models.TradeVerdict{
			Explanation: fmt.Sprintf("Validation failed: %v", err),
			Steps:       steps,
		}
	}

	parsed := extract.JSON(reply)
	if !parsed.OK {
		tv.logger.Error("[TRADE VALIDATE UNPARSEABLE]", "symbol", rec.Symbol, "reason", parsed.Reason)
		return models.TradeVerdict{
			Explanation: "Validation failed: could not parse model analysis",
			Steps:       steps,
		}
	}

	validation := objectField(objectField(parsed.Value, "validation"), "validation_result")
	isValid, _ := validation["is_valid"].(bool)
	concerns := stringList(validation["concerns"])

	// Budget re-check: a model verdict of valid never overrides arithmetic.
	if isValid && rec.Action == models.ActionBuy && totalCost > p.InvestmentAmount {
		isValid = false
		concerns = append(concerns, fmt.Sprintf(
			"Total cost ($%.2f) exceeds investment amount ($%.2f)", totalCost, p.InvestmentAmount))
	}

	execution := objectField(objectField(parsed.Value, "execution"), "execution_strategy")
	explanation := buildTradeExplanation(isValid, validation, execution, concerns)

	steps = append(steps, explanation)
	steps = append(steps, "Completed comprehensive trade validation", "Analyzed risk and market conditions")
	if isValid {
		steps = append(steps, "Generated execution strategy")
	} else {
		steps = append(steps, "Identified validation issues")
	}

	return models.TradeVerdict{Valid: isValid, Explanation: explanation, Steps: steps}
}

// buildTradeExplanation assembles the human-readable summary. Missing
// sub-fields render as placeholders so the layout is identical regardless of
// how cooperative the model was.
func buildTradeExplanation(isValid bool, validation, execution map[string]any, concerns []string) string {
	wide := strings.Repeat("=", 50)
	narrow := strings.Repeat("=", 30)

	if isValid {
		riskMgmt := objectField(execution, "risk_management")
		return fmt.Sprintf(`Trade Validation Summary:
%s
Confidence Score: %s/100

Primary Reasons:
%s

Key Concerns:
%s

Execution Strategy:
%s
Entry Points:
%s

Risk Management:
%s
Stop Loss: %s
Take Profit: %s

Monitoring Points:
%s
%s`,
			wide,
			textField(validation, "confidence", "N/A"),
			formatBullets(stringList(validation["primary_reasons"])),
			formatBullets(concerns),
			narrow,
			formatBullets(stringList(execution["entry_points"])),
			narrow,
			textField(riskMgmt, "stop_loss", "Not specified"),
			textField(riskMgmt, "take_profit", "Not specified"),
			formatBullets(stringList(execution["monitoring"])),
			wide)
	}

	reasons := stringList(validation["primary_reasons"])
	if len(reasons) == 0 {
		reasons = []string{"Invalid trade"}
	}
	modifications := objectField(validation, "modifications")
	return fmt.Sprintf(`Trade Rejected:
%s

Reasons:
%s

Suggested Changes:
Quantity: %s
Timing: %s

Key Concerns:
%s
%s`,
		wide,
		formatBullets(reasons),
		textField(modifications, "quantity", "No suggestion"),
		textField(modifications, "timing", "No suggestion"),
		formatBullets(concerns),
		wide)
}

// formatBullets renders items one per line with a bullet; an empty list
// yields a single blank placeholder line.
func formatBullets(items []string) string {
	var lines []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lines = append(lines, "• "+item)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func objectField(value map[string]any, key string) map[string]any {
	if value == nil {
		return nil
	}
	m, _ := value[key].(map[string]any)
	return m
}

func stringList(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// textField renders a string or numeric field, falling back to def.
func textField(value map[string]any, key, def string) string {
	if value == nil {
		return def
	}
	switch v := value[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%g", v)
	}
	return def
}
