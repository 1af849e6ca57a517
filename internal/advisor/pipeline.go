package advisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stocksage/stocksage/internal/models"
	"github.com/stocksage/stocksage/internal/persona"
)

// Pipeline is the top-level advice flow: parse persona, generate candidates,
// validate, assemble the audit trail. Advise never returns an error; any
// failure mode degrades to the same schema-complete shape.
type Pipeline struct {
	parser    *persona.Parser
	generator *Generator
	validator *Validator
	trades    *TradeValidator
	logger    *slog.Logger
}

// NewPipeline wires the full advice flow. The trade validator may be nil
// when pre-trade checks are not needed.
func NewPipeline(parser *persona.Parser, generator *Generator, validator *Validator, trades *TradeValidator, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		parser:    parser,
		generator: generator,
		validator: validator,
		trades:    trades,
		logger:    logger,
	}
}

// Advise runs the pipeline for one user request. The result always carries
// at least one recommendation (possibly the ERROR placeholder), insights
// text, and both audit logs.
func (pl *Pipeline) Advise(ctx context.Context, text string) (advice models.Advice) {
	defer func() {
		if r := recover(); r != nil {
			pl.logger.Error("advice pipeline panicked", "panic", r)
			advice = failureAdvice(fmt.Sprintf("Analysis failed unexpectedly: %v", r))
		}
	}()

	if pl.parser == nil || pl.generator == nil || pl.validator == nil {
		return failureAdvice("Advisor is not fully configured.")
	}

	p := pl.parser.Parse(ctx, text)
	pl.logger.Info("[ADVISE START]",
		"risk", p.RiskAppetite,
		"goals", p.InvestmentGoals,
		"horizon", p.TimeHorizon,
		"amount", p.InvestmentAmount)

	generated := pl.generator.Generate(ctx, p)
	validated := pl.validator.Validate(ctx, generated.Candidates, p)

	steps := generated.ReasoningSteps
	steps = append(steps,
		"Completed initial preference and risk assessment",
		"Analyzed market conditions and sector performance",
		fmt.Sprintf("Generated %d validated recommendations", len(validated)))
	for _, rec := range validated {
		steps = append(steps, formatRecommendation(rec))
	}
	steps = append(steps,
		"Validated investment amounts and share quantities",
		"Compiled final market insights and guidance")

	pl.logger.Info("[ADVISE COMPLETE]", "recommendations", len(validated))

	return models.Advice{
		Recommendations: validated,
		Insights:        generated.Insights,
		ReasoningSteps:  steps,
		ThinkingProcess: generated.ThinkingProcess,
	}
}

// ValidateTrade exposes the pre-trade check for a single recommendation.
func (pl *Pipeline) ValidateTrade(ctx context.Context, rec models.Recommendation, p models.Persona) models.TradeVerdict {
	if pl.trades == nil {
		return models.TradeVerdict{Explanation: "Trade validation is not configured."}
	}
	return pl.trades.ValidateTrade(ctx, rec, p)
}

// ParsePersona exposes the persona parser for callers that need the parsed
// preferences alongside the advice.
func (pl *Pipeline) ParsePersona(ctx context.Context, text string) models.Persona {
	if pl.parser == nil {
		return models.DefaultPersona()
	}
	return pl.parser.Parse(ctx, text)
}

// failureAdvice is the terminal-failure shape: same contract as success,
// with the placeholder recommendation and an explanatory insights message.
func failureAdvice(insights string) models.Advice {
	return models.Advice{
		Recommendations: []models.Recommendation{models.ErrorRecommendation()},
		Insights:        insights,
		ReasoningSteps:  []string{},
		ThinkingProcess: []string{},
	}
}

func formatRecommendation(rec models.Recommendation) string {
	separator := "=================================================="
	return fmt.Sprintf(` %s (%s)
%s
   Action: %s
   Current Price: $%.2f
   Quantity: %g
   Total Cost: $%.2f
   Reason: %s
   Caution: %s
   News Sentiment: %s
   Score: %d/100
%s`,
		rec.Company, rec.Symbol,
		separator,
		rec.Action,
		rec.CurrentPrice,
		rec.Quantity,
		rec.TotalCost,
		rec.Reason,
		rec.Caution,
		rec.NewsSentiment,
		rec.Score,
		separator)
}
