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

// Generator builds prompts, invokes the model, and produces raw candidate
// recommendations plus the audit narration. Candidates are untrusted until
// the Validator has processed them.
type Generator struct {
	completer llm.Completer
	quotes    marketdata.QuoteProvider
	sentiment marketdata.SentimentProvider
	universe  models.Universe
	logger    *slog.Logger
}

// NewGenerator creates a recommendation generator. The sentiment provider
// may be nil; sentiment then reads as unavailable in the prompt.
func NewGenerator(completer llm.Completer, quotes marketdata.QuoteProvider, sentiment marketdata.SentimentProvider, universe models.Universe, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		quotes:    quotes,
		sentiment: sentiment,
		universe:  universe,
		logger:    logger,
	}
}

// GenerationResult carries the raw model output onward to validation. The
// failure shape is empty Candidates with an explanatory Insights string;
// ReasoningSteps and ThinkingProcess are always populated.
type GenerationResult struct {
	Candidates      []map[string]any
	Insights        string
	ReasoningSteps  []string
	ThinkingProcess []string
}

const failedInsights = "Analysis failed due to technical issues."

// Generate runs the two model calls: thinking narration first, then the
// recommendation request. Either call failing degrades the result instead of
// returning an error.
func (g *Generator) Generate(ctx context.Context, p models.Persona) GenerationResult {
	scaffold := BuildScaffold(p)
	quotes := g.fetchQuotes(ctx)
	sentiments := g.fetchSentiments(ctx)

	result := GenerationResult{
		ThinkingProcess: g.thinkingProcess(ctx, p, scaffold, quotes),
		ReasoningSteps: []string{
			fmt.Sprintf("Investment amount specified: $%.2f", p.InvestmentAmount),
		},
	}

	reply, err := g.completer.Complete(ctx, "recommend", buildRecommendationPrompt(p, quotes, sentiments, g.universe))
	if err != nil {
		g.logger.Error("[RECOMMEND FAILED]", "error", err)
		result.Insights = failedInsights
		return result
	}

	parsed := extract.JSON(reply)
	if !parsed.OK {
		g.logger.Error("[RECOMMEND UNPARSEABLE]",
			"reason", parsed.Reason,
			"raw_length", len(parsed.Raw))
		result.Insights = failedInsights
		return result
	}

	result.Candidates = candidateList(parsed.Value["recommendations"])
	result.Insights = insightsField(parsed.Value)

	g.logger.Info("[RECOMMEND COMPLETE]",
		"candidates", len(result.Candidates))
	return result
}

// thinkingProcess asks the model for its narrated reasoning and reflows it
// into display-ready steps. Failures yield fixed fallback thoughts so the
// output shape never changes.
func (g *Generator) thinkingProcess(ctx context.Context, p models.Persona, s Scaffold, quotes map[string]models.Quote) []string {
	reply, err := g.completer.Complete(ctx, "thinking", buildThinkingPrompt(p, s, quotes))
	if err != nil {
		g.logger.Warn("[THINKING FAILED]", "error", err)
		return []string{
			"Inner Monologue:\n    Unable to generate detailed thinking process due to technical error.",
			"Inner Monologue:\n    Proceeding with basic analysis based on available data.",
		}
	}
	return formatThoughts(reply)
}

// formatThoughts splits the narration on the thinking marker and reflows
// each thought: bullet lines get a visual indent, key-value lines get
// normalized spacing.
func formatThoughts(raw string) []string {
	separator := strings.Repeat("=", 50)

	var thoughts []string
	for _, chunk := range strings.Split(raw, thinkingMarker) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			switch {
			case strings.HasPrefix(line, "-"):
				lines = append(lines, "    ➤ "+strings.TrimSpace(strings.TrimPrefix(line, "-")))
			case strings.HasPrefix(line, "•"):
				lines = append(lines, "    ➤ "+strings.TrimSpace(strings.TrimPrefix(line, "•")))
			case strings.Contains(line, ":") && !strings.HasPrefix(line, "http"):
				key, value, _ := strings.Cut(line, ":")
				lines = append(lines, strings.TrimSpace(key)+": "+strings.TrimSpace(value))
			default:
				lines = append(lines, line)
			}
		}

		thoughts = append(thoughts, fmt.Sprintf("Inner Monologue:\n%s\n%s\n%s",
			separator, strings.Join(lines, "\n"), separator))
	}
	return thoughts
}

// fetchQuotes resolves current quotes for the whole universe. Symbols with
// no data are skipped rather than failing the run.
func (g *Generator) fetchQuotes(ctx context.Context) map[string]models.Quote {
	quotes := make(map[string]models.Quote, len(g.universe))
	for _, symbol := range g.universe {
		quote, err := g.quotes.GetQuote(ctx, symbol)
		if err != nil {
			g.logger.Warn("quote fetch failed", "symbol", symbol, "error", err)
			continue
		}
		if quote.IsZero() {
			continue
		}
		quotes[symbol] = quote
	}
	return quotes
}

func (g *Generator) fetchSentiments(ctx context.Context) map[string]models.Sentiment {
	if g.sentiment == nil {
		return nil
	}
	sentiments := make(map[string]models.Sentiment, len(g.universe))
	for _, symbol := range g.universe {
		sentiments[symbol] = g.sentiment.GetNewsSentiment(ctx, symbol)
	}
	return sentiments
}

// candidateList coerces the extracted recommendations field into a slice of
// objects, dropping entries of the wrong shape.
func candidateList(raw any) []map[string]any {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	candidates := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			candidates = append(candidates, m)
		}
	}
	return candidates
}

func insightsField(value map[string]any) string {
	if s, ok := value["insights"].(string); ok && s != "" {
		return s
	}
	return "Analysis failed to generate insights."
}
