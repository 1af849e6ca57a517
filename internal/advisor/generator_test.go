package advisor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stocksage/stocksage/internal/llm"
	"github.com/stocksage/stocksage/internal/models"
)

type stubSentiment struct{}

func (stubSentiment) GetNewsSentiment(ctx context.Context, symbol string) models.Sentiment {
	return models.SentimentNeutral
}

const thinkingReply = `Inner Monologue: Analyzing $10000.00 over 5 years.
- Core position: $625.00
Daily risk:   $150.00

Inner Monologue: Checking volatility bands next.`

const recommendReply = `{
	"recommendations": [
		{"Symbol": "AAPL", "Company": "Apple Inc.", "Action": "Buy", "Quantity": 2,
		 "CurrentPrice": 150, "TotalCost": 300, "Reason": "Momentum", "Caution": "Earnings soon",
		 "NewsSentiment": "Positive", "Score": 85}
	],
	"insights": "Tech remains the strongest sector."
}`

func newTestGenerator(mock *llm.MockCompleter) *Generator {
	quotes := &stubQuotes{prices: map[string]float64{"AAPL": 150.0, "MSFT": 300.0}}
	return NewGenerator(mock, quotes, stubSentiment{}, models.DefaultUniverse(), slog.Default())
}

func TestGenerate_HappyPath(t *testing.T) {
	mock := llm.NewMockCompleter(thinkingReply, recommendReply)
	g := newTestGenerator(mock)

	result := g.Generate(context.Background(), models.DefaultPersona())

	if len(result.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(result.Candidates))
	}
	if result.Candidates[0]["Symbol"] != "AAPL" {
		t.Errorf("candidate Symbol = %v, want AAPL", result.Candidates[0]["Symbol"])
	}
	if result.Insights != "Tech remains the strongest sector." {
		t.Errorf("Insights = %q", result.Insights)
	}
	if len(result.ThinkingProcess) != 2 {
		t.Errorf("expected 2 thoughts, got %d", len(result.ThinkingProcess))
	}
	if len(result.ReasoningSteps) == 0 || !strings.Contains(result.ReasoningSteps[0], "$10000.00") {
		t.Errorf("first reasoning step should state the investment amount: %v", result.ReasoningSteps)
	}

	if mock.Calls() != 2 {
		t.Fatalf("expected 2 model calls, got %d", mock.Calls())
	}
	if mock.Operations[0] != "thinking" || mock.Operations[1] != "recommend" {
		t.Errorf("operations = %v, want [thinking recommend]", mock.Operations)
	}
	// The recommendation prompt embeds market data and the allow-list.
	if !strings.Contains(mock.Prompts[1], "AAPL") || !strings.Contains(mock.Prompts[1], "Allowed Stocks") {
		t.Error("recommendation prompt missing market data or allow-list")
	}
}

func TestGenerate_ModelFailureDegrades(t *testing.T) {
	mock := llm.NewMockCompleter()
	mock.Err = errors.New("429 Too Many Requests")
	g := newTestGenerator(mock)

	result := g.Generate(context.Background(), models.DefaultPersona())

	if len(result.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(result.Candidates))
	}
	if result.Insights != failedInsights {
		t.Errorf("Insights = %q, want %q", result.Insights, failedInsights)
	}
	// The thinking fallback keeps the output shape intact.
	if len(result.ThinkingProcess) != 2 {
		t.Errorf("expected 2 fallback thoughts, got %d", len(result.ThinkingProcess))
	}
	for _, thought := range result.ThinkingProcess {
		if !strings.HasPrefix(thought, "Inner Monologue:") {
			t.Errorf("fallback thought missing marker: %q", thought)
		}
	}
}

func TestGenerate_UnparseableReplyDegrades(t *testing.T) {
	mock := llm.NewMockCompleter(thinkingReply, "I'd rather not answer in JSON today.")
	g := newTestGenerator(mock)

	result := g.Generate(context.Background(), models.DefaultPersona())

	if len(result.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(result.Candidates))
	}
	if result.Insights != failedInsights {
		t.Errorf("Insights = %q, want %q", result.Insights, failedInsights)
	}
}

func TestGenerate_MissingInsightsBackfilled(t *testing.T) {
	mock := llm.NewMockCompleter(thinkingReply, `{"recommendations": []}`)
	g := newTestGenerator(mock)

	result := g.Generate(context.Background(), models.DefaultPersona())

	if result.Insights != "Analysis failed to generate insights." {
		t.Errorf("Insights = %q, want backfilled message", result.Insights)
	}
}

func TestFormatThoughts(t *testing.T) {
	thoughts := formatThoughts(thinkingReply)

	if len(thoughts) != 2 {
		t.Fatalf("expected 2 thoughts, got %d", len(thoughts))
	}
	first := thoughts[0]
	if !strings.HasPrefix(first, "Inner Monologue:\n") {
		t.Errorf("thought missing prefix: %q", first)
	}
	if !strings.Contains(first, "    ➤ Core position: $625.00") {
		t.Errorf("bullet line not reflowed: %q", first)
	}
	if !strings.Contains(first, "Daily risk: $150.00") {
		t.Errorf("key-value spacing not normalized: %q", first)
	}
}

func TestFormatThoughts_EmptyInput(t *testing.T) {
	if got := formatThoughts(""); len(got) != 0 {
		t.Errorf("formatThoughts(\"\") = %v, want empty", got)
	}
}

func TestCandidateList(t *testing.T) {
	raw := []any{
		map[string]any{"Symbol": "AAPL"},
		"not an object",
		map[string]any{"Symbol": "MSFT"},
	}
	got := candidateList(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}

	if got := candidateList("wrong shape"); got != nil {
		t.Errorf("candidateList on non-array = %v, want nil", got)
	}
}
