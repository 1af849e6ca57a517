// Package inference records LLM call accounting to the database.
package inference

import (
	"context"
	"log/slog"
	"time"

	"github.com/stocksage/stocksage/internal/database"
	"github.com/stocksage/stocksage/internal/models"
)

// Logger logs inference calls to the database
type Logger struct {
	repo   *database.InferenceLogRepository
	logger *slog.Logger
}

// NewLogger creates a new inference logger
func NewLogger(repo *database.InferenceLogRepository, logger *slog.Logger) *Logger {
	return &Logger{
		repo:   repo,
		logger: logger,
	}
}

// Usage carries the token counts reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LogCallParams describes a single inference API call
type LogCallParams struct {
	Provider     string
	Model        string
	Operation    string
	TokensUsed   int
	InputTokens  *int
	OutputTokens *int
	LatencyMs    *int
	Status       string // "success" or "error"
	ErrorMessage *string
}

// LogCall logs an inference call to the database
func (l *Logger) LogCall(ctx context.Context, params LogCallParams) {
	log := models.InferenceLog{
		Provider:     params.Provider,
		Model:        params.Model,
		Operation:    params.Operation,
		TokensUsed:   params.TokensUsed,
		InputTokens:  params.InputTokens,
		OutputTokens: params.OutputTokens,
		LatencyMs:    params.LatencyMs,
		Status:       params.Status,
		ErrorMessage: params.ErrorMessage,
	}

	// Log asynchronously to avoid blocking the main operation
	go func() {
		bgCtx := context.Background()
		if err := l.repo.Create(bgCtx, log); err != nil {
			l.logger.Error("failed to log inference call", "error", err)
		}
	}()
}

// LogOpenAICall is a helper for OpenAI API calls
func (l *Logger) LogOpenAICall(ctx context.Context, model, operation string, usage Usage, latency time.Duration, err error) {
	params := LogCallParams{
		Provider:     "openai",
		Model:        model,
		Operation:    operation,
		TokensUsed:   usage.TotalTokens,
		InputTokens:  &usage.PromptTokens,
		OutputTokens: &usage.CompletionTokens,
	}

	latencyMs := int(latency.Milliseconds())
	params.LatencyMs = &latencyMs

	if err != nil {
		params.Status = "error"
		errMsg := err.Error()
		params.ErrorMessage = &errMsg
	} else {
		params.Status = "success"
	}

	l.LogCall(ctx, params)
}
