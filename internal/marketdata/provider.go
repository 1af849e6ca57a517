// Package marketdata supplies live quotes and pre-classified news sentiment
// for the advisor pipeline. Providers degrade instead of failing: an
// unresolvable symbol yields the all-zero quote sentinel and sentiment
// defaults to Neutral, so the pipeline never has to null-check market input.
package marketdata

import (
	"context"

	"github.com/stocksage/stocksage/internal/models"
)

// QuoteProvider resolves current market data for a symbol. Implementations
// return the zero-value quote when data is unavailable, not an error, unless
// the failure is transport-level.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
}

// SentimentProvider classifies recent news coverage for a symbol. Any
// failure maps to SentimentNeutral.
type SentimentProvider interface {
	GetNewsSentiment(ctx context.Context, symbol string) models.Sentiment
}
