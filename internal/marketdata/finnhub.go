package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/stocksage/stocksage/internal/config"
	"github.com/stocksage/stocksage/internal/models"
)

// FinnhubClient fetches quotes and news sentiment from the Finnhub REST API.
type FinnhubClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewFinnhubClient creates a Finnhub-backed market data client.
func NewFinnhubClient(cfg config.MarketDataConfig, logger *slog.Logger) *FinnhubClient {
	return &FinnhubClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// finnhubQuote mirrors the /quote response shape.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	PreviousClose float64 `json:"pc"`
}

// finnhubSentiment mirrors the subset of /news-sentiment we use.
type finnhubSentiment struct {
	Sentiment struct {
		BullishPercent float64 `json:"bullishPercent"`
		BearishPercent float64 `json:"bearishPercent"`
	} `json:"sentiment"`
}

// GetQuote fetches the current quote for symbol. An unknown symbol comes back
// from Finnhub as all zeroes, which callers treat as the unavailable
// sentinel; only transport or decode failures return an error.
func (c *FinnhubClient) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	var fq finnhubQuote
	if err := c.get(ctx, "/quote", symbol, &fq); err != nil {
		return models.Quote{Symbol: symbol}, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}

	quote := models.Quote{
		Symbol:        symbol,
		CurrentPrice:  fq.Current,
		High:          fq.High,
		Low:           fq.Low,
		PreviousClose: fq.PreviousClose,
	}
	if quote.IsZero() {
		c.logger.Warn("no market data for symbol", "symbol", symbol)
	}
	return quote, nil
}

// GetNewsSentiment classifies recent coverage for symbol. Any failure or
// ambiguous reading maps to Neutral.
func (c *FinnhubClient) GetNewsSentiment(ctx context.Context, symbol string) models.Sentiment {
	var fs finnhubSentiment
	if err := c.get(ctx, "/news-sentiment", symbol, &fs); err != nil {
		c.logger.Warn("news sentiment lookup failed, defaulting to neutral",
			"symbol", symbol,
			"error", err)
		return models.SentimentNeutral
	}

	bullish := fs.Sentiment.BullishPercent
	bearish := fs.Sentiment.BearishPercent
	switch {
	case bullish > bearish && bullish > 0.5:
		return models.SentimentPositive
	case bearish > bullish && bearish > 0.5:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func (c *FinnhubClient) get(ctx context.Context, path, symbol string, out any) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
