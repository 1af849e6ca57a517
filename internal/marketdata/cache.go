package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/stocksage/stocksage/internal/models"
)

// QuoteCache is a read-through TTL cache in front of a QuoteProvider.
// Concurrent refreshes of the same symbol are allowed to race; the last
// writer wins and no correctness invariant depends on refresh ordering.
type QuoteCache struct {
	cache    map[string]quoteEntry
	mu       sync.RWMutex
	provider QuoteProvider
	ttl      time.Duration
}

type quoteEntry struct {
	quote     models.Quote
	timestamp time.Time
}

// NewQuoteCache wraps provider with a TTL cache.
func NewQuoteCache(provider QuoteProvider, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		cache:    make(map[string]quoteEntry),
		provider: provider,
		ttl:      ttl,
	}
}

// GetQuote returns the cached quote for symbol or fetches a fresh one.
// All-zero sentinel quotes are not cached so a transient data gap does not
// stick for a full TTL.
func (c *QuoteCache) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	c.mu.RLock()
	entry, exists := c.cache[symbol]
	c.mu.RUnlock()

	if exists && time.Since(entry.timestamp) < c.ttl {
		return entry.quote, nil
	}

	quote, err := c.provider.GetQuote(ctx, symbol)
	if err != nil {
		// Serve a stale entry over a hard failure if we have one
		if exists {
			return entry.quote, nil
		}
		return models.Quote{Symbol: symbol}, err
	}

	if !quote.IsZero() {
		c.mu.Lock()
		c.cache[symbol] = quoteEntry{
			quote:     quote,
			timestamp: time.Now(),
		}
		c.mu.Unlock()
	}

	return quote, nil
}
