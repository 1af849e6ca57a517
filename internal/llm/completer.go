// Package llm wraps the OpenAI chat API behind a small completion interface
// so pipeline components can be tested without network access.
package llm

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Completer is the model-call interface consumed by every LLM-backed
// component. The operation name tags the call for inference logging.
type Completer interface {
	Complete(ctx context.Context, operation, prompt string) (string, error)
}

// RetryPolicy bounds retries of a collaborator call. Retryable decides which
// errors are worth another attempt; everything else fails immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries rate-limit errors up to 3 times with
// exponential backoff starting at baseDelay.
func DefaultRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Retryable:   IsRateLimit,
	}
}

// Do runs fn until it succeeds, a non-retryable error occurs, or attempts are
// exhausted. Backoff doubles per attempt with up to 500ms of jitter.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.BaseDelay * time.Duration(1<<uint(attempt))
		delay += time.Duration(rand.Intn(500)) * time.Millisecond

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// IsRateLimit reports whether err looks like an API rate-limit rejection.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "Too Many Requests") ||
		strings.Contains(errStr, "Rate limit")
}
