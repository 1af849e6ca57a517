package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/stocksage/stocksage/internal/config"
	"github.com/stocksage/stocksage/internal/inference"
)

// CallRecorder counts model call outcomes for monitoring.
type CallRecorder interface {
	RecordModelCall(operation, status string, latency time.Duration)
}

// Client is the OpenAI-backed Completer used in production.
type Client struct {
	client          *openai.Client
	model           string
	policy          RetryPolicy
	logger          *slog.Logger
	inferenceLogger *inference.Logger
	metrics         CallRecorder
}

// NewClient creates an OpenAI completion client. The inference logger and
// metrics recorder may be nil when call accounting is not wired up.
func NewClient(cfg config.OpenAIConfig, logger *slog.Logger, inferenceLogger *inference.Logger, metrics CallRecorder) *Client {
	return &Client{
		client:          openai.NewClient(cfg.APIKey),
		model:           cfg.Model,
		policy:          DefaultRetryPolicy(cfg.MaxRetries, cfg.BaseDelay),
		logger:          logger,
		inferenceLogger: inferenceLogger,
		metrics:         metrics,
	}
}

// Complete sends a single-user-message chat request and returns the raw reply
// text. Rate-limit rejections are retried per the configured policy; any
// other failure is returned to the caller, who is responsible for degrading
// to a schema-complete default result.
func (c *Client) Complete(ctx context.Context, operation, prompt string) (string, error) {
	var content string
	attempt := 0

	err := c.policy.Do(ctx, func() error {
		attempt++
		callStart := time.Now()
		c.logger.Debug("[LLM CALL START]",
			"operation", operation,
			"attempt", attempt,
			"model", c.model)

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
		latency := time.Since(callStart)

		if c.metrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			c.metrics.RecordModelCall(operation, status, latency)
		}

		if c.inferenceLogger != nil {
			usage := inference.Usage{}
			if err == nil {
				usage.PromptTokens = resp.Usage.PromptTokens
				usage.CompletionTokens = resp.Usage.CompletionTokens
				usage.TotalTokens = resp.Usage.TotalTokens
			}
			c.inferenceLogger.LogOpenAICall(ctx, c.model, operation, usage, latency, err)
		}

		c.logger.Debug("[LLM CALL COMPLETE]",
			"operation", operation,
			"attempt", attempt,
			"duration_ms", latency.Milliseconds(),
			"success", err == nil)

		if err != nil {
			if IsRateLimit(err) {
				c.logger.Warn("rate limited, will retry with backoff",
					"operation", operation,
					"attempt", attempt,
					"error", err)
			}
			return err
		}

		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned from model %s", c.model)
		}
		content = resp.Choices[0].Message.Content
		if content == "" {
			return fmt.Errorf("empty response from model %s (finish_reason: %s)",
				c.model, resp.Choices[0].FinishReason)
		}
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("llm call failed for %s: %w", operation, err)
	}
	return content, nil
}
