package completion

import (
	"context"
	"errors"
	"time"

	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/pkg/embedding"
	"kt-assistant-be/pkg/llm"
)

const module = "Completion"

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 2 * time.Second
	defaultPacing         = 500 * time.Millisecond
)

// Client wraps a chat provider and an embedding provider with pacing, bounded
// retries and graceful degradation. It never returns an error to callers.
type Client struct {
	provider     llm.LLMProvider
	embedder     embedding.EmbeddingProvider
	logger       logger.ILogger
	model        string
	embeddingDim int

	maxAttempts    int
	initialBackoff time.Duration
	pacing         time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithRetry(maxAttempts int, initialBackoff, pacing time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.initialBackoff = initialBackoff
		c.pacing = pacing
	}
}

// WithSleeper replaces the wait between attempts. Tests use it to record delays.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

func NewClient(provider llm.LLMProvider, embedder embedding.EmbeddingProvider, log logger.ILogger, model string, embeddingDim int, opts ...Option) *Client {
	c := &Client{
		provider:       provider,
		embedder:       embedder,
		logger:         log,
		model:          model,
		embeddingDim:   embeddingDim,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		pacing:         defaultPacing,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetCompletion returns the assistant text and true, or ("", false) once the
// provider has failed permanently or exhausted its retries.
func (c *Client) GetCompletion(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, bool) {
	model := llm.ApplyOptions(llm.Options{Model: c.model}, opts...).Model
	opts = append([]llm.Option{llm.WithModel(c.model)}, opts...)

	backoff := c.initialBackoff
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.sleep(ctx, c.pacing); err != nil {
			return "", false
		}

		resp, err := c.provider.Chat(ctx, messages, opts...)
		if err == nil {
			c.logUsage(model, resp)
			return resp.Content, true
		}

		if !llm.IsTransient(err) {
			c.logger.Error(module, "Completion failed", map[string]interface{}{
				"model": model,
				"error": err,
			})
			return "", false
		}

		c.logger.Warn(module, "Provider busy, backing off", map[string]interface{}{
			"model":   model,
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})
		if attempt == c.maxAttempts {
			break
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return "", false
		}
		backoff *= 2
	}

	c.logger.Error(module, "Completion retries exhausted", map[string]interface{}{
		"model":    model,
		"attempts": c.maxAttempts,
	})
	return "", false
}

func (c *Client) logUsage(model string, resp *llm.ChatResponse) {
	details := map[string]interface{}{"model": model}
	if resp.Model != "" {
		details["model"] = resp.Model
	}
	if resp.Usage != nil {
		details["prompt_tokens"] = resp.Usage.PromptTokens
		details["completion_tokens"] = resp.Usage.CompletionTokens
		details["total_tokens"] = resp.Usage.TotalTokens
	}
	c.logger.Info(module, "Completion usage", details)
}

// GetEmbedding never fails: on any provider error it returns a zero vector of
// the configured dimension.
func (c *Client) GetEmbedding(ctx context.Context, text string) []float32 {
	return c.embed(ctx, text, embedding.TaskRetrievalDocument)
}

func (c *Client) GetQueryEmbedding(ctx context.Context, text string) []float32 {
	return c.embed(ctx, text, embedding.TaskRetrievalQuery)
}

func (c *Client) embed(ctx context.Context, text, taskType string) []float32 {
	if c.embedder == nil {
		return make([]float32, c.embeddingDim)
	}

	resp, err := c.embedder.Generate(ctx, text, taskType)
	if err == nil && len(resp.Embedding.Values) == 0 {
		err = errors.New("empty embedding")
	}
	if err != nil {
		c.logger.Error(module, "Embedding failed, using zero vector", map[string]interface{}{
			"dimension": c.embeddingDim,
			"error":     err,
		})
		return make([]float32, c.embeddingDim)
	}
	return resp.Embedding.Values
}

func (c *Client) EmbeddingDimension() int {
	return c.embeddingDim
}

func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
