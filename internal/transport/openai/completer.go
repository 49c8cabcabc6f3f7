package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragtutor/internal/domain"
	"github.com/kailas-cloud/ragtutor/internal/metrics"
)

// Compile-time check: Completer implements domain.Completer.
var _ domain.Completer = (*Completer)(nil)

// CompletionConfig holds chat completion settings.
type CompletionConfig struct {
	Config
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

// Completer sends single-turn chat completions to an OpenAI-compatible API.
type Completer struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float32
	maxTokens    int
	user         string
	provider     string
	logger       *zap.Logger
}

// NewCompleter creates a chat completion provider.
func NewCompleter(cfg *CompletionConfig) *Completer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{
		client:       newClient(&cfg.Config),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		user:         cfg.User,
		provider:     cfg.Provider,
		logger:       logger,
	}
}

// WithModel returns a copy that shares the HTTP client but targets another model.
func (c *Completer) WithModel(model string) *Completer {
	cp := *c
	cp.model = model
	return &cp
}

// WithSystemPrompt returns a copy with a different system prompt ("" sends none).
func (c *Completer) WithSystemPrompt(prompt string) *Completer {
	cp := *c
	cp.systemPrompt = prompt
	return &cp
}

// Model returns the chat model name.
func (c *Completer) Model() string {
	return c.model
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		User:        c.user,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.recordError("api_error")
		c.logger.Warn("Completion request failed", zap.String("model", c.model), zap.Error(err))
		return domain.CompletionResult{}, parseAPIError(err, "completion", domain.ErrCompletionProviderError)
	}
	if len(resp.Choices) == 0 {
		c.recordError("empty_response")
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())
	metrics.CompletionTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.CompletionTokensTotal.WithLabelValues(c.provider, c.model, "completion").
		Add(float64(resp.Usage.CompletionTokens))

	domain.UsageFromContext(ctx).AddCompletion(resp.Usage.TotalTokens)

	return domain.CompletionResult{
		Text:   strings.TrimSpace(resp.Choices[0].Message.Content),
		Tokens: resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Completer) recordError(kind string) {
	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
	metrics.CompletionErrorsTotal.WithLabelValues(c.provider, c.model, kind).Inc()
}
