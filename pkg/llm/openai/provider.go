package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kt-assistant-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// Provider talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, Gemini's compatibility layer, vLLM, the HuggingFace router, ...).
type Provider struct {
	client *goopenai.Client
	model  string
}

var _ llm.LLMProvider = &Provider{}

func NewProvider(apiKey, baseURL, model string) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Provider{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.ChatResponse, error) {
	options := llm.ApplyOptions(llm.Options{Model: p.model}, opts...)

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = goopenai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	req := goopenai.ChatCompletionRequest{
		Model:       options.Model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
	}
	if options.JSONResponse {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, ClassifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ClassifyError rewraps go-openai errors as llm.StatusError so callers can
// tell rate limits and outages apart from permanent failures.
func ClassifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w", &llm.StatusError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message})
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w", &llm.StatusError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()})
	}
	return fmt.Errorf("openai request failed: %w", err)
}
