package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kt-assistant-be/pkg/llm"
)

const defaultTimeout = 120 * time.Second

// Provider talks to a local Ollama server through /api/chat without streaming.
type Provider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ llm.LLMProvider = (*Provider)(nil)

type ProviderOption func(*Provider)

func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

func NewOllamaProvider(baseURL, model string, opts ...ProviderOption) *Provider {
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  sampling      `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sampling struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error,omitempty"`
}

func (p *Provider) buildRequest(history []llm.Message, options llm.Options) chatRequest {
	req := chatRequest{
		Model:    p.model,
		Messages: make([]chatMessage, 0, len(history)),
		Options: sampling{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		},
	}
	if options.Model != "" {
		req.Model = options.Model
	}
	if options.JSONResponse {
		req.Format = "json"
	}
	for _, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		req.Messages = append(req.Messages, chatMessage{Role: role, Content: msg.Content})
	}
	return req
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.ChatResponse, error) {
	options := llm.ApplyOptions(llm.Options{Temperature: 0.7}, opts...)

	body, err := json.Marshal(p.buildRequest(history, options))
	if err != nil {
		return nil, fmt.Errorf("ollama: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.StatusError{Provider: "ollama", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama: %s", out.Error)
	}

	content := strings.TrimSpace(out.Message.Content)
	if content == "" {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.ChatResponse{
		Content: content,
		Model:   out.Model,
		Usage: &llm.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}
