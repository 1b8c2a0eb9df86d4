package embedding

import (
	"context"
	"strings"

	"kt-assistant-be/pkg/llm"
	llmopenai "kt-assistant-be/pkg/llm/openai"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider covers any endpoint speaking the OpenAI /embeddings API.
type OpenAIProvider struct {
	client    *goopenai.Client
	model     string
	dimension int
}

func NewOpenAIProvider(apiKey, baseURL, model string, dimension int) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = string(goopenai.SmallEmbedding3)
	}
	return &OpenAIProvider{
		client:    goopenai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input:      []string{text},
		Model:      goopenai.EmbeddingModel(p.model),
		Dimensions: p.dimension,
	})
	if err != nil {
		return nil, llmopenai.ClassifyError(err)
	}
	if len(resp.Data) == 0 {
		return nil, llm.ErrEmptyResponse
	}
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: resp.Data[0].Embedding},
	}, nil
}
