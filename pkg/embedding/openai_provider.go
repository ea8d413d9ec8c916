package embedding

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider uses the OpenAI embeddings endpoint. text-embedding-3 models
// accept a reduced output dimensionality.
type OpenAIProvider struct {
	client     *goopenai.Client
	model      goopenai.EmbeddingModel
	dimensions int
}

func NewOpenAIProvider(apiKey, model string, dimensions int) EmbeddingProvider {
	if model == "" {
		model = string(goopenai.LargeEmbedding3)
	}
	return &OpenAIProvider{
		client:     goopenai.NewClient(apiKey),
		model:      goopenai.EmbeddingModel(model),
		dimensions: dimensions,
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      p.model,
		Dimensions: p.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: normalizeVector(resp.Data[0].Embedding)},
	}, nil
}
