package factory

import (
	"fmt"

	"med-agent-be/pkg/embedding"
	"med-agent-be/pkg/embedding/jina"
)

type Config struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

func NewEmbeddingProvider(cfg Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings require an API key")
		}
		return embedding.NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.Dimensions), nil
	case "ollama":
		return embedding.NewOllamaProvider(cfg.BaseURL, cfg.Model), nil
	case "gemini":
		return embedding.NewGeminiProvider(cfg.APIKey, cfg.Dimensions), nil
	case "jina":
		return jina.NewJinaProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
