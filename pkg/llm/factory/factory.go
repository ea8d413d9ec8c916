package factory

import (
	"fmt"
	"time"

	"med-agent-be/pkg/llm"
	"med-agent-be/pkg/llm/ollama"
	"med-agent-be/pkg/llm/openai"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model, cfg.Timeout), nil
	case "openai", "":
		return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "huggingface":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://router.huggingface.co/v1"
		}
		return openai.NewProvider(cfg.APIKey, baseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
