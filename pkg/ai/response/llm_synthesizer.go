package response

import (
	"context"
	"fmt"

	"med-agent-be/internal/constant"
	"med-agent-be/pkg/llm"
)

// LLMSynthesizer rewrites answer bodies with a chat model.
type LLMSynthesizer struct {
	provider llm.LLMProvider
}

func NewLLMSynthesizer(provider llm.LLMProvider) *LLMSynthesizer {
	return &LLMSynthesizer{provider: provider}
}

func (s *LLMSynthesizer) Synthesize(ctx context.Context, question, body string) (string, error) {
	out, err := s.provider.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.SynthesisSystemPrompt},
		{Role: constant.ChatMessageRoleUser, Content: fmt.Sprintf("User question: %s\n\nSections:\n%s", question, body)},
	}, llm.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return out, nil
}
