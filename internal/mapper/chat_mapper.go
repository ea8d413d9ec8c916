package mapper

import (
	"med-agent-be/internal/dto"
	"med-agent-be/pkg/store"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ToMessageResponse(msg store.Message) *dto.ChatMessageResponse {
	return &dto.ChatMessageResponse{
		Role: string(msg.Role),
		Chat: msg.Text,
	}
}

// ToHistoryResponse keeps the append order of messages.
func (m *ChatMapper) ToHistoryResponse(sessionId string, messages []store.Message) *dto.GetChatHistoryResponse {
	res := &dto.GetChatHistoryResponse{
		SessionId: sessionId,
		Messages:  make([]*dto.ChatMessageResponse, 0, len(messages)),
	}
	for _, msg := range messages {
		res.Messages = append(res.Messages, m.ToMessageResponse(msg))
	}
	return res
}
