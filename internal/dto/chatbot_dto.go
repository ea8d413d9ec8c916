package dto

type SendChatRequest struct {
	SessionId string `json:"session_id" validate:"omitempty,max=128"`
	Chat      string `json:"chat" validate:"required,max=2000"`
}

type SendChatResponse struct {
	SessionId string `json:"session_id"`
	Reply     string `json:"reply"`
}

type ChatMessageResponse struct {
	Role string `json:"role"`
	Chat string `json:"chat"`
}

type GetChatHistoryResponse struct {
	SessionId string                 `json:"session_id"`
	Messages  []*ChatMessageResponse `json:"messages"`
}
