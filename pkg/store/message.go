package store

// Role identifies the author of a session message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable entry of a session's history.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
