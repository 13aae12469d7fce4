package models

import "strings"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one committed chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizeRole maps stored role names onto RoleUser or RoleAssistant.
// Older chats store the assistant as "ai".
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "human":
		return RoleUser
	case "assistant", "ai", "model":
		return RoleAssistant
	default:
		return strings.ToLower(strings.TrimSpace(role))
	}
}

// IsAssistant reports whether the message was written by the model.
func (m Message) IsAssistant() bool {
	return NormalizeRole(m.Role) == RoleAssistant
}
