package models

// Display fallbacks used when the backend omits a title
const (
	UntitledChat = "Untitled Chat"
	NewChatTitle = "New Chat"
)

// Chat is one entry of the backend's chat list
type Chat struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ChatHistory is the stored state of the active chat
type ChatHistory struct {
	Messages []Message
	// Model is the model bound to the chat, empty until the first exchange.
	Model string
	Title string
}

// Empty reports whether the chat has no stored messages.
func (h ChatHistory) Empty() bool {
	return len(h.Messages) == 0
}

// DeleteResult is the backend's answer to a delete call.
// Older backends answer {new_chat_id}, newer ones {success, message}.
type DeleteResult struct {
	Success   bool
	Message   string
	NewChatID string
}

// ContainsChat reports whether id is present in chats.
func ContainsChat(chats []Chat, id string) bool {
	for _, c := range chats {
		if c.ID == id {
			return true
		}
	}
	return false
}
