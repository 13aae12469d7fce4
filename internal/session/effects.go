package session

import "github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"

// EffectKind names a side effect the display must carry out.
type EffectKind int

const (
	// CancelStream discards the in-flight reply named by StreamID.
	CancelStream EffectKind = iota
	// HighlightChat marks ChatID as the active sidebar entry.
	HighlightChat
	// ShowHistory replaces the transcript with History.
	ShowHistory
	// ClearTranscript empties the transcript.
	ClearTranscript
	// RefreshChats redraws the sidebar from the new State.Chats.
	RefreshChats
	// Alert shows Message to the user.
	Alert
)

func (k EffectKind) String() string {
	switch k {
	case CancelStream:
		return "cancel-stream"
	case HighlightChat:
		return "highlight-chat"
	case ShowHistory:
		return "show-history"
	case ClearTranscript:
		return "clear-transcript"
	case RefreshChats:
		return "refresh-chats"
	case Alert:
		return "alert"
	default:
		return "unknown"
	}
}

// Effect is one intent produced by a controller operation.
type Effect struct {
	Kind     EffectKind
	ChatID   string
	StreamID string
	History  models.ChatHistory
	Message  string
}

// Result is the outcome of an operation: the new State and the effects to
// apply, in order.
type Result struct {
	State   State
	Effects []Effect
}

func (r *Result) add(e Effect) {
	r.Effects = append(r.Effects, e)
}

// Kinds lists the effect kinds in order.
func (r Result) Kinds() []EffectKind {
	kinds := make([]EffectKind, len(r.Effects))
	for i, e := range r.Effects {
		kinds[i] = e.Kind
	}
	return kinds
}
