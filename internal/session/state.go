// Package session is the chat-session state machine: which chat is active,
// whether its model may still change, and how list, switch, create and
// delete keep the client consistent with the backend.
package session

import (
	"errors"

	apierrors "github.com/JonasPHenriksen/Ollama-Web-Chat/internal/errors"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
)

var (
	// ErrEmptySubmission marks a submit with no prompt and no image; callers ignore it.
	ErrEmptySubmission = errors.New("nothing to send")
	// ErrModelLocked is returned when changing the model of a chat that has history.
	ErrModelLocked = errors.New("model is fixed once a chat has messages")
	// ErrStreamInFlight is returned when submitting while a reply is streaming.
	ErrStreamInFlight = apierrors.ErrStreamInFlight
)

// State is the client's view of the session. It is a value: operations
// return a new State instead of mutating shared globals.
type State struct {
	Chats    []models.Chat
	ActiveID string
	Title    string

	// Model is the picker's value; once the chat has history it is the
	// chat's bound model.
	Model string
	// Locked disables the model picker.
	Locked bool

	// Messages counts the stored messages of the active chat.
	Messages int

	// StreamID is set while a reply is streaming.
	StreamID string
	// lockedBeforeSubmit restores the picker if the stream fails.
	lockedBeforeSubmit bool
}

// HasChats reports whether any chat exists. With none the session is in
// its NoChats state.
func (s State) HasChats() bool { return len(s.Chats) > 0 }

// Streaming reports whether a reply is in flight.
func (s State) Streaming() bool { return s.StreamID != "" }

// Header is the chat title line, "title (model)".
func (s State) Header() string {
	title := s.Title
	if title == "" {
		title = models.NewChatTitle
	}
	return title + " (" + s.Model + ")"
}

// SelectModel changes the picker's value unless the chat's model is fixed.
func (s State) SelectModel(model string) (State, error) {
	if s.Locked {
		return s, ErrModelLocked
	}
	s.Model = model
	return s, nil
}

// applyHistory takes over the chat's stored model, if any, and locks the
// picker as soon as the chat has messages.
func (s State) applyHistory(h models.ChatHistory) State {
	s.Messages = len(h.Messages)
	if h.Title != "" {
		s.Title = h.Title
	}
	if h.Model != "" {
		s.Model = h.Model
	}
	s.Locked = !h.Empty()
	return s
}
