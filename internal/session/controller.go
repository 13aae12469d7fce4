package session

import (
	"context"
	"strings"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
)

// Alert prefixes shown when an operation fails.
const (
	SwitchErrorPrefix  = "Error switching chat: "
	CreateErrorPrefix  = "Error starting new chat: "
	DeleteErrorPrefix  = "Error deleting chat: "
	HistoryErrorPrefix = "Error loading chat history: "
	ListErrorPrefix    = "Error loading chats: "
)

// Backend is the part of the chat server the session drives.
type Backend interface {
	ListChats(ctx context.Context) ([]models.Chat, error)
	SwitchChat(ctx context.Context, id string) error
	NewChat(ctx context.Context) (string, error)
	DeleteChat(ctx context.Context, id string) (models.DeleteResult, error)
	History(ctx context.Context) (models.ChatHistory, error)
}

// LastChatStore remembers the last active chat across runs.
type LastChatStore interface {
	LastChatID() string
	SetLastChatID(id string) error
}

// Controller runs session operations against a Backend. It holds no
// session state of its own; every operation takes and returns a State.
type Controller struct {
	backend Backend
	store   LastChatStore
}

// NewController returns a Controller. store may be nil, in which case the
// last chat is not remembered.
func NewController(backend Backend, store LastChatStore) *Controller {
	return &Controller{backend: backend, store: store}
}

func (c *Controller) lastChatID() string {
	if c.store == nil {
		return ""
	}
	return c.store.LastChatID()
}

func (c *Controller) remember(id string) {
	if c.store == nil {
		return
	}
	if err := c.store.SetLastChatID(id); err != nil {
		logger.Warnf("failed to remember chat %s: %v", id, err)
	}
}

// failure builds an alert result that leaves st untouched.
func failure(st State, prefix string, err error) (Result, error) {
	res := Result{State: st}
	res.add(Effect{Kind: Alert, Message: prefix + err.Error()})
	return res, err
}

// List loads the chat list and enters a chat: the remembered one if it
// still exists, otherwise the first. With no chats a new one is created.
func (c *Controller) List(ctx context.Context, st State) (Result, error) {
	chats, err := c.backend.ListChats(ctx)
	if err != nil {
		return failure(st, ListErrorPrefix, err)
	}
	st.Chats = chats

	if len(chats) == 0 {
		logger.Debugf("no chats on server, starting one")
		return c.Create(ctx, st)
	}

	target := chats[0].ID
	if last := c.lastChatID(); last != "" && models.ContainsChat(chats, last) {
		target = last
	}

	res, err := c.Switch(ctx, st, target)
	res.Effects = append([]Effect{{Kind: RefreshChats}}, res.Effects...)
	return res, err
}

// RefreshList reloads the chat list without changing the active chat. It
// picks up titles the server assigns after the first exchange.
func (c *Controller) RefreshList(ctx context.Context, st State) (Result, error) {
	chats, err := c.backend.ListChats(ctx)
	if err != nil {
		return failure(st, ListErrorPrefix, err)
	}
	st.Chats = chats
	for _, chat := range chats {
		if chat.ID == st.ActiveID && chat.Title != "" {
			st.Title = chat.Title
		}
	}
	res := Result{State: st}
	res.add(Effect{Kind: RefreshChats})
	if st.ActiveID != "" {
		res.add(Effect{Kind: HighlightChat, ChatID: st.ActiveID})
	}
	return res, nil
}

// Switch makes id the active chat and loads its history. On failure the
// previous chat stays active. A stream in flight is discarded once the
// server has accepted the switch.
func (c *Controller) Switch(ctx context.Context, st State, id string) (Result, error) {
	if err := c.backend.SwitchChat(ctx, id); err != nil {
		return failure(st, SwitchErrorPrefix, err)
	}

	res := Result{}
	if st.Streaming() {
		res.add(Effect{Kind: CancelStream, StreamID: st.StreamID})
		st = st.endStream(false)
	}

	st.ActiveID = id
	st.Title = titleOf(st.Chats, id)
	res.add(Effect{Kind: HighlightChat, ChatID: id})
	c.remember(id)

	history, err := c.backend.History(ctx)
	if err != nil {
		logger.Warnf("failed to load history of chat %s: %v", id, err)
		res.add(Effect{Kind: Alert, Message: HistoryErrorPrefix + err.Error()})
		res.State = st
		return res, err
	}

	if history.Title == "" {
		history.Title = st.Title
	}
	st = st.applyHistory(history)
	res.add(Effect{Kind: ShowHistory, ChatID: id, History: history})
	res.State = st
	return res, nil
}

// Create starts a new chat on the server, refreshes the list and switches
// into it.
func (c *Controller) Create(ctx context.Context, st State) (Result, error) {
	id, err := c.backend.NewChat(ctx)
	if err != nil {
		return failure(st, CreateErrorPrefix, err)
	}
	logger.Infof("created chat %s", id)

	chats, err := c.backend.ListChats(ctx)
	if err != nil {
		return failure(st, CreateErrorPrefix, err)
	}
	st.Chats = chats

	res, err := c.Switch(ctx, st, id)
	res.Effects = append([]Effect{{Kind: RefreshChats}}, res.Effects...)
	return res, err
}

// Delete removes chat id. The caller confirms with the user first. If chats
// remain the first one becomes active; otherwise the transcript is cleared,
// the picker is unlocked and a fresh chat is started.
func (c *Controller) Delete(ctx context.Context, st State, id string) (Result, error) {
	result, err := c.backend.DeleteChat(ctx, id)
	if err != nil {
		return failure(st, DeleteErrorPrefix, err)
	}
	logger.WithFields(logger.Fields{"chat": id, "message": result.Message}).Info("chat deleted")

	res := Result{}
	if st.Streaming() && st.ActiveID == id {
		res.add(Effect{Kind: CancelStream, StreamID: st.StreamID})
		st = st.endStream(false)
	}

	chats, err := c.backend.ListChats(ctx)
	if err != nil {
		res.add(Effect{Kind: Alert, Message: DeleteErrorPrefix + err.Error()})
		res.State = st
		return res, err
	}
	st.Chats = chats
	res.add(Effect{Kind: RefreshChats})

	if len(chats) > 0 {
		next, err := c.Switch(ctx, st, chats[0].ID)
		next.Effects = append(res.Effects, next.Effects...)
		return next, err
	}

	st.ActiveID = ""
	st.Title = ""
	st.Messages = 0
	st.Locked = false
	res.add(Effect{Kind: ClearTranscript})

	next, err := c.Create(ctx, st)
	next.Effects = append(res.Effects, next.Effects...)
	return next, err
}

// BeginSubmit marks a reply as streaming under streamID. The picker is
// locked for the duration. An empty submission returns ErrEmptySubmission
// and a second one while streaming returns ErrStreamInFlight.
func BeginSubmit(st State, prompt string, hasImage bool, streamID string) (State, error) {
	if strings.TrimSpace(prompt) == "" && !hasImage {
		return st, ErrEmptySubmission
	}
	if st.Streaming() {
		return st, ErrStreamInFlight
	}
	st.lockedBeforeSubmit = st.Locked
	st.Locked = true
	st.StreamID = streamID
	return st, nil
}

// EndSubmit closes the stream streamID. A stale id is ignored. On success
// the chat has messages and its model is fixed; on failure the picker goes
// back to how it was before the submit.
func EndSubmit(st State, streamID string, err error) State {
	if st.StreamID != streamID {
		return st
	}
	return st.endStream(err == nil)
}

// Cancel discards the stream in flight, if any.
func Cancel(st State) Result {
	res := Result{State: st}
	if !st.Streaming() {
		return res
	}
	res.add(Effect{Kind: CancelStream, StreamID: st.StreamID})
	res.State = st.endStream(false)
	return res
}

func (s State) endStream(ok bool) State {
	s.StreamID = ""
	if ok {
		s.Messages += 2
		s.Locked = true
	} else {
		s.Locked = s.lockedBeforeSubmit
	}
	s.lockedBeforeSubmit = false
	return s
}

func titleOf(chats []models.Chat, id string) string {
	for _, c := range chats {
		if c.ID == id {
			return c.Title
		}
	}
	return ""
}

// Reconcile merges the result of an operation that started from an older
// snapshot into the current State. Results that navigate (load a history,
// clear the transcript or move the highlight) replace it; the rest only
// bring the chat list and the active chat's title up to date.
func Reconcile(current State, res Result) State {
	for _, e := range res.Effects {
		switch {
		case e.Kind == ShowHistory, e.Kind == ClearTranscript:
			return res.State
		case e.Kind == HighlightChat && e.ChatID != current.ActiveID:
			return res.State
		}
	}
	if res.State.Chats != nil {
		current.Chats = res.State.Chats
	}
	if res.State.ActiveID == current.ActiveID && res.State.Title != "" {
		current.Title = res.State.Title
	}
	return current
}
