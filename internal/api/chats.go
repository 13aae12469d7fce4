package api

import (
	"context"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/JonasPHenriksen/Ollama-Web-Chat/internal/errors"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
)

// ListModels returns the model names installed on the backend.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	body, err := c.call(ctx, fhttp.MethodGet, EndpointModels)
	if err != nil {
		return nil, err
	}

	result := gjson.ParseBytes(body)
	if msg := result.Get(PathError); msg.Exists() {
		return nil, apierrors.NewParseError(msg.String(), EndpointModels)
	}
	if !result.IsArray() {
		return nil, apierrors.NewParseError("expected a list of model names", EndpointModels)
	}

	var names []string
	result.ForEach(func(_, v gjson.Result) bool {
		if name := strings.TrimSpace(v.String()); name != "" {
			names = append(names, name)
		}
		return true
	})
	return names, nil
}

// ListChats returns every stored chat in backend order.
func (c *Client) ListChats(ctx context.Context) ([]models.Chat, error) {
	body, err := c.call(ctx, fhttp.MethodGet, EndpointListChats)
	if err != nil {
		return nil, err
	}

	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, apierrors.NewParseError("expected a list of chats", EndpointListChats)
	}

	chats := []models.Chat{}
	var parseErr error
	result.ForEach(func(_, v gjson.Result) bool {
		id := v.Get(PathChatID)
		if !id.Exists() || id.String() == "" {
			parseErr = apierrors.NewParseError("chat entry without id", EndpointListChats)
			return false
		}
		title := v.Get(PathChatTitle).String()
		if title == "" {
			title = models.UntitledChat
		}
		chats = append(chats, models.Chat{ID: id.String(), Title: title})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return chats, nil
}

// SwitchChat makes id the session's active chat. An unknown id yields an
// error matching ErrChatNotFound.
func (c *Client) SwitchChat(ctx context.Context, id string) error {
	_, err := c.call(ctx, fhttp.MethodPost, chatPath(EndpointSwitch, id))
	return err
}

// NewChat creates an empty chat and returns its id. The backend also makes
// it the active chat.
func (c *Client) NewChat(ctx context.Context) (string, error) {
	body, err := c.call(ctx, fhttp.MethodPost, EndpointNewChat)
	if err != nil {
		return "", err
	}

	result := gjson.ParseBytes(body)
	if result.Type != gjson.String || result.String() == "" {
		return "", apierrors.NewParseError("expected the new chat id", EndpointNewChat)
	}
	return result.String(), nil
}

// DeleteChat removes a chat. Both answer shapes are accepted:
// {success, message} and {new_chat_id}.
func (c *Client) DeleteChat(ctx context.Context, id string) (models.DeleteResult, error) {
	endpoint := chatPath(EndpointDelete, id)
	body, err := c.call(ctx, fhttp.MethodPost, endpoint)
	if err != nil {
		return models.DeleteResult{}, err
	}

	if !gjson.ValidBytes(body) {
		// plain text answer of older backends
		return models.DeleteResult{Success: true, Message: strings.TrimSpace(string(body))}, nil
	}

	result := gjson.ParseBytes(body)
	res := models.DeleteResult{
		Success:   true,
		Message:   result.Get(PathMessage).String(),
		NewChatID: result.Get(PathNewChatID).String(),
	}
	if s := result.Get(PathSuccess); s.Exists() {
		res.Success = s.Bool()
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "delete failed"
		}
		return res, apierrors.NewAPIError(0, endpoint, msg)
	}
	return res, nil
}

// History returns the active chat's stored messages, bound model and title.
// A bare array (older backends) is read as the message list.
func (c *Client) History(ctx context.Context) (models.ChatHistory, error) {
	body, err := c.call(ctx, fhttp.MethodGet, EndpointHistory)
	if err != nil {
		return models.ChatHistory{}, err
	}

	result := gjson.ParseBytes(body)
	var messages gjson.Result
	h := models.ChatHistory{}
	switch {
	case result.IsArray():
		messages = result
	case result.IsObject():
		messages = result.Get(PathHistory)
		h.Model = result.Get(PathHistoryModel).String()
		h.Title = result.Get(PathHistoryTitle).String()
	default:
		return h, apierrors.NewParseError("expected a history object", EndpointHistory)
	}
	if h.Title == "" {
		h.Title = models.NewChatTitle
	}

	messages.ForEach(func(_, v gjson.Result) bool {
		h.Messages = append(h.Messages, models.Message{
			Role:    models.NormalizeRole(v.Get(PathRole).String()),
			Content: v.Get(PathContent).String(),
		})
		return true
	})
	return h, nil
}
