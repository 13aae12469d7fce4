// Package api is the HTTP client for the chat web backend.
package api

import "net/url"

// Backend routes. Chat ids are path-escaped by chatPath.
const (
	EndpointModels    = "/models"
	EndpointListChats = "/list_chats"
	EndpointSwitch    = "/switch_chat/"
	EndpointNewChat   = "/new_chat"
	EndpointDelete    = "/delete_chat/"
	EndpointHistory   = "/history"
	EndpointAsk       = "/ask_stream"
	EndpointVRAM      = "/system/vram"
	EndpointShutdown  = "/system/system_shutdown"
)

// GJSON paths into the backend's JSON answers.
const (
	PathHistory      = "history"
	PathHistoryModel = "model"
	PathHistoryTitle = "title"
	PathChatID       = "id"
	PathChatTitle    = "title"
	PathRole         = "role"
	PathContent      = "content"
	PathError        = "error"
	PathSuccess      = "success"
	PathMessage      = "message"
	PathNewChatID    = "new_chat_id"
	PathVRAMUsed     = "vram_used_mb"
	PathVRAMTotal    = "vram_total_mb"
)

func chatPath(prefix, id string) string {
	return prefix + url.PathEscape(id)
}
