// Package history exports chat transcripts loaded from the backend.
package history

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseFormat accepts a format name or a file extension (".md", ".json").
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "markdown", "md":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use markdown or json)", s)
	}
}

// FormatForPath picks the format from the file extension, falling back to
// markdown.
func FormatForPath(path string) ExportFormat {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return ExportFormatMarkdown
}

// Transcript is one chat as exported.
type Transcript struct {
	ID         string
	Title      string
	Model      string
	Messages   []models.Message
	ExportedAt time.Time
}

// NewTranscript builds a Transcript from a chat's history. The title falls
// back to the one in the chat list.
func NewTranscript(id, title string, h models.ChatHistory) Transcript {
	if h.Title != "" {
		title = h.Title
	}
	if title == "" {
		title = models.UntitledChat
	}
	return Transcript{
		ID:         id,
		Title:      title,
		Model:      h.Model,
		Messages:   h.Messages,
		ExportedAt: time.Now(),
	}
}

// Export renders t in format.
func Export(t Transcript, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatMarkdown:
		return []byte(ToMarkdown(t)), nil
	case ExportFormatJSON:
		return ToJSON(t)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// ToMarkdown exports a conversation to Markdown format
func ToMarkdown(t Transcript) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(t.Title)
	sb.WriteString("\n\n")

	if t.Model != "" {
		sb.WriteString("**Model:** ")
		sb.WriteString(t.Model)
		sb.WriteString("\n")
	}
	if !t.ExportedAt.IsZero() {
		sb.WriteString("**Exported:** ")
		sb.WriteString(t.ExportedAt.Format("2006-01-02 15:04:05"))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(t.Messages)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range t.Messages {
		role := "User"
		if msg.IsAssistant() {
			role = "Assistant"
		}
		sb.WriteString("## ")
		sb.WriteString(role)
		sb.WriteString("\n\n")

		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ToJSON exports a conversation to JSON format
func ToJSON(t Transcript) ([]byte, error) {
	type exportMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	type exportConversation struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Model      string          `json:"model,omitempty"`
		ExportedAt time.Time       `json:"exported_at"`
		Messages   []exportMessage `json:"messages"`
	}

	export := exportConversation{
		ID:         t.ID,
		Title:      t.Title,
		Model:      t.Model,
		ExportedAt: t.ExportedAt,
		Messages:   make([]exportMessage, len(t.Messages)),
	}
	for i, msg := range t.Messages {
		export.Messages[i] = exportMessage{
			Role:    models.NormalizeRole(msg.Role),
			Content: msg.Content,
		}
	}

	return json.MarshalIndent(export, "", "  ")
}
