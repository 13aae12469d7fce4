package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
)

const (
	sidebarWidth    = 30
	minWidthSidebar = 90
)

// renderSidebar lists the chats, newest last as the server returns them,
// with the active one marked. Titles are cut to the panel width.
func renderSidebar(chats []models.Chat, activeID string, height int) string {
	inner := sidebarWidth - 4

	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Chats"))
	b.WriteString("\n")

	rows := height - 4
	start := 0
	if active := chatIndex(chats, activeID); rows > 0 && active >= rows {
		start = active - rows + 1
	}

	for i := start; i < len(chats); i++ {
		if rows > 0 && i-start >= rows {
			b.WriteString(hintStyle.Render("  ↓ more"))
			break
		}
		title := chats[i].Title
		if title == "" {
			title = models.UntitledChat
		}
		if chats[i].ID == activeID {
			b.WriteString(sidebarActiveStyle.Render("▸ " + truncate(title, inner-2)))
		} else {
			b.WriteString(sidebarItemStyle.Render("  " + truncate(title, inner-2)))
		}
		b.WriteString("\n")
	}
	if len(chats) == 0 {
		b.WriteString(hintStyle.Render("No chats"))
	}

	return sidebarStyle.
		Width(sidebarWidth - 2).
		Height(height - 2).
		Render(strings.TrimRight(b.String(), "\n"))
}

func chatIndex(chats []models.Chat, id string) int {
	for i, c := range chats {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// truncate cuts s to width display cells, ending in an ellipsis when cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// centerIn places block in the middle of a width x height area.
func centerIn(block string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, block)
}
