package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	mainWidth := m.width
	if m.showSidebar() {
		mainWidth -= sidebarWidth
	}
	contentWidth := mainWidth - 2

	var sections []string
	sections = append(sections, m.renderHeader(contentWidth))

	var messages string
	if m.transcript.empty() {
		messages = m.renderWelcome()
	} else {
		messages = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messages))

	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(m.renderInput()))
	sections = append(sections, m.renderStatusBar(contentWidth))

	main := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.showSidebar() {
		main = lipgloss.JoinHorizontal(lipgloss.Top,
			renderSidebar(m.state.Chats, m.state.ActiveID, lipgloss.Height(main)),
			main,
		)
	}

	switch m.overlay {
	case overlayModels:
		return centerIn(m.picker.view(overlayWidth(m.width), []string{
			shortcut("↑↓", "Navigate"), shortcut("Enter", "Select"), shortcut("Esc", "Cancel"),
		}), m.width, m.height)
	case overlayChats:
		return centerIn(m.picker.view(overlayWidth(m.width), []string{
			shortcut("Enter", "Open"), shortcut("Ctrl+N", "New"), shortcut("Ctrl+D", "Delete"), shortcut("Esc", "Close"),
		}), m.width, m.height)
	case overlayConfirm:
		return centerIn(m.confirm.view(overlayWidth(m.width)), m.width, m.height)
	}
	return main
}

func overlayWidth(width int) int {
	w := width - 8
	if w > 70 {
		w = 70
	}
	if w < 30 {
		w = 30
	}
	return w
}

// renderHeader shows "title (model)". A bound model is marked as fixed.
func (m Model) renderHeader(width int) string {
	title := titleStyle.Render(truncate(m.state.Header(), width-16))
	if m.state.Locked && !m.state.Streaming() {
		title += lockedModelStyle.Render("  ● fixed")
	}
	if m.modelsNote != "" {
		title += errorStyle.Render("  " + m.modelsNote)
	}
	if m.pending {
		title += hintStyle.Render("  loading…")
	}
	return headerStyle.Width(width).Render(title)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 2
	height := m.viewport.Height

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		welcomeIconStyle.Width(width).Render("◆"),
		"",
		welcomeTitleStyle.Width(width).Render("Ollama Chat"),
		"",
		welcomeStyle.Width(width).Render("Start a conversation by typing a message below"),
	)

	top := (height - lipgloss.Height(content)) / 2
	if top < 0 {
		top = 0
	}
	return strings.Repeat("\n", top) + content
}

func (m Model) renderInput() string {
	if m.state.Streaming() {
		return m.spinner.View() + loadingStyle.Render(" "+m.state.Model+" is answering") +
			hintStyle.Render("  (Esc to stop)")
	}

	label := inputLabelStyle.Render("You")
	if m.attachment != nil {
		label += attachmentStyle.Render("🖼 " + m.attachment.FileName)
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View())
}

// renderStatusBar shows the flash message when there is one, otherwise the
// shortcuts; VRAM usage sits on the right.
func (m Model) renderStatusBar(width int) string {
	var left string
	switch {
	case m.flash != "" && m.flashErr:
		left = flashErrorStyle.Render(m.flash)
	case m.flash != "":
		left = flashStyle.Render(m.flash)
	default:
		left = strings.Join([]string{
			shortcut("Enter", "Send"),
			shortcut("Ctrl+O", "Model"),
			shortcut("Ctrl+L", "Chats"),
			shortcut("Ctrl+N", "New"),
			shortcut("Ctrl+Y", "Copy"),
			shortcut("Esc", "Quit"),
		}, "  ")
	}

	right := vramStyle.Render(m.vram)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return statusBarStyle.Width(width).Render(ansi.Truncate(left, width, "…"))
	}
	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
