// Package tui provides the interactive chat screen for ollamachat.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
)

// Color variables (updated from theme)
var (
	colorBorder lipgloss.Color

	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	messagesAreaStyle lipgloss.Style

	// Sidebar
	sidebarStyle       lipgloss.Style
	sidebarTitleStyle  lipgloss.Style
	sidebarItemStyle   lipgloss.Style
	sidebarActiveStyle lipgloss.Style

	inputPanelStyle  lipgloss.Style
	inputLabelStyle  lipgloss.Style
	attachmentStyle  lipgloss.Style
	lockedModelStyle lipgloss.Style

	loadingStyle lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style
	vramStyle       lipgloss.Style

	flashStyle      lipgloss.Style
	flashErrorStyle lipgloss.Style
	errorStyle      lipgloss.Style

	welcomeStyle      lipgloss.Style
	welcomeTitleStyle lipgloss.Style
	welcomeIconStyle  lipgloss.Style

	// Overlays
	overlayStyle       lipgloss.Style
	overlayTitleStyle  lipgloss.Style
	menuItemStyle      lipgloss.Style
	menuSelectedStyle  lipgloss.Style
	menuCursorStyle    lipgloss.Style
	confirmPromptStyle lipgloss.Style
)

func init() {
	UpdateTheme()
}

// UpdateTheme refreshes all styles based on the current TUI theme
func UpdateTheme() {
	theme := render.GetTUITheme()

	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute

	rebuildStyles()
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	sidebarTitleStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true).
		MarginBottom(1)

	sidebarItemStyle = lipgloss.NewStyle().
		Foreground(colorText)

	sidebarActiveStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginRight(1)

	attachmentStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	lockedModelStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	vramStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	flashStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true)

	flashErrorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	welcomeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Align(lipgloss.Center)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Align(lipgloss.Center)

	welcomeIconStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Align(lipgloss.Center)

	overlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	overlayTitleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true)

	menuItemStyle = lipgloss.NewStyle().
		Foreground(colorText)

	menuSelectedStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	menuCursorStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	confirmPromptStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true)
}
