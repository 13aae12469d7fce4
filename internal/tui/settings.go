package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/config"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
)

const settingsFeedbackDuration = 2 * time.Second

// setting is one editable row of the settings screen. Rows with choices
// open a picker; the others are toggles.
type setting struct {
	key     string
	label   string
	choices func(m SettingsModel) []string
}

var settingRows = []setting{
	{key: "default_model", label: "Default Model", choices: func(m SettingsModel) []string { return m.models }},
	{key: "verbose", label: "Verbose Logging"},
	{key: "copy_to_clipboard", label: "Copy to Clipboard"},
	{key: "markdown.style", label: "Markdown Theme", choices: func(SettingsModel) []string { return render.ThemeNames() }},
	{key: "tui_theme", label: "TUI Theme", choices: func(SettingsModel) []string { return render.TUIThemeNames() }},
	{key: "code.line_numbers", label: "Code Line Numbers"},
	{key: "code.indent_lines", label: "Code Indent Guides"},
}

type settingsFeedbackMsg struct{ seq int }

// SettingsModel edits the persisted configuration. Every change is saved
// at once, so a running chat picks it up through its config watch.
type SettingsModel struct {
	cfg    config.Config
	path   string
	models []string
	save   func(config.Config) error

	cursor   int
	choosing bool
	picker   picker

	feedback    string
	feedbackErr bool
	feedbackSeq int

	width  int
	height int
	ready  bool
}

// NewSettingsModel creates the settings screen. models lists the choices
// for the default model; it may be empty when the server is unreachable.
func NewSettingsModel(cfg config.Config, path string, models []string) SettingsModel {
	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		UpdateTheme()
	}
	return SettingsModel{
		cfg:    cfg,
		path:   path,
		models: models,
		save:   config.SaveConfig,
	}
}

func (m SettingsModel) Init() tea.Cmd {
	return nil
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case settingsFeedbackMsg:
		if msg.seq == m.feedbackSeq {
			m.feedback = ""
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.choosing {
			return m.updateChoice(msg)
		}

		switch msg.String() {
		case "esc", "q":
			return m, tea.Quit
		case "up", "k":
			m.cursor = (m.cursor - 1 + len(settingRows)) % len(settingRows)
		case "down", "j":
			m.cursor = (m.cursor + 1) % len(settingRows)
		case "enter", " ":
			return m.handleSelect()
		}
	}
	return m, nil
}

func (m SettingsModel) handleSelect() (tea.Model, tea.Cmd) {
	row := settingRows[m.cursor]
	current := m.value(row.key)

	if row.choices == nil {
		on, _ := strconv.ParseBool(current)
		cmd := m.apply(row.key, strconv.FormatBool(!on))
		return m, cmd
	}

	choices := row.choices(m)
	if len(choices) == 0 {
		cmd := m.setFeedback("No choices available for "+row.label, true)
		return m, cmd
	}
	items := make([]pickerItem, len(choices))
	for i, c := range choices {
		items[i] = pickerItem{id: c, label: c}
		if c == current {
			items[i].note = "current"
		}
	}
	m.picker = newPicker("Select "+row.label, items, current)
	m.choosing = true
	return m, nil
}

func (m SettingsModel) updateChoice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.choosing = false
		return m, nil
	case "enter":
		m.choosing = false
		it, ok := m.picker.selected()
		if !ok {
			return m, nil
		}
		cmd := m.apply(settingRows[m.cursor].key, it.id)
		return m, cmd
	}
	m.picker = m.picker.update(msg)
	return m, nil
}

// apply stores value under key and saves the file.
func (m *SettingsModel) apply(key, value string) tea.Cmd {
	next := m.cfg
	if err := config.SetValue(&next, key, value); err != nil {
		return m.setFeedback(err.Error(), true)
	}
	if err := m.save(next); err != nil {
		return m.setFeedback("Error: "+err.Error(), true)
	}
	m.cfg = next

	if key == "tui_theme" && render.SetTUITheme(value) {
		UpdateTheme()
	}
	return m.setFeedback(fmt.Sprintf("%s set to %s", key, value), false)
}

func (m *SettingsModel) setFeedback(text string, isErr bool) tea.Cmd {
	m.feedbackSeq++
	m.feedback = text
	m.feedbackErr = isErr
	seq := m.feedbackSeq
	return tea.Tick(settingsFeedbackDuration, func(time.Time) tea.Msg { return settingsFeedbackMsg{seq: seq} })
}

func (m SettingsModel) value(key string) string {
	v, _ := config.GetValue(m.cfg, key)
	return v
}

// Config returns the configuration as last saved.
func (m SettingsModel) Config() config.Config {
	return m.cfg
}

func (m SettingsModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	width := max(m.width-4, 40)

	header := headerStyle.Width(width).Render(titleStyle.Render("✦ Settings"))
	paths := overlayStyle.Width(width).Render(
		subtitleStyle.Render("Config: ") + hintStyle.Render(m.path),
	)

	var body string
	if m.choosing {
		body = m.picker.view(width, []string{
			shortcut("↑↓", "Navigate"),
			shortcut("Enter", "Select"),
			shortcut("Esc", "Back"),
		})
	} else {
		body = overlayStyle.Width(width).Render(m.renderRows())
	}

	sections := []string{header, paths, body}
	if m.feedback != "" {
		style := flashStyle
		if m.feedbackErr {
			style = flashErrorStyle
		}
		sections = append(sections, style.Render(m.feedback))
	}

	bar := strings.Join([]string{
		shortcut("↑↓", "Navigate"),
		shortcut("Enter", "Change"),
		shortcut("Esc", "Exit"),
	}, "  │  ")
	sections = append(sections, statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SettingsModel) renderRows() string {
	labelWidth := 0
	for _, row := range settingRows {
		labelWidth = max(labelWidth, len(row.label))
	}

	var b strings.Builder
	for i, row := range settingRows {
		cursor, style := "  ", menuItemStyle
		if i == m.cursor {
			cursor, style = menuCursorStyle.Render("▸ "), menuSelectedStyle
		}
		b.WriteString(cursor)
		b.WriteString(style.Render(fmt.Sprintf("%-*s", labelWidth, row.label)))
		b.WriteString("   ")
		b.WriteString(m.renderValue(row))
		if i < len(settingRows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m SettingsModel) renderValue(row setting) string {
	v := m.value(row.key)
	if row.choices != nil {
		if v == "" {
			return hintStyle.Render("(server default)")
		}
		return subtitleStyle.Render(v)
	}
	if on, _ := strconv.ParseBool(v); on {
		return flashStyle.Render("enabled")
	}
	return hintStyle.Render("disabled")
}

// RunSettings starts the settings screen.
func RunSettings(cfg config.Config, path string, models []string) error {
	p := tea.NewProgram(NewSettingsModel(cfg, path, models), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
