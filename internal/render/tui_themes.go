package render

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme shared by the chat screen and the
// transcript's own decorations (sender labels, code gutters, guides).
type TUITheme struct {
	Name        string
	Description string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	Primary   lipgloss.Color // assistant label, focused borders
	Secondary lipgloss.Color // user label, success flashes
	Accent    lipgloss.Color // active chat in the sidebar
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color // line numbers, badges
	TextMute lipgloss.Color // indent guides
}

var tuiThemes = map[string]TUITheme{
	"tokyonight": {
		Name:        "tokyonight",
		Description: "Tokyo Night - Dark theme with blue accents",
		Background:  "#1a1b26", Surface: "#24283b", Border: "#414868",
		Primary: "#7aa2f7", Secondary: "#9ece6a", Accent: "#bb9af7",
		Warning: "#e0af68", Error: "#f7768e",
		Text: "#c0caf5", TextDim: "#565f89", TextMute: "#3b4261",
	},
	"catppuccin": {
		Name:        "catppuccin",
		Description: "Catppuccin Mocha - Warm dark theme with pastel colors",
		Background:  "#1e1e2e", Surface: "#313244", Border: "#45475a",
		Primary: "#89b4fa", Secondary: "#a6e3a1", Accent: "#cba6f7",
		Warning: "#f9e2af", Error: "#f38ba8",
		Text: "#cdd6f4", TextDim: "#6c7086", TextMute: "#45475a",
	},
	"nord": {
		Name:        "nord",
		Description: "Nord - Arctic-inspired theme with cool tones",
		Background:  "#2e3440", Surface: "#3b4252", Border: "#4c566a",
		Primary: "#88c0d0", Secondary: "#a3be8c", Accent: "#b48ead",
		Warning: "#ebcb8b", Error: "#bf616a",
		Text: "#eceff4", TextDim: "#7b88a1", TextMute: "#4c566a",
	},
	"dracula": {
		Name:        "dracula",
		Description: "Dracula - Dark theme with vibrant colors",
		Background:  "#282a36", Surface: "#44475a", Border: "#6272a4",
		Primary: "#8be9fd", Secondary: "#50fa7b", Accent: "#ff79c6",
		Warning: "#f1fa8c", Error: "#ff5555",
		Text: "#f8f8f2", TextDim: "#6272a4", TextMute: "#44475a",
	},
	"gruvbox": {
		Name:        "gruvbox",
		Description: "Gruvbox - Retro warm dark theme",
		Background:  "#282828", Surface: "#3c3836", Border: "#504945",
		Primary: "#83a598", Secondary: "#b8bb26", Accent: "#d3869b",
		Warning: "#fabd2f", Error: "#fb4934",
		Text: "#ebdbb2", TextDim: "#928374", TextMute: "#504945",
	},
}

// DefaultTUIThemeName is used when the configured theme is unknown.
const DefaultTUIThemeName = "tokyonight"

var (
	themeMu      sync.RWMutex
	currentTheme = tuiThemes[DefaultTUIThemeName]
)

// GetTUITheme returns the active theme.
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetTUITheme activates the named theme and reports whether it exists.
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTheme = theme
	themeMu.Unlock()
	return true
}

// GetTUIThemeByName looks a theme up by name.
func GetTUIThemeByName(name string) (TUITheme, bool) {
	theme, ok := tuiThemes[name]
	return theme, ok
}

// TUIThemeNames returns the theme names, sorted.
func TUIThemeNames() []string {
	names := make([]string, 0, len(tuiThemes))
	for name := range tuiThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
