package render

import (
	"github.com/muesli/termenv"
)

// Markdown style names understood by the renderer. All but ThemeAuto are
// glamour built-ins; anything else is treated as a path to a JSON style.
const (
	ThemeAuto       = "auto"
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeDracula    = "dracula"
	ThemeTokyoNight = "tokyo-night"
	ThemePink       = "pink"
	ThemeNoTTY      = "notty"
	ThemeASCII      = "ascii"
)

// hasDarkBackground is swapped in tests.
var hasDarkBackground = termenv.HasDarkBackground

// ResolveStyle maps a configured style onto something glamour can load.
// "auto" follows the terminal background; "tokyonight" is accepted as an
// alias since the TUI theme uses that spelling.
func ResolveStyle(style string) string {
	switch style {
	case "":
		return ThemeDark
	case ThemeAuto:
		if hasDarkBackground() {
			return ThemeDark
		}
		return ThemeLight
	case "tokyonight":
		return ThemeTokyoNight
	default:
		return style
	}
}

// IsBuiltinStyle reports whether style names a bundled style rather than a file.
func IsBuiltinStyle(style string) bool {
	switch ResolveStyle(style) {
	case ThemeDark, ThemeLight, ThemeDracula, ThemeTokyoNight, ThemePink, ThemeNoTTY, ThemeASCII:
		return true
	default:
		return false
	}
}

// ThemeInfo describes a markdown style for listings.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the bundled markdown styles.
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeDark, Description: "Dark theme (default)"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeAuto, Description: "Dark or light, following the terminal background"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemePink, Description: "Pink accents"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the style names.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
