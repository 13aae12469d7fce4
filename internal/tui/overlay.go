package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayModels
	overlayChats
	overlayConfirm
)

// picker is a filterable single-choice list.
type picker struct {
	title  string
	items  []pickerItem
	cursor int
	filter string
}

type pickerItem struct {
	id    string
	label string
	note  string
}

func newPicker(title string, items []pickerItem, selected string) picker {
	p := picker{title: title, items: items}
	for i, it := range items {
		if it.id == selected {
			p.cursor = i
		}
	}
	return p
}

func (p picker) filtered() []pickerItem {
	if p.filter == "" {
		return p.items
	}
	filter := strings.ToLower(p.filter)
	var out []pickerItem
	for _, it := range p.items {
		if strings.Contains(strings.ToLower(it.label), filter) {
			out = append(out, it)
		}
	}
	return out
}

// selected returns the item under the cursor.
func (p picker) selected() (pickerItem, bool) {
	items := p.filtered()
	if p.cursor < 0 || p.cursor >= len(items) {
		return pickerItem{}, false
	}
	return items[p.cursor], true
}

// update handles navigation and filter typing. Enter and Esc are left to
// the caller.
func (p picker) update(msg tea.KeyMsg) picker {
	n := len(p.filtered())
	switch msg.String() {
	case "up", "ctrl+p":
		if n > 0 {
			p.cursor = (p.cursor - 1 + n) % n
		}
	case "down", "ctrl+n":
		if n > 0 {
			p.cursor = (p.cursor + 1) % n
		}
	case "backspace":
		if len(p.filter) > 0 {
			r := []rune(p.filter)
			p.filter = string(r[:len(r)-1])
			p.cursor = 0
		}
	default:
		if msg.Type == tea.KeyRunes {
			p.filter += string(msg.Runes)
			p.cursor = 0
		}
	}
	return p
}

func (p picker) view(width int, hints []string) string {
	var content strings.Builder
	content.WriteString(overlayTitleStyle.Render(p.title))
	content.WriteString("\n\n")

	if p.filter != "" {
		content.WriteString(inputLabelStyle.Render("Filter:") + p.filter + "_")
		content.WriteString("\n\n")
	}

	items := p.filtered()
	if len(items) == 0 {
		content.WriteString(hintStyle.Render("  Nothing matches"))
		content.WriteString("\n")
	}

	const maxItems = 10
	start := 0
	if p.cursor >= maxItems {
		start = p.cursor - maxItems + 1
	}
	end := min(start+maxItems, len(items))
	if start > 0 {
		content.WriteString(hintStyle.Render("  ↑ more above"))
		content.WriteString("\n")
	}
	for i := start; i < end; i++ {
		it := items[i]
		label := truncate(it.label, width-10)
		line := "  " + menuItemStyle.Render(label)
		if i == p.cursor {
			line = menuCursorStyle.Render("▸ ") + menuSelectedStyle.Render(label)
		}
		if it.note != "" {
			line += hintStyle.Render("  " + it.note)
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	if end < len(items) {
		content.WriteString(hintStyle.Render("  ↓ more below"))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(strings.Join(hints, "  │  "))

	return overlayStyle.Width(width).Render(content.String())
}

type confirmAction int

const (
	confirmDelete confirmAction = iota
	confirmShutdown
)

// confirmation is a yes/no question guarding a destructive action.
type confirmation struct {
	question string
	action   confirmAction
	chatID   string
}

func (c confirmation) view(width int) string {
	body := fmt.Sprintf("%s\n\n%s  %s",
		confirmPromptStyle.Render(c.question),
		statusKeyStyle.Render("y")+statusDescStyle.Render(" Yes"),
		statusKeyStyle.Render("n/Esc")+statusDescStyle.Render(" No"),
	)
	return overlayStyle.Width(width).Render(body)
}

func shortcut(key, desc string) string {
	return statusKeyStyle.Render(key) + statusDescStyle.Render(" "+desc)
}
