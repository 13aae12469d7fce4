package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// IndentMarker is the abstract marker one indent unit collapses into.
const IndentMarker = "\t"

// HighlightFunc turns a whole code block into highlighted markup.
type HighlightFunc func(code string) (string, error)

// PlainHighlight returns code unchanged.
func PlainHighlight(code string) (string, error) { return code, nil }

// CodeOptions controls the code block gutter and indent guides.
type CodeOptions struct {
	LineNumbers bool
	IndentLines bool
}

// DefaultCodeOptions enables both line numbers and indent guides.
func DefaultCodeOptions() CodeOptions {
	return CodeOptions{LineNumbers: true, IndentLines: true}
}

// CodeLine is one rendered row of a code block.
type CodeLine struct {
	// Depth is the number of indent markers drawn before Text.
	Depth int
	// Text is the highlighted markup with its indentation removed.
	Text string
	// Blank rows carry no text; in-scope blank rows still draw Depth markers.
	Blank   bool
	InScope bool
}

// FormattedCode is a code block after indent normalization.
type FormattedCode struct {
	Unit    int
	Numbers int
	Lines   []CodeLine
	Options CodeOptions
}

// FormatCode highlights code and collapses its leading indentation into
// markers of Unit spaces each. Blank lines inside an indented region keep
// the depth of the line above them, so guides stay continuous.
func FormatCode(code string, highlight HighlightFunc, opts CodeOptions) (FormattedCode, error) {
	if highlight == nil {
		highlight = PlainHighlight
	}

	fc := FormattedCode{
		Unit:    DetectIndent(code),
		Options: opts,
	}

	if opts.LineNumbers {
		code = strings.TrimRightFunc(code, isSpace)
		fc.Numbers = strings.Count(code, "\n") + 1
	}
	sourceRows := strings.Count(code, "\n") + 1

	markup, err := highlight(code)
	if err != nil {
		return FormattedCode{}, fmt.Errorf("highlight failed: %w", err)
	}

	rows := strings.Split(markup, "\n")
	// highlighters tend to terminate the last line
	for len(rows) > sourceRows && strings.TrimSpace(ansi.Strip(rows[len(rows)-1])) == "" {
		rows = rows[:len(rows)-1]
	}

	wasInScope := false
	prevDepth := 0
	for _, row := range rows {
		depth, rest, hasSpace := splitIndent(row, fc.Unit)
		blank := strings.TrimSpace(ansi.Strip(rest)) == ""

		line := CodeLine{Blank: blank}
		line.InScope = hasSpace || (wasInScope && blank)

		switch {
		case !blank:
			line.Depth = depth
			line.Text = rest
		case line.InScope:
			line.Depth = prevDepth
		}

		fc.Lines = append(fc.Lines, line)
		wasInScope = line.InScope
		prevDepth = line.Depth
	}

	return fc, nil
}

// Markup renders the block in its abstract form: markers for indentation,
// a newline after every non-blank row, markers only for in-scope blank rows
// and a bare newline for the others.
func (fc FormattedCode) Markup() string {
	var b strings.Builder
	for _, line := range fc.Lines {
		switch {
		case !line.Blank:
			b.WriteString(strings.Repeat(IndentMarker, line.Depth))
			b.WriteString(line.Text)
			b.WriteByte('\n')
		case line.InScope:
			b.WriteString(strings.Repeat(IndentMarker, line.Depth))
		default:
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Plain returns the block's rows with markers expanded back into spaces.
func (fc FormattedCode) Plain() string {
	rows := make([]string, len(fc.Lines))
	for i, line := range fc.Lines {
		if line.Blank {
			continue
		}
		rows[i] = strings.Repeat(" ", line.Depth*fc.Unit) + ansi.Strip(line.Text)
	}
	return strings.Join(rows, "\n")
}

// Render draws the block for a terminal: an optional right-aligned number
// gutter, then one guide per marker padded to the unit width.
func (fc FormattedCode) Render() string {
	unit := fc.Unit
	if unit < 1 {
		unit = DefaultIndentUnit
	}
	theme := GetTUITheme()
	gutterStyle := lipgloss.NewStyle().Foreground(theme.TextDim)
	guide := lipgloss.NewStyle().Foreground(theme.TextMute).Render("│" + strings.Repeat(" ", unit-1))
	pad := strings.Repeat(" ", unit)
	numWidth := len(fmt.Sprint(fc.Numbers))

	rows := make([]string, 0, len(fc.Lines))
	for i, line := range fc.Lines {
		var b strings.Builder
		if fc.Numbers > 0 {
			num := ""
			if i < fc.Numbers {
				num = fmt.Sprint(i + 1)
			}
			b.WriteString(gutterStyle.Render(fmt.Sprintf("%*s │ ", numWidth, num)))
		}
		indent := pad
		if fc.Options.IndentLines {
			indent = guide
		}
		if !line.Blank || line.InScope {
			b.WriteString(strings.Repeat(indent, line.Depth))
		}
		b.WriteString(line.Text)
		b.WriteString("\x1b[0m")
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}

// splitIndent strips the leading whitespace of a highlighted row and
// reports how many markers it is worth. Escape sequences ahead of the
// whitespace are kept in rest. Tabs count as one marker; a leftover run
// shorter than unit stays in rest.
func splitIndent(row string, unit int) (depth int, rest string, hasSpace bool) {
	var escapes strings.Builder
	spaces := 0
	i := 0
loop:
	for i < len(row) {
		switch row[i] {
		case '\x1b':
			n := escapeLen(row[i:])
			escapes.WriteString(row[i : i+n])
			i += n
		case ' ':
			spaces++
			i++
		case '\t':
			depth += spaces / unit
			spaces %= unit
			depth++
			i++
		default:
			break loop
		}
	}
	hasSpace = depth > 0 || spaces > 0

	depth += spaces / unit
	spaces %= unit
	return depth, escapes.String() + strings.Repeat(" ", spaces) + row[i:], hasSpace
}

// escapeLen returns the byte length of the CSI sequence at the start of s.
func escapeLen(s string) int {
	if len(s) < 2 || s[1] != '[' {
		return 1
	}
	for i := 2; i < len(s); i++ {
		if s[i] >= 0x40 && s[i] <= 0x7e {
			return i + 1
		}
	}
	return len(s)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
