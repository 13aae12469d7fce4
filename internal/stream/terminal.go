package stream

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
)

// TerminalSink redraws the reply in place at the bottom of a terminal.
// The region it owns is erased and rewritten on every update.
type TerminalSink struct {
	w     io.Writer
	width int
	rows  int
}

// NewTerminalSink writes to w, wrapping at width columns (0 for no wrap).
func NewTerminalSink(w io.Writer, width int) *TerminalSink {
	return &TerminalSink{w: w, width: width}
}

// Position reports the bottom; a plain terminal always follows output.
func (s *TerminalSink) Position() ScrollPosition { return ScrollPosition{} }

func (s *TerminalSink) Show(u Update) {
	s.redraw(u.Node.View(nil))
}

func (s *TerminalSink) ShowError(node *render.Node) {
	s.redraw(node.View(nil))
}

// Close ends the region with a newline so later output starts below it.
func (s *TerminalSink) Close() {
	if s.rows > 0 {
		fmt.Fprintln(s.w)
	}
	s.rows = 0
}

func (s *TerminalSink) redraw(view string) {
	var b strings.Builder
	if s.rows > 1 {
		fmt.Fprintf(&b, "\x1b[%dA", s.rows-1)
	}
	b.WriteString("\r\x1b[J")
	b.WriteString(view)
	_, _ = io.WriteString(s.w, b.String())
	s.rows = s.countRows(view)
}

// countRows returns how many terminal rows view occupies after wrapping.
func (s *TerminalSink) countRows(view string) int {
	rows := 0
	for _, line := range strings.Split(view, "\n") {
		w := ansi.StringWidth(line)
		if s.width <= 0 || w <= s.width {
			rows++
			continue
		}
		rows += (w + s.width - 1) / s.width
	}
	return rows
}

// RawSink writes only the new text of each chunk, for pipes and --raw.
type RawSink struct {
	w io.Writer
}

// NewRawSink writes deltas to w.
func NewRawSink(w io.Writer) *RawSink {
	return &RawSink{w: w}
}

func (s *RawSink) Position() ScrollPosition { return ScrollPosition{} }

func (s *RawSink) Show(u Update) {
	_, _ = io.WriteString(s.w, u.Delta)
}

func (s *RawSink) ShowError(node *render.Node) {
	_, _ = io.WriteString(s.w, "\n"+ansi.Strip(node.View(nil))+"\n")
}
