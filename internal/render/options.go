// Package render turns chat messages into terminal output: glamour for
// prose, chroma plus indent guides for fenced code.
package render

// Options configures message rendering.
type Options struct {
	// Width is the wrap width for prose (default: 80)
	Width int

	// Style is a glamour style name, "auto", or a path to a JSON style
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool

	// Code controls line numbers and indent guides of fenced blocks
	Code CodeOptions

	// CodeStyle is the chroma style for fenced blocks
	CodeStyle string
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            ThemeDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
		Code:             DefaultCodeOptions(),
		CodeStyle:        DefaultCodeStyle,
	}
}

func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}

func (o Options) WithPreserveNewLines(enabled bool) Options {
	o.PreserveNewLines = enabled
	return o
}

func (o Options) WithTableWrap(enabled bool) Options {
	o.TableWrap = enabled
	return o
}

func (o Options) WithInlineTableLinks(enabled bool) Options {
	o.InlineTableLinks = enabled
	return o
}

// WithCode returns Options with the given code block settings.
func (o Options) WithCode(code CodeOptions) Options {
	o.Code = code
	return o
}

// WithCodeStyle returns Options with the given chroma style.
func (o Options) WithCodeStyle(style string) Options {
	o.CodeStyle = style
	return o
}
