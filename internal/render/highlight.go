package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultCodeStyle is the chroma style used when none is configured.
const DefaultCodeStyle = "monokai"

// Highlighter produces chroma-backed HighlightFuncs.
type Highlighter struct {
	Style     string
	Formatter string
}

// NewChromaHighlighter returns a Highlighter for the named chroma style
// writing 256-color terminal escapes.
func NewChromaHighlighter(style string) Highlighter {
	if style == "" {
		style = DefaultCodeStyle
	}
	return Highlighter{Style: style, Formatter: "terminal256"}
}

// Func returns a HighlightFunc for a block. lang is the fence's info string;
// when it is empty or unknown the lexer is picked by analysing the code.
func (h Highlighter) Func(lang string) HighlightFunc {
	return func(code string) (string, error) {
		lexer := pickLexer(lang, code)
		if lexer == nil {
			return code, nil
		}

		it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
		if err != nil {
			return "", err
		}

		var b strings.Builder
		if err := formatters.Get(h.Formatter).Format(&b, styles.Get(h.Style), it); err != nil {
			return "", err
		}
		return b.String(), nil
	}
}

func pickLexer(lang, code string) chroma.Lexer {
	if lang != "" {
		if l := lexers.Get(lang); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(code); l != nil {
		return l
	}
	return nil
}

// CodeStyleNames lists the chroma styles accepted by code.style.
func CodeStyleNames() []string {
	return styles.Names()
}
