package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
)

// CopiedLabel replaces a code block badge briefly after a copy.
const CopiedLabel = "Copied!"

var imageToken = regexp.MustCompile(`\[IMAGE\](.+)`)

// CodeBlock is a fenced block inside a message.
type CodeBlock struct {
	Language string
	// Code is the plain text handed to the clipboard.
	Code     string
	Rendered string
}

// Part is either prose or a code block.
type Part struct {
	Prose string
	Code  *CodeBlock
}

// Node is one fully rendered transcript message.
type Node struct {
	Role   string
	Sender string
	Parts  []Part
	Images []string
	Err    bool
}

// CodeBlocks returns the message's code blocks in order.
func (n *Node) CodeBlocks() []CodeBlock {
	var blocks []CodeBlock
	for _, p := range n.Parts {
		if p.Code != nil {
			blocks = append(blocks, *p.Code)
		}
	}
	return blocks
}

func labelStyle(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

// View lays the node out for the transcript. badge returns the label for
// the code block at index i; nil uses the language name alone.
func (n *Node) View(badge func(i int) string) string {
	var b strings.Builder
	theme := GetTUITheme()
	badgeStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	switch {
	case n.Err:
		b.WriteString(labelStyle(theme.Error).Render("✗ " + n.Sender))
		b.WriteString("\n")
	case n.Role == models.RoleAssistant:
		b.WriteString(labelStyle(theme.Primary).Render(n.Sender))
		b.WriteString("\n")
	default:
		b.WriteString(labelStyle(theme.Secondary).Render("You"))
		b.WriteString("\n")
	}

	idx := 0
	for _, p := range n.Parts {
		if p.Code == nil {
			b.WriteString(p.Prose)
			b.WriteString("\n\n")
			continue
		}
		label := p.Code.Language
		if badge != nil {
			if l := badge(idx); l != "" {
				label = strings.TrimSpace(label + "  " + l)
			}
		}
		if label != "" {
			b.WriteString(badgeStyle.Render(label))
			b.WriteString("\n")
		}
		b.WriteString(p.Code.Rendered)
		b.WriteString("\n\n")
		idx++
	}
	return strings.TrimRight(b.String(), "\n")
}

// Renderer turns stored or streamed messages into Nodes.
type Renderer struct {
	opts        Options
	highlighter Highlighter
}

// NewRenderer creates a Renderer.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		opts:        opts,
		highlighter: NewChromaHighlighter(opts.CodeStyle),
	}
}

// Options returns the renderer's options.
func (r *Renderer) Options() Options { return r.opts }

// WithWidth returns a copy of r wrapping prose at width.
func (r *Renderer) WithWidth(width int) *Renderer {
	c := *r
	c.opts.Width = width
	return &c
}

// Render builds the node for one message. User content is escaped before
// anything else. Assistant messages carry modelName as their sender. On
// error no node is returned and the caller shows an error node instead.
func (r *Renderer) Render(role, content, modelName string) (*Node, error) {
	role = models.NormalizeRole(role)
	node := &Node{Role: role}
	if role == models.RoleAssistant {
		node.Sender = modelName
	}

	if role == models.RoleUser {
		content = EscapeHTML(content)
	}
	content, node.Images = ExpandImages(content)

	for _, seg := range splitFences(content) {
		if !seg.code {
			if strings.TrimSpace(seg.text) == "" {
				continue
			}
			out, err := Prose(seg.text, r.opts)
			if err != nil {
				return nil, fmt.Errorf("markdown render failed: %w", err)
			}
			node.Parts = append(node.Parts, Part{Prose: out})
			continue
		}

		code := seg.text
		if role == models.RoleUser {
			code = html.UnescapeString(code)
		}
		fc, err := FormatCode(code, r.highlighter.Func(seg.lang), r.opts.Code)
		if err != nil {
			return nil, err
		}
		node.Parts = append(node.Parts, Part{Code: &CodeBlock{
			Language: seg.lang,
			Code:     code,
			Rendered: fc.Render(),
		}})
	}
	return node, nil
}

// RenderError builds the error-marked assistant node shown in place of a
// reply that failed.
func (r *Renderer) RenderError(err error, modelName string) *Node {
	return &Node{
		Role:   models.RoleAssistant,
		Sender: modelName,
		Err:    true,
		Parts:  []Part{{Prose: lipgloss.NewStyle().Foreground(GetTUITheme().Error).Render(err.Error())}},
	}
}

// ImageMarker starts the line that stands in for an attached image.
const ImageMarker = "🖼"

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes &, < and > and nothing else.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// markdownEscaper keeps glamour from reading a path as emphasis or a link.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`, "!", `\!`, "#", `\#`,
)

// ExpandImages rewrites every [IMAGE]path token into an image reference
// line. Paths under an uploads directory are shortened to start at it.
func ExpandImages(content string) (string, []string) {
	var images []string
	out := imageToken.ReplaceAllStringFunc(content, func(match string) string {
		path := strings.TrimSpace(imageToken.FindStringSubmatch(match)[1])
		if i := strings.Index(path, "/uploads/"); i != -1 {
			path = path[i+1:]
		}
		images = append(images, path)
		return "\n\n" + ImageMarker + " " + markdownEscaper.Replace(path) + "\n\n"
	})
	return out, images
}

type segment struct {
	code bool
	lang string
	text string
}

// splitFences cuts markdown into prose and fenced code segments. A fence
// is ``` or ~~~ indented at most three spaces; an unclosed fence runs to
// the end, which is the normal state of a reply still streaming.
func splitFences(text string) []segment {
	var (
		segs  []segment
		buf   []string
		fence string
		lang  string
		in    bool
	)

	flush := func(code bool) {
		if code || len(buf) > 0 {
			segs = append(segs, segment{code: code, lang: lang, text: strings.Join(buf, "\n")})
		}
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		marker, info, ok := fenceLine(line)
		switch {
		case !in && ok:
			flush(false)
			in, fence, lang = true, marker, firstWord(info)
		case in && ok && strings.HasPrefix(marker, fence) && strings.TrimSpace(info) == "":
			flush(true)
			in, fence, lang = false, "", ""
		default:
			buf = append(buf, line)
		}
	}
	flush(in)
	return segs
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// fenceLine reports whether line opens or closes a fence, returning the
// fence run and the info string after it.
func fenceLine(line string) (marker, info string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return "", "", false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return "", "", false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return "", "", false
	}
	info = trimmed[n:]
	if c == '`' && strings.Contains(info, "`") {
		return "", "", false
	}
	return trimmed[:n], info, true
}
