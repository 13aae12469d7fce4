package tui

import (
	"fmt"
	"strings"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
)

// transcript holds the messages shown for the active chat and their
// rendered nodes. The live node of a streaming reply is kept apart until
// the stream finishes.
type transcript struct {
	messages []models.Message
	nodes    []*render.Node
	model    string

	live *render.Node

	// copied is the global index of the code block showing the copy
	// acknowledgement, or -1.
	copied int
}

func newTranscript() transcript {
	return transcript{copied: -1}
}

// reset replaces the transcript with a chat's stored history. Assistant
// messages are attributed to the chat's bound model.
func (t *transcript) reset(r *render.Renderer, history []models.Message, model string) {
	t.messages = append([]models.Message(nil), history...)
	t.model = model
	t.live = nil
	t.copied = -1
	t.rerender(r)
}

func (t *transcript) clear() {
	t.messages = nil
	t.nodes = nil
	t.live = nil
	t.copied = -1
}

// rerender rebuilds every node, e.g. after a resize or theme change.
func (t *transcript) rerender(r *render.Renderer) {
	t.nodes = t.nodes[:0]
	for _, msg := range t.messages {
		t.nodes = append(t.nodes, renderMessage(r, msg, t.model))
	}
}

// append commits a message rendered for model.
func (t *transcript) append(r *render.Renderer, msg models.Message, model string) {
	t.messages = append(t.messages, msg)
	t.nodes = append(t.nodes, renderMessage(r, msg, model))
}

// appendNode commits an already rendered node with no stored message,
// such as the error shown for a failed reply.
func (t *transcript) appendNode(n *render.Node) {
	t.nodes = append(t.nodes, n)
}

func (t *transcript) empty() bool {
	return len(t.nodes) == 0 && t.live == nil
}

func renderMessage(r *render.Renderer, msg models.Message, model string) *render.Node {
	node, err := r.Render(msg.Role, msg.Content, model)
	if err != nil {
		return r.RenderError(err, model)
	}
	return node
}

// codeBlocks lists every code block in display order.
func (t *transcript) codeBlocks() []render.CodeBlock {
	var blocks []render.CodeBlock
	for _, n := range t.allNodes() {
		blocks = append(blocks, n.CodeBlocks()...)
	}
	return blocks
}

func (t *transcript) allNodes() []*render.Node {
	if t.live == nil {
		return t.nodes
	}
	return append(t.nodes[:len(t.nodes):len(t.nodes)], t.live)
}

// view lays the transcript out. Code blocks are numbered for /copy; the
// block just copied shows the acknowledgement instead.
func (t *transcript) view() string {
	var b strings.Builder
	offset := 0
	for i, n := range t.allNodes() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		base := offset
		b.WriteString(n.View(func(j int) string {
			if base+j == t.copied {
				return render.CopiedLabel
			}
			return fmt.Sprintf("[%d]", base+j+1)
		}))
		offset += len(n.CodeBlocks())
	}
	return b.String()
}
