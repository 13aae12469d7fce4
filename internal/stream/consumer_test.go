package stream

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
)

// recordingRenderer keeps every buffer it was asked to render.
type recordingRenderer struct {
	calls []string
	err   error
}

func (r *recordingRenderer) Render(role, content, modelName string) (*render.Node, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, content)
	return &render.Node{
		Role:   role,
		Sender: modelName,
		Parts:  []render.Part{{Prose: content}},
	}, nil
}

func (r *recordingRenderer) RenderError(err error, modelName string) *render.Node {
	return &render.Node{Role: models.RoleAssistant, Sender: modelName, Err: true, Parts: []render.Part{{Prose: err.Error()}}}
}

// slotSink models a transcript with one in-progress slot.
type slotSink struct {
	pos     ScrollPosition
	slot    *render.Node
	shows   int
	stuck   []bool
	errNode *render.Node
}

func (s *slotSink) Position() ScrollPosition { return s.pos }
func (s *slotSink) Show(u Update) {
	s.slot = u.Node
	s.shows++
	s.stuck = append(s.stuck, u.StickToBottom)
}
func (s *slotSink) ShowError(n *render.Node) {
	s.slot = nil
	s.errNode = n
}

func seq(chunks ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func failingSeq(err error, chunks ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		yield("", err)
	}
}

func TestNearBottom(t *testing.T) {
	tests := []struct {
		name string
		pos  ScrollPosition
		want bool
	}{
		{"empty transcript", ScrollPosition{}, true},
		{"at bottom", ScrollPosition{Total: 1000, Offset: 900, Height: 100}, true},
		{"within threshold", ScrollPosition{Total: 1000, Offset: 850, Height: 100}, true},
		{"exactly threshold", ScrollPosition{Total: 1000, Offset: 800, Height: 100}, false},
		{"scrolled up", ScrollPosition{Total: 1000, Offset: 0, Height: 100}, false},
		{"content shorter than view", ScrollPosition{Total: 10, Offset: 0, Height: 40}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NearBottom(tt.pos, DefaultThreshold))
		})
	}
}

func TestRunHelloScenario(t *testing.T) {
	r := &recordingRenderer{}
	sink := &slotSink{}
	c := New("m1", r)

	msg, err := Run(context.Background(), seq("He", "llo"), c, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"He", "Hello"}, r.calls, "each chunk re-renders the whole buffer")
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "Hello"}, msg)
	assert.Equal(t, 2, sink.shows)
	require.NotNil(t, sink.slot)
	assert.Equal(t, "m1", sink.slot.Sender)
	assert.Equal(t, "Hello", sink.slot.Parts[0].Prose)
	assert.True(t, c.Done())
	assert.NotEmpty(t, c.ID())
}

func TestFeedRecordsScrollBeforeUpdate(t *testing.T) {
	c := New("m1", &recordingRenderer{})

	u, err := c.Feed("a", ScrollPosition{Total: 100, Offset: 0, Height: 10})
	require.NoError(t, err)
	assert.False(t, u.StickToBottom)

	u, err = c.Feed("b", ScrollPosition{Total: 100, Offset: 90, Height: 10})
	require.NoError(t, err)
	assert.True(t, u.StickToBottom)
	assert.Equal(t, "ab", u.Content)
	assert.Equal(t, "b", u.Delta)
}

func TestFeedAfterFinish(t *testing.T) {
	c := New("m1", &recordingRenderer{})
	c.Finish()

	_, err := c.Feed("late", ScrollPosition{})
	assert.ErrorIs(t, err, ErrFinished)
}

func TestRunTransportFailure(t *testing.T) {
	sink := &slotSink{}
	c := New("m1", &recordingRenderer{})
	boom := errors.New("connection reset")

	_, err := Run(context.Background(), failingSeq(boom, "par", "tial"), c, sink)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, sink.errNode)
	assert.True(t, sink.errNode.Err)
	assert.Equal(t, "m1", sink.errNode.Sender)
	assert.Nil(t, sink.slot, "the partial reply is replaced by the error")
	assert.Nil(t, c.Node())
}

func TestRunRenderFailure(t *testing.T) {
	sink := &slotSink{}
	c := New("m1", &recordingRenderer{err: errors.New("bad markdown")})

	_, err := Run(context.Background(), seq("x"), c, sink)
	assert.EqualError(t, err, "bad markdown")
	require.NotNil(t, sink.errNode)
	assert.Contains(t, sink.errNode.Parts[0].Prose, "bad markdown")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := &slotSink{}
	c := New("m1", &recordingRenderer{})

	chunks := func(yield func(string, error) bool) {
		if !yield("first", nil) {
			return
		}
		cancel()
		yield("second", nil)
	}

	_, err := Run(ctx, chunks, c, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sink.shows)
	assert.Nil(t, sink.errNode, "cancellation is not shown as a failure")
	assert.Equal(t, "first", c.Content())
}

func TestRunWithRealRenderer(t *testing.T) {
	r := render.NewRenderer(render.DefaultOptions().WithStyle(render.ThemeNoTTY))
	c := New("m1", r)
	sink := &slotSink{}

	msg, err := Run(context.Background(), seq("```go\nfunc main() {", "\n}\n```\n"), c, sink)
	require.NoError(t, err)
	assert.Equal(t, "```go\nfunc main() {\n}\n```\n", msg.Content)

	blocks := sink.slot.CodeBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "func main() {\n}", blocks[0].Code)

	// a reload of the committed message renders the same as the last streamed frame
	reloaded, err := r.Render("ai", msg.Content, "m1")
	require.NoError(t, err)
	assert.Equal(t, sink.slot.View(nil), reloaded.View(nil))
}

func TestTerminalSink(t *testing.T) {
	var b strings.Builder
	sink := NewTerminalSink(&b, 80)
	node := &render.Node{Role: models.RoleAssistant, Sender: "m1", Parts: []render.Part{{Prose: "one\ntwo"}}}

	sink.Show(Update{Node: node})
	first := b.String()
	assert.True(t, strings.HasPrefix(first, "\r\x1b[J"))

	sink.Show(Update{Node: node})
	second := b.String()[len(first):]
	assert.True(t, strings.HasPrefix(second, "\x1b[2A\r\x1b[J"), "redraw moves up over the previous rows, got %q", second)

	sink.Close()
	assert.True(t, strings.HasSuffix(b.String(), "\n"))
}

func TestTerminalSinkWrapping(t *testing.T) {
	sink := NewTerminalSink(&strings.Builder{}, 10)
	assert.Equal(t, 3, sink.countRows(strings.Repeat("x", 25)))
	assert.Equal(t, 2, sink.countRows("a\nb"))
}

func TestRawSink(t *testing.T) {
	var b strings.Builder
	sink := NewRawSink(&b)

	_, err := Run(context.Background(), seq("He", "llo"), New("m1", &recordingRenderer{}), sink)
	require.NoError(t, err)
	assert.Equal(t, "Hello", b.String())
}
