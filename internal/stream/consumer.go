// Package stream folds a streamed reply into re-rendered transcript nodes.
package stream

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
)

// DefaultThreshold is the fraction of the transcript height within which
// the view counts as scrolled to the bottom.
const DefaultThreshold = 0.1

// ErrFinished is returned when a chunk arrives after Finish or Fail.
var ErrFinished = errors.New("stream already finished")

// Renderer builds transcript nodes; *render.Renderer satisfies it.
type Renderer interface {
	Render(role, content, modelName string) (*render.Node, error)
	RenderError(err error, modelName string) *render.Node
}

// ScrollPosition is where the transcript view is scrolled, in rows.
type ScrollPosition struct {
	Total  int // total rendered height
	Offset int // first visible row
	Height int // visible rows
}

// NearBottom reports whether the unseen part below the view is less than
// threshold of the total height. An empty transcript is at the bottom.
func NearBottom(pos ScrollPosition, threshold float64) bool {
	if pos.Total <= 0 {
		return true
	}
	distance := pos.Total - pos.Offset - pos.Height
	return float64(distance)/float64(pos.Total) < threshold
}

// Update is the result of folding one chunk.
type Update struct {
	// Node is the in-progress reply rendered from the whole buffer.
	Node    *render.Node
	Content string
	Delta   string
	// StickToBottom is true when the view was near the bottom before the
	// update and should follow the new content.
	StickToBottom bool
}

// Consumer accumulates one reply. It is not safe for concurrent use; chunks
// must be fed in arrival order.
type Consumer struct {
	id        string
	model     string
	renderer  Renderer
	threshold float64

	buf     strings.Builder
	chunks  int
	node    *render.Node
	done    bool
	started time.Time
}

// New starts a consumer for a reply from model.
func New(model string, r Renderer) *Consumer {
	c := &Consumer{
		id:        uuid.NewString(),
		model:     model,
		renderer:  r,
		threshold: DefaultThreshold,
		started:   time.Now(),
	}
	logger.WithFields(logger.Fields{"stream": c.id, "model": model}).Debug("stream started")
	return c
}

// ID identifies the stream in logs and in UI messages.
func (c *Consumer) ID() string { return c.id }

// Model is the model the reply is attributed to.
func (c *Consumer) Model() string { return c.model }

// Content returns everything received so far.
func (c *Consumer) Content() string { return c.buf.String() }

// Node returns the latest render, nil before the first chunk.
func (c *Consumer) Node() *render.Node { return c.node }

// Done reports whether Finish or Fail was called.
func (c *Consumer) Done() bool { return c.done }

// Feed appends chunk and re-renders the whole buffer, since a later chunk
// can change how earlier text parses (an unclosed fence, for one). pos is
// the view position before the update. On error the previous node is kept
// and the caller is expected to Fail the stream.
func (c *Consumer) Feed(chunk string, pos ScrollPosition) (Update, error) {
	if c.done {
		return Update{}, ErrFinished
	}
	stick := NearBottom(pos, c.threshold)

	c.buf.WriteString(chunk)
	c.chunks++

	node, err := c.renderer.Render(models.RoleAssistant, c.buf.String(), c.model)
	if err != nil {
		return Update{}, err
	}
	c.node = node

	return Update{
		Node:          node,
		Content:       c.buf.String(),
		Delta:         chunk,
		StickToBottom: stick,
	}, nil
}

// Finish ends the stream and returns the reply as a committed message.
func (c *Consumer) Finish() models.Message {
	c.done = true
	logger.WithFields(logger.Fields{
		"stream":   c.id,
		"chunks":   c.chunks,
		"bytes":    c.buf.Len(),
		"duration": time.Since(c.started).String(),
	}).Debug("stream finished")
	return models.Message{Role: models.RoleAssistant, Content: c.buf.String()}
}

// Fail ends the stream and returns the error node that replaces the reply.
func (c *Consumer) Fail(err error) *render.Node {
	c.done = true
	c.node = nil
	logger.WithFields(logger.Fields{"stream": c.id, "chunks": c.chunks}).Warnf("stream failed: %v", err)
	return c.renderer.RenderError(err, c.model)
}

// Sink displays a stream, e.g. a terminal region or the chat transcript.
type Sink interface {
	Position() ScrollPosition
	Show(u Update)
	ShowError(node *render.Node)
}

// Run drives c over chunks until the sequence ends, fails, or ctx is done.
// A failure is shown through sink and returned; a cancelled stream shows
// nothing more and returns the context's error.
func Run(ctx context.Context, chunks iter.Seq2[string, error], c *Consumer, sink Sink) (models.Message, error) {
	for chunk, err := range chunks {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.done = true
			logger.WithFields(logger.Fields{"stream": c.id}).Debug("stream cancelled")
			return models.Message{}, ctxErr
		}
		if err != nil {
			sink.ShowError(c.Fail(err))
			return models.Message{}, err
		}

		u, err := c.Feed(chunk, sink.Position())
		if err != nil {
			sink.ShowError(c.Fail(err))
			return models.Message{}, err
		}
		sink.Show(u)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		c.done = true
		return models.Message{}, ctxErr
	}
	return c.Finish(), nil
}
