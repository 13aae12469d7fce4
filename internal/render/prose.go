package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// proseKey is the part of Options that reaches glamour. Code settings are
// applied by FormatCode and stay out of it.
type proseKey struct {
	style       string
	width       int
	emoji       bool
	newLines    bool
	tableWrap   bool
	inlineLinks bool
}

func keyOf(opts Options) proseKey {
	width := opts.Width
	if width <= 0 {
		width = DefaultOptions().Width
	}
	return proseKey{
		style:       ResolveStyle(opts.Style),
		width:       width,
		emoji:       opts.EnableEmoji,
		newLines:    opts.PreserveNewLines,
		tableWrap:   opts.TableWrap,
		inlineLinks: opts.InlineTableLinks,
	}
}

// proseCache keeps a pool of glamour renderers per key. A TermRenderer is
// not safe for concurrent Render calls, and the stream re-renders the whole
// reply on every chunk, so building one per call is too slow.
type proseCache struct {
	mu    sync.Mutex
	pools map[proseKey]*sync.Pool
}

var prose = &proseCache{pools: make(map[proseKey]*sync.Pool)}

func (c *proseCache) pool(key proseKey) *sync.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pools[key]; ok {
		return p
	}
	p := &sync.Pool{
		New: func() any {
			r, err := newProseRenderer(key)
			if err != nil {
				return nil
			}
			return r
		},
	}
	c.pools[key] = p
	return p
}

func (c *proseCache) acquire(key proseKey) (*glamour.TermRenderer, error) {
	if r, ok := c.pool(key).Get().(*glamour.TermRenderer); ok {
		return r, nil
	}
	return newProseRenderer(key)
}

func (c *proseCache) release(key proseKey, r *glamour.TermRenderer) {
	c.pool(key).Put(r)
}

func (c *proseCache) reset() {
	c.mu.Lock()
	c.pools = make(map[proseKey]*sync.Pool)
	c.mu.Unlock()
}

func (c *proseCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pools)
}

func newProseRenderer(key proseKey) (*glamour.TermRenderer, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithStylePath(key.style),
		glamour.WithWordWrap(key.width),
		glamour.WithTableWrap(key.tableWrap),
		glamour.WithInlineTableLinks(key.inlineLinks),
	}
	if key.emoji {
		opts = append(opts, glamour.WithEmoji())
	}
	if key.newLines {
		opts = append(opts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(opts...)
}

// Prose renders a markdown segment that holds no fenced code. The blank
// lines glamour puts around a document are dropped so segments stack
// tightly between code blocks.
func Prose(text string, opts Options) (string, error) {
	key := keyOf(opts)
	r, err := prose.acquire(key)
	if err != nil {
		return "", err
	}
	defer prose.release(key, r)

	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// ResetProseCache drops every pooled renderer, e.g. after the theme changed.
func ResetProseCache() {
	prose.reset()
}
