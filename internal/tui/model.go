package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/api"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/config"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/stream"
)

// Timings
const (
	copyAckDuration = 2 * time.Second
	flashDuration   = 5 * time.Second
)

// Texts shown for model loading, deletion and shutdown.
const (
	noModelsText        = "No models available"
	modelsErrorText     = "Error loading models"
	deleteQuestion      = "Are you sure you want to delete this chat?"
	shutdownQuestion    = "Are you sure you want to shut down the entire system?"
	shutdownStartedText = "System is shutting down..."
	shutdownFailedText  = "Error: Failed to shutdown system"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// Message types for the TUI
type (
	modelsLoadedMsg struct {
		models []string
		err    error
	}
	sessionMsg struct {
		res session.Result
		err error
	}
	vramMsg struct {
		usage models.VRAMUsage
		err   error
	}
	configReloadMsg struct {
		cfg config.Config
		ok  bool
	}

	vramTickMsg   time.Time
	copyResetMsg  struct{ seq int }
	flashClearMsg struct{ seq int }
	shutdownMsg   struct{ err error }
)

// Options configures the chat screen.
type Options struct {
	Backend Backend
	// Store remembers the last active chat; nil disables it.
	Store  session.LastChatStore
	Config config.Config
	// ConfigPath is watched for changes while the screen runs; empty
	// disables the watch.
	ConfigPath string
	// Model preselects a model for chats that are not bound yet.
	Model string
}

// Model represents the TUI state
type Model struct {
	ctx      context.Context
	backend  Backend
	ctrl     *session.Controller
	renderer *render.Renderer
	cfg      config.Config

	configUpdates <-chan config.Config
	preferred     string

	state     session.State
	available []string
	// modelsNote stays in the header while no model can be picked.
	modelsNote string
	// pending is set while a session operation runs; navigation waits.
	pending bool

	transcript transcript
	stream     *activeStream
	attachment *api.ImageAttachment
	vram       string

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	overlay overlayKind
	picker  picker
	confirm confirmation

	flash    string
	flashErr bool
	flashSeq int
	copySeq  int

	ready  bool
	width  int
	height int
}

// NewChatModel creates the chat screen. ctx bounds every request it makes.
func NewChatModel(ctx context.Context, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here... (/ for commands)"
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "shift+enter")
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	if opts.Config.TUITheme != "" && render.SetTUITheme(opts.Config.TUITheme) {
		UpdateTheme()
	}

	preferred := opts.Model
	if preferred == "" {
		preferred = opts.Config.DefaultModel
	}

	return Model{
		ctx:        ctx,
		backend:    opts.Backend,
		ctrl:       session.NewController(opts.Backend, opts.Store),
		renderer:   render.NewRenderer(render.OptionsFromConfig(opts.Config)),
		cfg:        opts.Config,
		preferred:  preferred,
		state:      session.State{Model: preferred},
		transcript: newTranscript(),
		textarea:   ta,
		spinner:    s,
	}.withConfigWatch(opts.ConfigPath)
}

func (m Model) withConfigWatch(path string) Model {
	if path == "" {
		return m
	}
	updates, err := config.Watch(m.ctx, path)
	if err != nil {
		logger.Warnf("config watch disabled: %v", err)
		return m
	}
	m.configUpdates = updates
	return m
}

// Init loads the models, then the chats.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.loadModels(),
		m.fetchVRAM(),
		m.vramTick(),
	}
	if m.configUpdates != nil {
		cmds = append(cmds, waitForConfig(m.configUpdates))
	}
	return tea.Batch(cmds...)
}

func (m Model) loadModels() tea.Cmd {
	return func() tea.Msg {
		list, err := m.backend.ListModels(m.ctx)
		return modelsLoadedMsg{models: list, err: err}
	}
}

func (m Model) vramInterval() time.Duration {
	if m.cfg.VRAMIntervalSeconds > 0 {
		return time.Duration(m.cfg.VRAMIntervalSeconds) * time.Second
	}
	return 0
}

func (m Model) vramTick() tea.Cmd {
	every := m.vramInterval()
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(t time.Time) tea.Msg { return vramTickMsg(t) })
}

func (m Model) fetchVRAM() tea.Cmd {
	if m.vramInterval() <= 0 {
		return nil
	}
	return func() tea.Msg {
		usage, err := m.backend.VRAM(m.ctx)
		return vramMsg{usage: usage, err: err}
	}
}

func waitForConfig(ch <-chan config.Config) tea.Cmd {
	return func() tea.Msg {
		cfg, ok := <-ch
		return configReloadMsg{cfg: cfg, ok: ok}
	}
}

// run executes a session operation off the Update loop.
func (m *Model) run(op func(ctx context.Context, st session.State) (session.Result, error)) tea.Cmd {
	m.pending = true
	ctx, st := m.ctx, m.state
	return func() tea.Msg {
		res, err := op(ctx, st)
		return sessionMsg{res: res, err: err}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case modelsLoadedMsg:
		return m.handleModels(msg)

	case sessionMsg:
		return m.applyResult(msg.res, msg.err)

	case streamChunkMsg:
		return m.handleChunk(msg)

	case streamDoneMsg:
		return m.handleStreamDone(msg)

	case vramTickMsg:
		return m, tea.Batch(m.fetchVRAM(), m.vramTick())

	case vramMsg:
		if msg.err != nil {
			logger.Debugf("failed to fetch VRAM usage: %v", msg.err)
		} else {
			m.vram = msg.usage.String()
		}
		return m, nil

	case configReloadMsg:
		if !msg.ok {
			m.configUpdates = nil
			return m, nil
		}
		m.applyConfig(msg.cfg)
		return m, waitForConfig(m.configUpdates)

	case copyResetMsg:
		if msg.seq == m.copySeq {
			m.transcript.copied = -1
			m.refreshViewport(false)
		}
		return m, nil

	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case shutdownMsg:
		if msg.err != nil {
			logger.Errorf("shutdown failed: %v", msg.err)
			cmd = m.setFlash(shutdownFailedText, true)
		} else {
			cmd = m.setFlash(shutdownStartedText, false)
		}
		return m, cmd

	case spinner.TickMsg:
		if m.state.Streaming() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleModels(msg modelsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		logger.Errorf("error loading models: %v", msg.err)
		m.available = nil
		m.modelsNote = modelsErrorText
		cmd := m.setFlash(modelsErrorText+": "+msg.err.Error(), true)
		return m, cmd
	}

	m.available = msg.models
	m.modelsNote = ""
	if len(m.available) == 0 {
		m.modelsNote = noModelsText
		cmds := tea.Batch(m.setFlash(noModelsText, true), m.run(m.ctrl.List))
		return m, cmds
	}
	if !m.state.Locked && !contains(m.available, m.state.Model) {
		m.state.Model = m.available[0]
		if contains(m.available, m.preferred) {
			m.state.Model = m.preferred
		}
	}
	cmd := m.run(m.ctrl.List)
	return m, cmd
}

// applyResult folds a finished session operation into the screen.
func (m Model) applyResult(res session.Result, err error) (tea.Model, tea.Cmd) {
	m.pending = false
	if err != nil {
		logger.Warnf("session operation failed: %v", err)
	}

	prev := m.state
	m.state = session.Reconcile(prev, res)

	var cmds []tea.Cmd
	for _, e := range res.Effects {
		switch e.Kind {
		case session.CancelStream:
			m.cancelStream(e.StreamID)
		case session.ShowHistory:
			model := e.History.Model
			if model == "" {
				model = m.state.Model
			}
			m.transcript.reset(m.renderer, e.History.Messages, model)
			m.refreshViewport(true)
		case session.ClearTranscript:
			m.transcript.clear()
			m.refreshViewport(true)
		case session.Alert:
			cmds = append(cmds, m.setFlash(e.Message, true))
		}
	}

	// a stream started after the operation was dispatched
	if m.stream != nil && !m.state.Streaming() {
		m.cancelStream(m.stream.id())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) cancelStream(id string) {
	if m.stream == nil || m.stream.id() != id {
		return
	}
	m.stream.cancel()
	logger.WithFields(logger.Fields{"stream": id}).Info("stream cancelled")
	m.stream = nil
	m.transcript.live = nil
	m.refreshViewport(false)
}

func (m Model) scrollPosition() stream.ScrollPosition {
	return stream.ScrollPosition{
		Total:  m.viewport.TotalLineCount(),
		Offset: m.viewport.YOffset,
		Height: m.viewport.Height,
	}
}

func (m Model) handleChunk(msg streamChunkMsg) (tea.Model, tea.Cmd) {
	if m.stream == nil || m.stream.id() != msg.id {
		return m, nil
	}
	u, err := m.stream.consumer.Feed(msg.chunk, m.scrollPosition())
	if err != nil {
		m.stream.cancel()
		return m.handleStreamDone(streamDoneMsg{id: msg.id, err: err})
	}
	m.transcript.live = u.Node
	m.refreshViewport(u.StickToBottom)
	return m, waitForStream(m.stream.ch)
}

func (m Model) handleStreamDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	if m.stream == nil || m.stream.id() != msg.id {
		return m, nil
	}
	s := m.stream
	m.stream = nil
	m.transcript.live = nil
	stick := stream.NearBottom(m.scrollPosition(), stream.DefaultThreshold)

	firstExchange := m.state.Messages == 0
	m.state = session.EndSubmit(m.state, msg.id, msg.err)

	if msg.err != nil {
		m.transcript.appendNode(s.consumer.Fail(msg.err))
		m.refreshViewport(true)
		return m, nil
	}

	reply := s.consumer.Finish()
	m.transcript.append(m.renderer, reply, s.consumer.Model())
	m.refreshViewport(stick)

	var cmd tea.Cmd
	if firstExchange {
		cmd = m.run(m.ctrl.RefreshList)
	}
	return m, cmd
}

// submit sends the input and any attachment as a new prompt.
func (m Model) submit(input string) (tea.Model, tea.Cmd) {
	consumer := stream.New(m.state.Model, m.renderer)
	st, err := session.BeginSubmit(m.state, input, m.attachment != nil, consumer.ID())
	switch {
	case errors.Is(err, session.ErrEmptySubmission):
		return m, nil
	case err != nil:
		cmd := m.setFlash(err.Error(), true)
		return m, cmd
	}
	m.state = st

	req := api.AskRequest{Model: st.Model, Image: m.attachment}
	if strings.TrimSpace(input) != "" {
		req.Prompt = input
		m.transcript.append(m.renderer, models.Message{Role: models.RoleUser, Content: input}, st.Model)
	}
	if m.attachment != nil {
		m.transcript.append(m.renderer, models.Message{Role: models.RoleUser, Content: "[IMAGE]" + m.attachment.Path}, st.Model)
		m.attachment = nil
	}
	m.textarea.Reset()
	m.refreshViewport(true)

	active, cmd := beginStream(m.ctx, m.backend, req, consumer)
	m.stream = active
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) setFlash(text string, isErr bool) tea.Cmd {
	m.flashSeq++
	m.flash = text
	m.flashErr = isErr
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashClearMsg{seq: seq} })
}

// copyCode puts code block n (1-based, 0 for the last) on the clipboard
// and shows the acknowledgement on its badge.
func (m *Model) copyCode(n int) tea.Cmd {
	blocks := m.transcript.codeBlocks()
	if len(blocks) == 0 {
		return m.setFlash("No code blocks to copy", true)
	}
	if n == 0 {
		n = len(blocks)
	}
	if n < 1 || n > len(blocks) {
		return m.setFlash(fmt.Sprintf("No code block %d (1-%d)", n, len(blocks)), true)
	}
	if err := writeClipboard(blocks[n-1].Code); err != nil {
		return m.setFlash("Copy failed: "+err.Error(), true)
	}

	m.copySeq++
	seq := m.copySeq
	m.transcript.copied = n - 1
	m.refreshViewport(false)
	return tea.Tick(copyAckDuration, func(time.Time) tea.Msg { return copyResetMsg{seq: seq} })
}

func (m *Model) applyConfig(cfg config.Config) {
	m.cfg = cfg
	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		UpdateTheme()
	}
	opts := render.OptionsFromConfig(cfg)
	opts.Width = m.renderer.Options().Width
	render.ResetProseCache()
	m.renderer = render.NewRenderer(opts)
	m.transcript.rerender(m.renderer)
	m.refreshViewport(false)
	logger.Infof("configuration reloaded")
}

// layout sizes the panels for the window.
func (m *Model) layout() {
	mainWidth := m.width
	if m.showSidebar() {
		mainWidth -= sidebarWidth
	}

	headerHeight := 3
	inputHeight := 6
	statusHeight := 1

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - 2
	if vpHeight < 3 {
		vpHeight = 3
	}
	vpWidth := mainWidth - 4
	if vpWidth < 20 {
		vpWidth = 20
	}

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(vpWidth - 2)

	if m.renderer.Options().Width != vpWidth-2 {
		m.renderer = m.renderer.WithWidth(vpWidth - 2)
		m.transcript.rerender(m.renderer)
	}
	m.refreshViewport(false)
}

func (m Model) showSidebar() bool {
	return m.width >= minWidthSidebar
}

func (m *Model) refreshViewport(toBottom bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.transcript.view())
	if toBottom {
		m.viewport.GotoBottom()
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// RunChat starts the chat TUI
func RunChat(ctx context.Context, opts Options) error {
	m := NewChatModel(ctx, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
