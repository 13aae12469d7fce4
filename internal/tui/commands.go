package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/api"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
)

const helpText = "/new  /delete  /chats  /model [name]  /image [path]  /copy [n]  /shutdown  /quit"

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if m.stream != nil {
			m.stream.cancel()
		}
		return m, tea.Quit
	}

	switch m.overlay {
	case overlayConfirm:
		return m.updateConfirm(msg)
	case overlayModels, overlayChats:
		return m.updatePicker(msg)
	}

	var cmd tea.Cmd
	switch msg.String() {
	case "esc":
		if m.state.Streaming() {
			m.cancelActive()
			return m, nil
		}
		if m.attachment != nil {
			m.attachment = nil
			return m, nil
		}
		return m, tea.Quit

	case "enter":
		input := m.textarea.Value()
		if strings.HasPrefix(strings.TrimSpace(input), "/") {
			m.textarea.Reset()
			return m.dispatchCommand(strings.TrimSpace(input))
		}
		return m.submit(input)

	case "ctrl+y":
		cmd = m.copyCode(0)
		return m, cmd

	case "ctrl+n":
		return m.cmdNew()

	case "ctrl+d":
		return m.cmdDelete()

	case "ctrl+o":
		return m.cmdModel(nil)

	case "ctrl+l":
		return m.cmdChats()

	case "ctrl+r":
		return m, m.loadModels()

	case "alt+up", "alt+down":
		return m.stepChat(msg.String() == "alt+down")

	case "pgup", "pgdown", "ctrl+up", "ctrl+down":
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.state.Streaming() {
		return m, nil
	}
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// cancelActive drops the reply in flight and restores the picker.
func (m *Model) cancelActive() {
	res := session.Cancel(m.state)
	m.state = res.State
	for _, e := range res.Effects {
		m.cancelStream(e.StreamID)
	}
}

func (m Model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	name := strings.ToLower(parts[0])
	args := parts[1:]

	var cmd tea.Cmd
	switch name {
	case "/new":
		return m.cmdNew()
	case "/delete":
		return m.cmdDelete()
	case "/chats":
		return m.cmdChats()
	case "/model", "/models":
		return m.cmdModel(args)
	case "/image":
		// paths may contain spaces
		return m.cmdImage(strings.TrimSpace(strings.TrimPrefix(input, parts[0])))
	case "/copy":
		n := 0
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				cmd = m.setFlash("usage: /copy [n]", true)
				return m, cmd
			}
			n = v
		}
		cmd = m.copyCode(n)
		return m, cmd
	case "/shutdown":
		m.overlay = overlayConfirm
		m.confirm = confirmation{question: shutdownQuestion, action: confirmShutdown}
		return m, nil
	case "/help", "/?":
		cmd = m.setFlash(helpText, false)
		return m, cmd
	case "/quit", "/exit", "/q":
		if m.stream != nil {
			m.stream.cancel()
		}
		return m, tea.Quit
	default:
		cmd = m.setFlash(fmt.Sprintf("Unknown command: %s (try /help)", name), true)
		return m, cmd
	}
}

func (m Model) cmdNew() (tea.Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	cmd := m.run(m.ctrl.Create)
	return m, cmd
}

func (m Model) cmdDelete() (tea.Model, tea.Cmd) {
	if m.pending || m.state.ActiveID == "" {
		return m, nil
	}
	m.overlay = overlayConfirm
	m.confirm = confirmation{question: deleteQuestion, action: confirmDelete, chatID: m.state.ActiveID}
	return m, nil
}

func (m Model) cmdChats() (tea.Model, tea.Cmd) {
	items := make([]pickerItem, 0, len(m.state.Chats))
	for _, c := range m.state.Chats {
		it := pickerItem{id: c.ID, label: c.Title}
		if c.ID == m.state.ActiveID {
			it.note = "active"
		}
		items = append(items, it)
	}
	m.picker = newPicker("Chats", items, m.state.ActiveID)
	m.overlay = overlayChats
	return m, nil
}

// cmdModel opens the picker, or selects args[0] directly.
func (m Model) cmdModel(args []string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.state.Locked {
		cmd = m.setFlash(fmt.Sprintf("This chat uses %s; start a new chat to change the model", m.state.Model), true)
		return m, cmd
	}
	if len(m.available) == 0 {
		cmd = m.setFlash(noModelsText, true)
		return m, cmd
	}
	if len(args) > 0 {
		return m.selectModel(args[0])
	}

	items := make([]pickerItem, len(m.available))
	for i, name := range m.available {
		items[i] = pickerItem{id: name, label: name}
	}
	m.picker = newPicker("Select a model", items, m.state.Model)
	m.overlay = overlayModels
	return m, nil
}

func (m Model) selectModel(name string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if !contains(m.available, name) {
		cmd = m.setFlash("Unknown model: "+name, true)
		return m, cmd
	}
	st, err := m.state.SelectModel(name)
	if err != nil {
		cmd = m.setFlash(err.Error(), true)
		return m, cmd
	}
	m.state = st
	return m, nil
}

func (m Model) cmdImage(path string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if path == "" {
		m.attachment = nil
		cmd = m.setFlash("Image attachment cleared", false)
		return m, cmd
	}
	img, err := api.NewImageAttachment(path)
	if err != nil {
		cmd = m.setFlash("Cannot attach image: "+err.Error(), true)
		return m, cmd
	}
	m.attachment = img
	return m, nil
}

// stepChat switches to the chat before or after the active one.
func (m Model) stepChat(next bool) (tea.Model, tea.Cmd) {
	chats := m.state.Chats
	if m.pending || len(chats) < 2 {
		return m, nil
	}
	i := chatIndex(chats, m.state.ActiveID)
	if next {
		i = (i + 1) % len(chats)
	} else {
		i = (i - 1 + len(chats)) % len(chats)
	}
	return m.switchTo(chats[i].ID)
}

func (m Model) switchTo(id string) (tea.Model, tea.Cmd) {
	if m.pending || id == "" {
		return m, nil
	}
	cmd := m.run(func(ctx context.Context, st session.State) (session.Result, error) {
		return m.ctrl.Switch(ctx, st, id)
	})
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kind := m.overlay
	switch msg.String() {
	case "esc":
		m.overlay = overlayNone
		return m, nil

	case "enter":
		m.overlay = overlayNone
		it, ok := m.picker.selected()
		if !ok {
			return m, nil
		}
		if kind == overlayModels {
			return m.selectModel(it.id)
		}
		if it.id == m.state.ActiveID {
			return m, nil
		}
		return m.switchTo(it.id)

	case "ctrl+d":
		if kind != overlayChats {
			return m, nil
		}
		if it, ok := m.picker.selected(); ok && !m.pending {
			m.overlay = overlayConfirm
			m.confirm = confirmation{question: deleteQuestion, action: confirmDelete, chatID: it.id}
		}
		return m, nil

	case "ctrl+n":
		if kind == overlayChats {
			m.overlay = overlayNone
			return m.cmdNew()
		}
	}

	m.picker = m.picker.update(msg)
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		m.overlay = overlayNone
		switch m.confirm.action {
		case confirmDelete:
			if m.pending {
				return m, nil
			}
			id := m.confirm.chatID
			cmd := m.run(func(ctx context.Context, st session.State) (session.Result, error) {
				return m.ctrl.Delete(ctx, st, id)
			})
			return m, cmd
		case confirmShutdown:
			return m, m.shutdown()
		}
	case "n", "esc":
		m.overlay = overlayNone
	}
	return m, nil
}

func (m Model) shutdown() tea.Cmd {
	return func() tea.Msg {
		err := m.backend.Shutdown(m.ctx)
		return shutdownMsg{err: err}
	}
}
