package tui

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/api"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/config"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
)

type fakeChunks struct {
	chunks []string
	err    error
}

func (f fakeChunks) Chunks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func (f fakeChunks) Close() error { return nil }

type fakeBackend struct {
	mu        sync.Mutex
	chats     []models.Chat
	histories map[string]models.ChatHistory
	active    string
	reply     fakeChunks
	askErr    error
	asked     []api.AskRequest
	renameTo  string
	deleted   []string
	shutdown  bool
}

func (f *fakeBackend) ListModels(ctx context.Context) ([]string, error) {
	return []string{"gemma:4b", "llama3"}, nil
}

func (f *fakeBackend) ListChats(ctx context.Context) ([]models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Chat(nil), f.chats...), nil
}

func (f *fakeBackend) SwitchChat(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !models.ContainsChat(f.chats, id) {
		return errors.New("Chat not found.")
	}
	f.active = id
	return nil
}

func (f *fakeBackend) NewChat(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "n" + string(rune('0'+len(f.chats)))
	f.chats = append(f.chats, models.Chat{ID: id, Title: models.NewChatTitle})
	return id, nil
}

func (f *fakeBackend) DeleteChat(ctx context.Context, id string) (models.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.Chat
	for _, c := range f.chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	f.chats = kept
	f.deleted = append(f.deleted, id)
	return models.DeleteResult{Success: true}, nil
}

func (f *fakeBackend) History(ctx context.Context) (models.ChatHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.histories[f.active], nil
}

func (f *fakeBackend) Ask(ctx context.Context, req api.AskRequest) (ChunkStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, req)
	if f.askErr != nil {
		return nil, f.askErr
	}
	if f.renameTo != "" {
		for i := range f.chats {
			if f.chats[i].ID == f.active {
				f.chats[i].Title = f.renameTo
			}
		}
	}
	return f.reply, nil
}

func (f *fakeBackend) VRAM(ctx context.Context) (models.VRAMUsage, error) {
	return models.VRAMUsage{UsedMB: 1024, TotalMB: 8192}, nil
}

func (f *fakeBackend) Shutdown(ctx context.Context) error {
	f.shutdown = true
	return nil
}

type memStore struct{ id string }

func (s *memStore) LastChatID() string { return s.id }

func (s *memStore) SetLastChatID(id string) error {
	s.id = id
	return nil
}

func newTestModel(t *testing.T, backend *fakeBackend, store *memStore) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.VRAMIntervalSeconds = 0
	cfg.Markdown.Style = render.ThemeNoTTY

	m := NewChatModel(context.Background(), Options{Backend: backend, Store: store, Config: cfg})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// startup loads the models and runs the chat list operation.
func startup(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(t, m, modelsLoadedMsg{models: []string{"gemma:4b", "llama3"}})
	if cmd == nil {
		t.Fatal("expected the chat list to load after the models")
	}
	m, _ = update(t, m, cmd())
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func exchange(model string) models.ChatHistory {
	return models.ChatHistory{
		Model: model,
		Title: "Old",
		Messages: []models.Message{
			{Role: "user", Content: "hi"},
			{Role: "ai", Content: "hello"},
		},
	}
}

func TestStartupEntersRememberedChat(t *testing.T) {
	backend := &fakeBackend{
		chats:     []models.Chat{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}},
		histories: map[string]models.ChatHistory{"b": exchange("llama3")},
	}
	m := startup(t, newTestModel(t, backend, &memStore{id: "b"}))

	if m.state.ActiveID != "b" {
		t.Fatalf("expected chat b, got %q", m.state.ActiveID)
	}
	if m.state.Model != "llama3" || !m.state.Locked {
		t.Errorf("expected locked llama3, got %q locked=%v", m.state.Model, m.state.Locked)
	}
	if len(m.transcript.nodes) != 2 {
		t.Errorf("expected 2 rendered messages, got %d", len(m.transcript.nodes))
	}
	if m.pending {
		t.Error("expected no pending operation")
	}
}

func TestStartupModelsError(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil)
	m, _ = update(t, m, modelsLoadedMsg{err: errors.New("boom")})

	if !strings.Contains(m.flash, modelsErrorText) || !m.flashErr {
		t.Errorf("expected models error flash, got %q", m.flash)
	}
	if m.pending {
		t.Error("chat list must not load after a model failure")
	}
	if !strings.Contains(m.View(), modelsErrorText) {
		t.Error("expected the header to keep the models error")
	}
}

func drainStream(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	if m.stream == nil {
		t.Fatal("expected an active stream")
	}
	var last tea.Cmd
	for msg := range m.stream.ch {
		m, last = update(t, m, msg)
	}
	return m, last
}

func TestSubmitStreamsReply(t *testing.T) {
	backend := &fakeBackend{
		chats:     []models.Chat{{ID: "a", Title: models.NewChatTitle}},
		histories: map[string]models.ChatHistory{},
		reply:     fakeChunks{chunks: []string{"He", "llo"}},
		renameTo:  "Greeting",
	}
	m := startup(t, newTestModel(t, backend, &memStore{}))

	m.textarea.SetValue("hi")
	m, _ = update(t, m, key("enter"))
	if !m.state.Streaming() || !m.state.Locked {
		t.Fatal("expected a locked, streaming state after submit")
	}
	if m.textarea.Value() != "" {
		t.Error("expected the input to be cleared")
	}

	m, cmd := drainStream(t, m)
	if m.state.Streaming() {
		t.Error("expected the stream to be finished")
	}
	msgs := m.transcript.messages
	if len(msgs) != 2 || msgs[1].Content != "Hello" || msgs[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	if len(backend.asked) != 1 || backend.asked[0].Prompt != "hi" || backend.asked[0].Model != "gemma:4b" {
		t.Errorf("unexpected request %+v", backend.asked)
	}

	if cmd == nil {
		t.Fatal("expected a title refresh after the first exchange")
	}
	m, _ = update(t, m, cmd())
	if m.state.Title != "Greeting" {
		t.Errorf("expected refreshed title, got %q", m.state.Title)
	}
	if !m.state.Locked {
		t.Error("expected the model to stay fixed")
	}
}

func TestSubmitFailureShowsErrorNode(t *testing.T) {
	backend := &fakeBackend{
		chats:     []models.Chat{{ID: "a"}},
		histories: map[string]models.ChatHistory{},
		askErr:    errors.New("HTTP error! status: 500 INTERNAL SERVER ERROR"),
	}
	m := startup(t, newTestModel(t, backend, nil))

	m.textarea.SetValue("hi")
	m, _ = update(t, m, key("enter"))
	m, _ = drainStream(t, m)

	nodes := m.transcript.nodes
	if len(nodes) != 2 || !nodes[1].Err {
		t.Fatalf("expected an error node after the prompt, got %d nodes", len(nodes))
	}
	if m.state.Locked {
		t.Error("expected the picker to be unlocked again")
	}
}

func TestEmptySubmitIgnored(t *testing.T) {
	backend := &fakeBackend{chats: []models.Chat{{ID: "a"}}, histories: map[string]models.ChatHistory{}}
	m := startup(t, newTestModel(t, backend, nil))

	m.textarea.SetValue("   ")
	m, _ = update(t, m, key("enter"))
	if m.state.Streaming() || len(backend.asked) != 0 {
		t.Error("expected a blank prompt to be ignored")
	}
}

func TestSwitchCancelsStream(t *testing.T) {
	backend := &fakeBackend{
		chats:     []models.Chat{{ID: "a"}, {ID: "b"}},
		histories: map[string]models.ChatHistory{"b": exchange("llama3")},
		reply:     fakeChunks{chunks: []string{"partial"}},
	}
	m := startup(t, newTestModel(t, backend, nil))

	m.textarea.SetValue("hi")
	m, _ = update(t, m, key("enter"))
	ch := m.stream.ch

	next, cmd := m.switchTo("b")
	m, _ = update(t, next.(Model), cmd())

	if m.stream != nil || m.state.Streaming() {
		t.Fatal("expected the stream to be cancelled")
	}
	for msg := range ch {
		m, _ = update(t, m, msg)
	}
	if m.state.ActiveID != "b" || len(m.transcript.messages) != 2 {
		t.Errorf("expected chat b's history only, got %+v", m.transcript.messages)
	}
}

func TestModelPickerRefusedWhenLocked(t *testing.T) {
	backend := &fakeBackend{
		chats:     []models.Chat{{ID: "a"}},
		histories: map[string]models.ChatHistory{"a": exchange("llama3")},
	}
	m := startup(t, newTestModel(t, backend, nil))

	m, _ = update(t, m, key("ctrl+o"))
	if m.overlay != overlayNone {
		t.Error("expected the picker to stay closed")
	}
	if !strings.Contains(m.flash, "llama3") {
		t.Errorf("expected flash naming the bound model, got %q", m.flash)
	}
}

func TestModelPickerSelects(t *testing.T) {
	backend := &fakeBackend{chats: []models.Chat{{ID: "a"}}, histories: map[string]models.ChatHistory{}}
	m := startup(t, newTestModel(t, backend, nil))

	m, _ = update(t, m, key("ctrl+o"))
	if m.overlay != overlayModels {
		t.Fatal("expected the model picker")
	}
	m, _ = update(t, m, key("llama"))
	m, _ = update(t, m, key("enter"))
	if m.state.Model != "llama3" {
		t.Errorf("expected llama3, got %q", m.state.Model)
	}
}

func TestDeleteWithConfirmation(t *testing.T) {
	backend := &fakeBackend{
		chats:     []models.Chat{{ID: "a"}, {ID: "b"}},
		histories: map[string]models.ChatHistory{},
	}
	m := startup(t, newTestModel(t, backend, nil))

	m, _ = update(t, m, key("ctrl+d"))
	if m.overlay != overlayConfirm || m.confirm.question != deleteQuestion {
		t.Fatal("expected the delete confirmation")
	}
	m, cmd := update(t, m, key("y"))
	if cmd == nil {
		t.Fatal("expected the delete to run")
	}
	m, _ = update(t, m, cmd())

	if len(backend.deleted) != 1 || backend.deleted[0] != "a" {
		t.Errorf("expected chat a deleted, got %v", backend.deleted)
	}
	if m.state.ActiveID != "b" {
		t.Errorf("expected to land on chat b, got %q", m.state.ActiveID)
	}
}

func TestDeleteDeclined(t *testing.T) {
	backend := &fakeBackend{chats: []models.Chat{{ID: "a"}}, histories: map[string]models.ChatHistory{}}
	m := startup(t, newTestModel(t, backend, nil))

	m, _ = update(t, m, key("ctrl+d"))
	m, cmd := update(t, m, key("n"))
	if cmd != nil || len(backend.deleted) != 0 || m.overlay != overlayNone {
		t.Error("expected nothing to be deleted")
	}
}

func TestCopyCode(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	defer func() { writeClipboard = orig }()

	backend := &fakeBackend{
		chats: []models.Chat{{ID: "a"}},
		histories: map[string]models.ChatHistory{"a": {
			Model:    "llama3",
			Messages: []models.Message{{Role: "ai", Content: "```go\nfmt.Println(1)\n```"}},
		}},
	}
	m := startup(t, newTestModel(t, backend, nil))

	m.textarea.SetValue("/copy 1")
	m, _ = update(t, m, key("enter"))

	if copied != "fmt.Println(1)" {
		t.Errorf("unexpected clipboard content %q", copied)
	}
	if !strings.Contains(m.transcript.view(), render.CopiedLabel) {
		t.Error("expected the copy acknowledgement on the badge")
	}

	m, _ = update(t, m, copyResetMsg{seq: m.copySeq})
	if strings.Contains(m.transcript.view(), render.CopiedLabel) {
		t.Error("expected the acknowledgement to clear")
	}
}

func TestCopyOutOfRange(t *testing.T) {
	backend := &fakeBackend{chats: []models.Chat{{ID: "a"}}, histories: map[string]models.ChatHistory{}}
	m := startup(t, newTestModel(t, backend, nil))

	m.textarea.SetValue("/copy 3")
	m, _ = update(t, m, key("enter"))
	if !m.flashErr {
		t.Errorf("expected an error flash, got %q", m.flash)
	}
}

func TestImageCommandValidates(t *testing.T) {
	backend := &fakeBackend{chats: []models.Chat{{ID: "a"}}, histories: map[string]models.ChatHistory{}}
	m := startup(t, newTestModel(t, backend, nil))

	m.textarea.SetValue("/image /does/not/exist.png")
	m, _ = update(t, m, key("enter"))
	if m.attachment != nil || !strings.Contains(m.flash, "Cannot attach image") {
		t.Errorf("expected attach failure, got flash %q", m.flash)
	}
}

func TestShutdownConfirmation(t *testing.T) {
	backend := &fakeBackend{chats: []models.Chat{{ID: "a"}}, histories: map[string]models.ChatHistory{}}
	m := startup(t, newTestModel(t, backend, nil))

	m.textarea.SetValue("/shutdown")
	m, _ = update(t, m, key("enter"))
	if m.confirm.question != shutdownQuestion {
		t.Fatalf("expected shutdown confirmation, got %q", m.confirm.question)
	}
	m, cmd := update(t, m, key("y"))
	m, _ = update(t, m, cmd())
	if !backend.shutdown || m.flash != shutdownStartedText {
		t.Errorf("expected shutdown flash, got %q", m.flash)
	}
}

func TestViewRenders(t *testing.T) {
	backend := &fakeBackend{
		chats:     []models.Chat{{ID: "a", Title: "First chat"}},
		histories: map[string]models.ChatHistory{},
	}
	m := startup(t, newTestModel(t, backend, nil))
	m, _ = update(t, m, vramMsg{usage: models.VRAMUsage{UsedMB: 1, TotalMB: 2}})

	view := m.View()
	for _, want := range []string{"First chat (gemma:4b)", "Chats", "VRAM Usage: 1 / 2 MB"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a long chat title", 6, "a lon…"},
		{"日本語のタイトル", 5, "日本…"},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
