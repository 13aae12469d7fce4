package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
)

func TestChatsList(t *testing.T) {
	h := newHarness(t)
	h.store.id = "b"
	h.backend.chats = append(h.backend.chats, models.Chat{ID: "c"})

	out, err := h.run(t, "", "chats", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %q", out)
	}
	if !strings.HasPrefix(lines[2], "*") || !strings.Contains(lines[2], "Beta") {
		t.Errorf("expected chat b marked, got %q", lines[2])
	}
	if !strings.Contains(lines[3], models.UntitledChat) {
		t.Errorf("expected fallback title, got %q", lines[3])
	}
}

func TestChatsNew(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "chats", "new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "Created chat new1" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestChatsSwitch(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "chats", "switch", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.store.id != "b" {
		t.Errorf("expected b remembered, got %q", h.store.id)
	}
	if !strings.Contains(out, "Switched to Beta") {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := h.run(t, "", "chats", "switch", "zzz"); err == nil {
		t.Error("expected an error for an unknown chat")
	}
	if h.store.id != "b" {
		t.Errorf("expected the remembered chat to be kept, got %q", h.store.id)
	}
}

func TestChatsDelete(t *testing.T) {
	h := newHarness(t)
	h.store.id = "a"

	if _, err := h.run(t, "no\n", "chats", "delete", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.backend.deleted) != 0 {
		t.Fatal("expected a declined delete to do nothing")
	}

	out, err := h.run(t, "y\n", "chats", "delete", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.backend.deleted) != 1 || h.backend.deleted[0] != "a" {
		t.Errorf("expected chat a deleted, got %v", h.backend.deleted)
	}
	if h.store.id != "b" {
		t.Errorf("expected the first remaining chat to become current, got %q", h.store.id)
	}
	if !strings.Contains(out, "Current chat: Beta") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestChatsDeleteLastStartsNew(t *testing.T) {
	h := newHarness(t)
	h.backend.chats = []models.Chat{{ID: "a", Title: "Alpha"}}

	if _, err := h.run(t, "", "chats", "delete", "a", "--yes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.backend.created != 1 || h.store.id != "new1" {
		t.Errorf("expected a fresh chat, remembered %q", h.store.id)
	}
}

func TestHistoryCommand(t *testing.T) {
	h := newHarness(t)
	h.backend.histories["b"] = models.ChatHistory{
		Model: "llama3",
		Title: "Beta",
		Messages: []models.Message{
			{Role: "user", Content: "hi"},
			{Role: "ai", Content: "hello"},
		},
	}

	out, err := h.run(t, "", "history", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# Beta (llama3)\n\n[user]\nhi\n\n[assistant]\nhello\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestHistoryExport(t *testing.T) {
	h := newHarness(t)
	h.backend.histories["a"] = models.ChatHistory{
		Model:    "llama3",
		Messages: []models.Message{{Role: "user", Content: "hi"}},
	}
	dir := t.TempDir()

	md := filepath.Join(dir, "chat.md")
	out, err := h.run(t, "", "history", "--export", md)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Exported 1 messages to "+md) {
		t.Errorf("unexpected output %q", out)
	}
	data, _ := os.ReadFile(md)
	if !strings.HasPrefix(string(data), "# Alpha\n") {
		t.Errorf("expected markdown export, got %q", data)
	}

	js := filepath.Join(dir, "chat.out")
	if _, err := h.run(t, "", "history", "--export", js, "--format", "json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ = os.ReadFile(js)
	if !strings.Contains(string(data), `"title": "Alpha"`) {
		t.Errorf("expected json export, got %q", data)
	}

	if _, err := h.run(t, "", "history", "--export", js, "--format", "pdf"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
