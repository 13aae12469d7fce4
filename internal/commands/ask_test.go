package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
)

func TestAsk_StreamsIntoRememberedChat(t *testing.T) {
	h := newHarness(t)
	h.store.id = "b"

	out, err := h.run(t, "", "ask", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Hello" {
		t.Errorf("expected the raw reply, got %q", out)
	}
	if h.backend.active != "b" {
		t.Errorf("expected chat b, got %q", h.backend.active)
	}
	if len(h.backend.asked) != 1 {
		t.Fatalf("expected one request, got %d", len(h.backend.asked))
	}
	req := h.backend.asked[0]
	if req.Prompt != "hi" || req.Model != "gemma:4b" {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestAsk_ReadsStdin(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "  from a pipe\n", "ask"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.backend.asked[0].Prompt; got != "from a pipe" {
		t.Errorf("expected trimmed stdin prompt, got %q", got)
	}
}

func TestAsk_ReadsFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "prompt.md")
	if err := os.WriteFile(path, []byte("from a file"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := h.run(t, "", "ask", "-f", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.backend.asked[0].Prompt; got != "from a file" {
		t.Errorf("expected file prompt, got %q", got)
	}
}

func TestAsk_EmptyPrompt(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "   ", "ask")
	if err == nil || !strings.Contains(err.Error(), "prompt cannot be empty") {
		t.Errorf("expected empty prompt error, got %v", err)
	}
	if len(h.backend.asked) != 0 {
		t.Error("expected nothing to be sent")
	}
}

func TestAsk_BadImage(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "ask", "look", "-i", filepath.Join(t.TempDir(), "missing.png"))
	if err == nil || !strings.Contains(err.Error(), "cannot attach image") {
		t.Errorf("expected attach error, got %v", err)
	}
}

func TestAsk_WritesOutputFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "reply.md")
	if _, err := h.run(t, "", "ask", "hi", "-o", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "Hello" {
		t.Errorf("expected reply in file, got %q (%v)", data, err)
	}
}

func TestAsk_NewChat(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "", "ask", "hi", "--new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.backend.created != 1 || h.backend.active != "new1" {
		t.Errorf("expected a new chat, active %q", h.backend.active)
	}
	if h.store.id != "new1" {
		t.Errorf("expected the new chat to be remembered, got %q", h.store.id)
	}
}

func TestAsk_ModelSelection(t *testing.T) {
	bound := models.ChatHistory{
		Model: "llama3",
		Messages: []models.Message{
			{Role: "user", Content: "hi"},
			{Role: "ai", Content: "hello"},
		},
	}

	unbound := bound
	unbound.Model = ""

	tests := []struct {
		name      string
		args      []string
		history   *models.ChatHistory
		wantModel string
		wantErr   error
	}{
		{name: "first available", args: []string{"ask", "q"}, wantModel: "gemma:4b"},
		{name: "flag", args: []string{"ask", "q", "-m", "llama3"}, wantModel: "llama3"},
		{name: "bound chat keeps its model", args: []string{"ask", "q"}, history: &bound, wantModel: "llama3"},
		{name: "bound chat refuses another", args: []string{"ask", "q", "-m", "gemma:4b"}, history: &bound, wantErr: session.ErrModelLocked},
		{name: "messages without a model", args: []string{"ask", "q"}, history: &unbound, wantModel: "gemma:4b"},
		{name: "messages without a model take the flag", args: []string{"ask", "q", "-m", "llama3"}, history: &unbound, wantModel: "llama3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.history != nil {
				h.backend.histories["a"] = *tt.history
			}

			_, err := h.run(t, "", tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if len(h.backend.asked) != 0 {
					t.Error("expected nothing to be sent")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := h.backend.asked[0].Model; got != tt.wantModel {
				t.Errorf("expected model %s, got %s", tt.wantModel, got)
			}
		})
	}
}

func TestAsk_UnknownModel(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "ask", "q", "-m", "mistral")
	if err == nil || !strings.Contains(err.Error(), `unknown model "mistral"`) {
		t.Errorf("expected unknown model error, got %v", err)
	}
}
