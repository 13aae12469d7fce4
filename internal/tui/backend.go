package tui

import (
	"context"
	"iter"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/api"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
)

// ChunkStream is an open reply.
type ChunkStream interface {
	Chunks() iter.Seq2[string, error]
	Close() error
}

// Backend is everything the chat screen needs from the server.
type Backend interface {
	session.Backend
	ListModels(ctx context.Context) ([]string, error)
	Ask(ctx context.Context, req api.AskRequest) (ChunkStream, error)
	VRAM(ctx context.Context) (models.VRAMUsage, error)
	Shutdown(ctx context.Context) error
}

type clientBackend struct {
	*api.Client
}

// NewBackend adapts an API client to Backend.
func NewBackend(c *api.Client) Backend {
	return clientBackend{Client: c}
}

func (b clientBackend) Ask(ctx context.Context, req api.AskRequest) (ChunkStream, error) {
	s, err := b.Client.Ask(ctx, req)
	if err != nil {
		return nil, err
	}
	return s, nil
}
