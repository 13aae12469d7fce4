package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/api"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/stream"
)

// Messages sent from the stream goroutine. Each carries the stream id so
// output of a cancelled stream can be dropped.
type (
	streamChunkMsg struct {
		id    string
		chunk string
	}
	streamDoneMsg struct {
		id  string
		err error
	}
)

// activeStream is the reply currently being received.
type activeStream struct {
	consumer *stream.Consumer
	cancel   context.CancelFunc
	ch       chan tea.Msg
}

func (s *activeStream) id() string { return s.consumer.ID() }

// beginStream submits req and pumps the reply into a channel read by
// waitForStream, one message per Update.
func beginStream(ctx context.Context, backend Backend, req api.AskRequest, consumer *stream.Consumer) (*activeStream, tea.Cmd) {
	ctx, cancel := context.WithCancel(ctx)
	s := &activeStream{consumer: consumer, cancel: cancel, ch: make(chan tea.Msg, 64)}
	id := consumer.ID()

	send := func(msg tea.Msg) bool {
		select {
		case s.ch <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(s.ch)

		body, err := backend.Ask(ctx, req)
		if err != nil {
			send(streamDoneMsg{id: id, err: err})
			return
		}
		defer body.Close()

		for chunk, err := range body.Chunks() {
			if err != nil {
				send(streamDoneMsg{id: id, err: err})
				return
			}
			if !send(streamChunkMsg{id: id, chunk: chunk}) {
				logger.WithFields(logger.Fields{"stream": id}).Debug("stream abandoned")
				return
			}
		}
		send(streamDoneMsg{id: id})
	}()

	return s, waitForStream(s.ch)
}

// waitForStream reads the next message from the channel.
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
