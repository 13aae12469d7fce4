package api

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apierrors "github.com/JonasPHenriksen/Ollama-Web-Chat/internal/errors"
)

const streamReadSize = 4096

// AskRequest is one prompt submission.
type AskRequest struct {
	Model  string
	Prompt string
	Image  *ImageAttachment
}

// Empty reports whether there is nothing to send: a blank prompt and no
// image. Empty submissions are ignored rather than rejected.
func (r AskRequest) Empty() bool {
	return strings.TrimSpace(r.Prompt) == "" && r.Image == nil
}

// ResponseStream is the streamed reply to a prompt.
type ResponseStream struct {
	body      io.ReadCloser
	ctx       context.Context
	closeOnce sync.Once
}

// Ask submits a prompt and returns the open reply stream. A non-2xx answer
// fails here with the status line and body. The stream ends when ctx does.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*ResponseStream, error) {
	form, contentType, err := buildAskForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := c.newRequest(ctx, fhttp.MethodPost, EndpointAsk, form)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "text/plain, */*")

	resp, err := c.do(httpReq, EndpointAsk)
	if err != nil {
		return nil, err
	}
	return &ResponseStream{body: resp.Body, ctx: ctx}, nil
}

// Chunks yields decoded text as it arrives. The decoder holds back
// multi-byte characters split across reads until they complete; invalid
// bytes become U+FFFD. Breaking out of the loop closes the stream.
func (s *ResponseStream) Chunks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer s.Close()

		r := transform.NewReader(s.body, unicode.UTF8.NewDecoder())
		buf := make([]byte, streamReadSize)
		for {
			n, err := r.Read(buf)
			if n > 0 && !yield(string(buf[:n]), nil) {
				return
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctxErr := s.ctx.Err(); ctxErr != nil {
					err = ctxErr
				} else {
					err = apierrors.NewNetworkError(EndpointAsk, err)
				}
				yield("", err)
				return
			}
		}
	}
}

// Close releases the connection. It is safe to call more than once.
func (s *ResponseStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
