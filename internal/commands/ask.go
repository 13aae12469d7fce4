package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/api"
	apierrors "github.com/JonasPHenriksen/Ollama-Web-Chat/internal/errors"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/stream"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/tui"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

type askOptions struct {
	file    string
	image   string
	output  string
	raw     bool
	newChat bool
}

func newAskCmd(a *app) *cobra.Command {
	var o askOptions

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send one prompt and stream the reply",
		Long: `Send one prompt to the chat used last and stream the reply.

The prompt comes from the argument, from --file, or from stdin. When stdout
is not a terminal the reply is written as plain text.

Examples:
  ollamachat ask "What is Go?"
  ollamachat ask -f prompt.md -o reply.md
  cat prompt.md | ollamachat ask --raw
  ollamachat ask "What is in this picture?" -i photo.png --new`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd, args, o.file)
			if err != nil {
				return err
			}
			return a.runAsk(cmd, prompt, o)
		},
	}

	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Read the prompt from a file")
	cmd.Flags().StringVarP(&o.image, "image", "i", "", "Attach an image (jpeg, png, gif, webp)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Also write the reply to a file")
	cmd.Flags().BoolVar(&o.raw, "raw", false, "Print the reply as plain text")
	cmd.Flags().BoolVar(&o.newChat, "new", false, "Ask in a new chat")
	return cmd
}

// readPrompt takes the prompt from --file, the argument, or piped stdin,
// in that order.
func readPrompt(cmd *cobra.Command, args []string, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return args[0], nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return "", nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func (a *app) runAsk(cmd *cobra.Command, prompt string, o askOptions) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	raw := o.raw || !isTerminal(out)

	req := api.AskRequest{Prompt: strings.TrimSpace(prompt)}
	if o.image != "" {
		img, err := api.NewImageAttachment(o.image)
		if err != nil {
			return fmt.Errorf("cannot attach image: %w", err)
		}
		req.Image = img
	}
	if req.Empty() {
		return errors.New("prompt cannot be empty")
	}

	backend, err := a.connect(ctx)
	if err != nil {
		return err
	}

	var spin *spinner
	if !raw {
		spin = newSpinner(errOut, "Connecting to "+a.cfg.ServerURL)
		spin.start()
	}
	st, err := a.prepareAsk(ctx, backend, o.newChat)
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}
	if spin != nil {
		spin.stopWithSuccess(st.Header())
	}
	req.Model = st.Model

	width := min(terminalWidth(out), 120)
	renderer := render.NewRenderer(render.OptionsFromConfig(a.cfg).WithWidth(width - 2))
	consumer := stream.New(st.Model, renderer)
	log := logger.WithFields(logger.Fields{"stream": consumer.ID(), "chat": st.ActiveID, "model": st.Model})
	log.Info("ask started")

	body, err := backend.Ask(ctx, req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer body.Close()

	var sink stream.Sink
	if raw {
		sink = stream.NewRawSink(out)
	} else {
		fmt.Fprintln(out, assistantLabelStyle.Render("✦ "+st.Model))
		ts := stream.NewTerminalSink(out, width)
		defer ts.Close()
		sink = ts
	}

	reply, err := stream.Run(ctx, body.Chunks(), consumer, sink)
	if err != nil {
		log.Warnf("ask failed: %v", err)
		return fmt.Errorf("reply failed: %w", err)
	}
	log.Info("ask finished")

	if o.output != "" {
		if err := os.WriteFile(o.output, []byte(reply.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !raw {
			fmt.Fprintln(errOut, successStyle.Render("✓ Reply saved to "+o.output))
		}
	}

	if a.cfg.CopyToClipboard && !raw {
		if err := writeClipboard(reply.Content); err != nil {
			fmt.Fprintln(errOut, warnStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(errOut, successStyle.Render("✓ Copied to clipboard"))
		}
	}
	return nil
}

// prepareAsk opens the chat to ask in and settles its model. A chat bound
// to a model keeps it; asking it with another model is refused. A chat with
// messages but no stored model takes the usual pick.
func (a *app) prepareAsk(ctx context.Context, backend tui.Backend, newChat bool) (session.State, error) {
	ctrl := session.NewController(backend, a.store())

	var res session.Result
	var err error
	if newChat {
		res, err = ctrl.Create(ctx, session.State{})
		if err != nil {
			err = fmt.Errorf("failed to create chat: %w", err)
		}
	} else {
		res, err = a.enterChat(ctx, ctrl)
	}
	if err != nil {
		return session.State{}, err
	}
	st := res.State

	available, err := backend.ListModels(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to load models: %w", err)
	}
	if len(available) == 0 {
		return st, apierrors.ErrNoModels
	}

	want := a.cfg.DefaultModel
	switch {
	case st.Locked && st.Model != "":
		if a.flags.model != "" && a.flags.model != st.Model {
			return st, fmt.Errorf("%w: chat %q is bound to %s (ask with --new to pick another)", session.ErrModelLocked, st.Title, st.Model)
		}
		return st, nil
	case want != "":
		if !slices.Contains(available, want) {
			return st, fmt.Errorf("unknown model %q (available: %s)", want, strings.Join(available, ", "))
		}
	case slices.Contains(available, st.Model):
		want = st.Model
	default:
		want = available[0]
	}
	if st.Locked {
		// The chat has messages but never stored a model.
		st.Model = want
		return st, nil
	}
	return st.SelectModel(want)
}
