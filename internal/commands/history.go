package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/history"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/render"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		raw    bool
		export string
		format string
	)
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Print or export the transcript of a chat",
		Long: `Print the transcript of the chat used last, or of the chat with the given
id, which then becomes the current one.

With --export the transcript is written to a file instead. The format
follows the file extension unless --format is given.

Examples:
  ollamachat history
  ollamachat history 42 --raw
  ollamachat history --export chat.md
  ollamachat history --export chat.out --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.connect(ctx)
			if err != nil {
				return err
			}
			ctrl := session.NewController(backend, a.store())

			var res session.Result
			if len(args) == 1 {
				chats, err := backend.ListChats(ctx)
				if err != nil {
					return fmt.Errorf("failed to list chats: %w", err)
				}
				res, err = ctrl.Switch(ctx, session.State{Chats: chats}, args[0])
				if err != nil {
					return fmt.Errorf("failed to open chat: %w", err)
				}
			} else if res, err = a.enterChat(ctx, ctrl); err != nil {
				return err
			}

			h, ok := shownHistory(res)
			if !ok {
				return fmt.Errorf("no history for chat %s", res.State.ActiveID)
			}
			out := cmd.OutOrStdout()
			if export != "" {
				return exportHistory(out, export, format, res.State, h)
			}
			if raw || !isTerminal(out) {
				return printRawHistory(out, res.State, h)
			}
			return a.printHistory(out, res.State, h)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the messages as plain text")
	cmd.Flags().StringVarP(&export, "export", "e", "", "Write the transcript to a file")
	cmd.Flags().StringVar(&format, "format", "", "Export format: markdown or json")
	return cmd
}

// shownHistory returns the history a session result displays.
func shownHistory(res session.Result) (models.ChatHistory, bool) {
	for _, e := range res.Effects {
		if e.Kind == session.ShowHistory {
			return e.History, true
		}
	}
	return models.ChatHistory{}, false
}

func exportHistory(w io.Writer, path, format string, st session.State, h models.ChatHistory) error {
	f := history.FormatForPath(path)
	if format != "" {
		var err error
		if f, err = history.ParseFormat(format); err != nil {
			return err
		}
	}

	data, err := history.Export(history.NewTranscript(st.ActiveID, st.Title, h), f)
	if err != nil {
		return fmt.Errorf("failed to export chat: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	fmt.Fprintf(w, "Exported %d messages to %s\n", len(h.Messages), path)
	return nil
}

func printRawHistory(w io.Writer, st session.State, h models.ChatHistory) error {
	fmt.Fprintf(w, "# %s\n", st.Header())
	for _, msg := range h.Messages {
		role := models.NormalizeRole(msg.Role)
		fmt.Fprintf(w, "\n[%s]\n%s\n", role, strings.TrimRight(msg.Content, "\n"))
	}
	return nil
}

func (a *app) printHistory(w io.Writer, st session.State, h models.ChatHistory) error {
	width := min(terminalWidth(w), 120)
	r := render.NewRenderer(render.OptionsFromConfig(a.cfg).WithWidth(width - 2))

	fmt.Fprintln(w, assistantLabelStyle.Render(st.Header()))
	if h.Empty() {
		fmt.Fprintln(w, dimStyle.Render("No messages yet."))
		return nil
	}

	for _, msg := range h.Messages {
		fmt.Fprintln(w)
		if msg.IsAssistant() {
			fmt.Fprintln(w, assistantLabelStyle.Render("✦ "+st.Model))
		} else {
			fmt.Fprintln(w, userLabelStyle.Render("● You"))
		}
		node, err := r.Render(msg.Role, msg.Content, st.Model)
		if err != nil {
			node = r.RenderError(err, st.Model)
		}
		fmt.Fprintln(w, node.View(nil))
	}
	return nil
}
