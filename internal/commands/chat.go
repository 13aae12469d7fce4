package commands

import (
	"github.com/spf13/cobra"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/tui"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat",
		Long: `Start the full-screen chat. It opens the chat used last and keeps the
chat list, the model picker and the VRAM readout of the web UI.

Enter sends, Alt+Enter inserts a newline and /help lists the commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd)
		},
	}
}

func (a *app) runChat(cmd *cobra.Command) error {
	ctx := cmd.Context()
	backend, err := a.connect(ctx)
	if err != nil {
		return err
	}
	return a.deps.RunChat(ctx, tui.Options{
		Backend:    backend,
		Store:      a.store(),
		Config:     a.cfg,
		ConfigPath: a.configPath,
		Model:      a.flags.model,
	})
}
