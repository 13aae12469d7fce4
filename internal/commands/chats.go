package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
)

const deleteQuestion = "Are you sure you want to delete this chat?"

func newChatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage the chats stored on the server",
	}
	cmd.AddCommand(
		newChatsListCmd(a),
		newChatsNewCmd(a),
		newChatsSwitchCmd(a),
		newChatsDeleteCmd(a),
	)
	return cmd
}

func newChatsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all chats; the one used last is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.connect(ctx)
			if err != nil {
				return err
			}
			chats, err := backend.ListChats(ctx)
			if err != nil {
				return fmt.Errorf("failed to list chats: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(chats) == 0 {
				fmt.Fprintln(out, "No chats found.")
				return nil
			}

			last := ""
			if store := a.store(); store != nil {
				last = store.LastChatID()
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, " \tID\tTITLE")
			for _, c := range chats {
				marker := " "
				if c.ID == last {
					marker = "*"
				}
				title := c.Title
				if title == "" {
					title = models.UntitledChat
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", marker, c.ID, truncate(title, 60))
			}
			return w.Flush()
		},
	}
}

func newChatsNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new chat and make it the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.connect(ctx)
			if err != nil {
				return err
			}
			res, err := session.NewController(backend, a.store()).Create(ctx, session.State{})
			if err != nil {
				return fmt.Errorf("failed to create chat: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created chat %s\n", res.State.ActiveID)
			return nil
		},
	}
}

func newChatsSwitchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <id>",
		Short: "Make a chat the current one for ask and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.connect(ctx)
			if err != nil {
				return err
			}
			chats, err := backend.ListChats(ctx)
			if err != nil {
				return fmt.Errorf("failed to list chats: %w", err)
			}

			ctrl := session.NewController(backend, a.store())
			res, err := ctrl.Switch(ctx, session.State{Chats: chats}, args[0])
			if err != nil {
				return fmt.Errorf("failed to switch chat: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", res.State.Header())
			return nil
		},
	}
}

func newChatsDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a chat",
		Long: `Delete a chat. Afterwards the first remaining chat becomes the current
one; deleting the last chat starts a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(cmd, deleteQuestion)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			ctx := cmd.Context()
			backend, err := a.connect(ctx)
			if err != nil {
				return err
			}
			chats, err := backend.ListChats(ctx)
			if err != nil {
				return fmt.Errorf("failed to list chats: %w", err)
			}

			store := a.store()
			st := session.State{Chats: chats}
			if store != nil {
				st.ActiveID = store.LastChatID()
			}
			res, err := session.NewController(backend, store).Delete(ctx, st, args[0])
			if err != nil {
				return fmt.Errorf("failed to delete chat: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted chat %s\n", args[0])
			if res.State.ActiveID != "" {
				fmt.Fprintf(out, "Current chat: %s\n", res.State.Header())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
