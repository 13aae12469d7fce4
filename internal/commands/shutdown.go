package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const shutdownQuestion = "Are you sure you want to shut down the entire system?"

func newShutdownCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Power off the machine running the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(cmd, shutdownQuestion)
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
			if err := backend.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shutdown system: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "System is shutting down...")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
