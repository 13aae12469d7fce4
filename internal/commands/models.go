package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the server offers",
		Long:  `List the models the server offers. The configured default is marked with *.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.connect(ctx)
			if err != nil {
				return err
			}
			list, err := backend.ListModels(ctx)
			if err != nil {
				return fmt.Errorf("failed to load models: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No models available")
				return nil
			}
			for _, name := range list {
				marker := "  "
				if name == a.cfg.DefaultModel {
					marker = "* "
				}
				fmt.Fprintln(out, marker+name)
			}
			return nil
		},
	}
}
