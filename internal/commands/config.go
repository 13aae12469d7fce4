package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/config"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
)

// modelsLookupTimeout bounds the model fetch for the settings screen.
const modelsLookupTimeout = 5 * time.Second

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Open the settings menu",
		Long: `Open an interactive menu to change the settings. Changes are saved at
once and a running chat picks them up.

The subcommands read and write single keys for scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.fileConfig()
			if err != nil {
				return err
			}
			return a.deps.RunSettings(cfg, a.configPath, a.modelChoices(cmd.Context()))
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := json.MarshalIndent(a.cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the path of the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.configPath)
				return nil
			},
		},
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Print one configuration value",
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.Keys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := config.GetValue(a.cfg, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one configuration value",
			Long:  "Change one configuration value. Keys:\n  " + strings.Join(config.Keys(), "\n  "),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := a.fileConfig()
				if err != nil {
					return err
				}
				if err := config.SetValue(&cfg, args[0], args[1]); err != nil {
					return err
				}
				if err := config.SaveConfig(cfg); err != nil {
					return err
				}
				value, _ := config.GetValue(cfg, args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
				return nil
			},
		},
	)
	return cmd
}

// fileConfig reads the config file without the flag overrides, so saving
// it does not persist them.
func (a *app) fileConfig() (config.Config, error) {
	cfg, err := config.LoadConfigFrom(a.configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// modelChoices lists the server's models for the settings menu, or nil when
// the server cannot be reached.
func (a *app) modelChoices(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, modelsLookupTimeout)
	defer cancel()

	backend, err := a.connect(ctx)
	if err != nil {
		logger.Warnf("settings: %v", err)
		return nil
	}
	list, err := backend.ListModels(ctx)
	if err != nil {
		logger.Warnf("settings: failed to load models: %v", err)
		return nil
	}
	return list
}
