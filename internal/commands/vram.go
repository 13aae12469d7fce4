package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
)

const defaultVRAMWatch = 30 * time.Second

func newVRAMCmd(a *app) *cobra.Command {
	var watch bool
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "vram",
		Short: "Show the GPU memory use of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.connect(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			usage, err := backend.VRAM(ctx)
			if err != nil {
				return fmt.Errorf("failed to read VRAM usage: %w", err)
			}
			fmt.Fprintln(out, usage.String())
			if !watch {
				return nil
			}

			if every <= 0 {
				every = time.Duration(a.cfg.VRAMIntervalSeconds) * time.Second
			}
			if every <= 0 {
				every = defaultVRAMWatch
			}
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					usage, err := backend.VRAM(ctx)
					if err != nil {
						// keep polling; the server may come back
						logger.Debugf("failed to fetch VRAM usage: %v", err)
						continue
					}
					fmt.Fprintln(out, usage.String())
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep polling until interrupted")
	cmd.Flags().DurationVar(&every, "interval", 0, "Polling interval for --watch (default vram_interval_seconds)")
	return cmd
}
