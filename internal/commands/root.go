// Package commands provides the ollamachat command line.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/browser"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/config"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags override the config file for one invocation.
type globalFlags struct {
	server         string
	model          string
	logLevel       string
	verbose        bool
	browserSession string
}

// app is what every command shares once the flags are parsed.
type app struct {
	deps       *Dependencies
	flags      globalFlags
	cfg        config.Config
	configPath string
}

// NewRootCmd builds the command tree around deps.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	a := &app{deps: deps}

	cmd := &cobra.Command{
		Use:   "ollamachat",
		Short: "Terminal client for the Ollama web chat",
		Long: `ollamachat talks to an Ollama web chat server. Without a subcommand it
opens the interactive chat; the subcommands cover the same operations for
scripts.

Examples:
  ollamachat                            Start the interactive chat
  ollamachat ask "What is Go?"          Send a single prompt
  cat prompt.md | ollamachat ask --raw  Read the prompt from stdin
  ollamachat chats list                 List the chats on the server
  ollamachat config set server_url http://gpu-box:5000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "ollamachat %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return a.runChat(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.server, "server", "", "Chat server URL (default "+config.DefaultServerURL+")")
	pf.StringVarP(&a.flags.model, "model", "m", "", "Model for chats that are not bound to one yet")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.verbose, "verbose", false, "Log at debug level")
	pf.StringVar(&a.flags.browserSession, "browser-session", "",
		"Continue the web UI session of a browser (auto, "+browserNames()+")")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newModelsCmd(a),
		newChatsCmd(a),
		newHistoryCmd(a),
		newVRAMCmd(a),
		newShutdownCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(NewDependencies()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		stop()
		os.Exit(1)
	}
}

// setup loads the config, applies the flags and starts file logging.
func (a *app) setup(cmd *cobra.Command) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	a.configPath = path

	cfg, err := config.LoadConfigFrom(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; using defaults\n", err)
	}
	if err := a.applyFlags(&cfg); err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logPath, err := config.GetLogPath()
	if err == nil {
		err = logger.InitFile(level, logPath)
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: logging disabled: %v\n", err)
	}
	logger.WithFields(logger.Fields{"command": cmd.CommandPath(), "server": cfg.ServerURL}).Debug("starting")
	return nil
}

func (a *app) applyFlags(cfg *config.Config) error {
	f := a.flags
	if f.server != "" {
		if err := config.SetValue(cfg, "server_url", f.server); err != nil {
			return err
		}
	}
	if f.model != "" {
		cfg.DefaultModel = f.model
	}
	if f.logLevel != "" {
		if err := config.SetValue(cfg, "log_level", f.logLevel); err != nil {
			return err
		}
	}
	if f.verbose {
		cfg.Verbose = true
	}
	if f.browserSession != "" {
		if _, err := browser.ParseBrowser(f.browserSession); err != nil {
			return err
		}
		cfg.BrowserSession = f.browserSession
	}
	return nil
}

func (a *app) connect(ctx context.Context) (tui.Backend, error) {
	backend, err := a.deps.Connect(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", a.cfg.ServerURL, err)
	}
	return backend, nil
}

func (a *app) store() session.LastChatStore {
	if a.deps.Store == nil {
		return nil
	}
	store, err := a.deps.Store()
	if err != nil {
		logger.Warnf("state store unavailable: %v", err)
		return nil
	}
	return store
}

// enterChat selects the chat a command works on: the one used last, else
// the first on the server, else a new one. Each process starts its own
// server session, so this runs before any chat-scoped call.
func (a *app) enterChat(ctx context.Context, ctrl *session.Controller) (session.Result, error) {
	res, err := ctrl.List(ctx, session.State{})
	if err != nil {
		return res, fmt.Errorf("failed to open chat: %w", err)
	}
	return res, nil
}

func browserNames() string {
	var names []string
	for _, b := range browser.AllSupportedBrowsers() {
		names = append(names, b.String())
	}
	return strings.Join(names, ", ")
}
