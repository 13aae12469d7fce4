package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/api"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/browser"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/config"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/session"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Connect opens a session with the chat server described by cfg.
	Connect func(ctx context.Context, cfg config.Config) (tui.Backend, error)

	// Store opens the client-persisted state. A nil Store, or one that
	// fails, disables remembering the last chat.
	Store func() (session.LastChatStore, error)

	// RunChat and RunSettings start the full-screen interfaces.
	RunChat     func(ctx context.Context, opts tui.Options) error
	RunSettings func(cfg config.Config, path string, models []string) error
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Connect:     connect,
		Store:       defaultStore,
		RunChat:     tui.RunChat,
		RunSettings: tui.RunSettings,
	}
}

func defaultStore() (session.LastChatStore, error) {
	store, err := config.DefaultStateStore()
	if err != nil {
		return nil, err
	}
	return store, nil
}

func connect(ctx context.Context, cfg config.Config) (tui.Backend, error) {
	opts := []api.ClientOption{
		api.WithTimeout(time.Duration(cfg.RequestTimeoutSeconds) * time.Second),
	}

	if cfg.BrowserSession != "" {
		cookies, err := browserSession(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, api.WithSessionCookies(cookies))
	}

	client, err := api.NewClient(cfg.ServerURL, opts...)
	if err != nil {
		return nil, err
	}
	return tui.NewBackend(client), nil
}

// browserSession reads the server's session cookie from the configured
// browser, so this process continues the chat open in the web UI.
func browserSession(ctx context.Context, cfg config.Config) ([]*fhttp.Cookie, error) {
	b, err := browser.ParseBrowser(cfg.BrowserSession)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", cfg.ServerURL, err)
	}

	res, err := browser.ExtractSessionCookies(ctx, b, u.Hostname())
	if err != nil {
		if found := browser.ListAvailableBrowsers(ctx); len(found) > 0 {
			return nil, fmt.Errorf("failed to read browser session (cookie stores found: %s): %w", strings.Join(found, ", "), err)
		}
		return nil, fmt.Errorf("failed to read browser session: %w", err)
	}
	logger.WithFields(logger.Fields{
		"browser": res.BrowserName,
		"store":   res.StorePath,
		"cookies": len(res.Cookies),
	}).Info("imported browser session")
	return res.Cookies, nil
}
