// Package config handles configuration and client-side state for ollamachat.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. OLLAMACHAT_SERVER_URL.
const EnvPrefix = "OLLAMACHAT"

// DefaultServerURL is where the web chat backend listens by default.
const DefaultServerURL = "http://localhost:5000"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" mapstructure:"style"`                           // "dark", "light", "auto" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji" mapstructure:"enable_emoji"`             // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines" mapstructure:"preserve_newlines"`   // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap" mapstructure:"table_wrap"`                 // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links" mapstructure:"inline_table_links"` // Render links inline in tables
}

// CodeConfig configures how fenced code blocks are drawn
type CodeConfig struct {
	LineNumbers bool   `json:"line_numbers" mapstructure:"line_numbers"`
	IndentLines bool   `json:"indent_lines" mapstructure:"indent_lines"`
	Style       string `json:"style" mapstructure:"style"` // chroma style name
}

// Config represents the user configuration
type Config struct {
	// ServerURL is the base URL of the chat backend.
	ServerURL string `json:"server_url" mapstructure:"server_url"`
	// DefaultModel preselects a model for chats that are not bound yet.
	DefaultModel string `json:"default_model" mapstructure:"default_model"`
	TUITheme     string `json:"tui_theme,omitempty" mapstructure:"tui_theme"`
	LogLevel     string `json:"log_level" mapstructure:"log_level"`
	Verbose      bool   `json:"verbose" mapstructure:"verbose"`
	// CopyToClipboard copies the finished reply of `ask` to the clipboard.
	CopyToClipboard bool `json:"copy_to_clipboard" mapstructure:"copy_to_clipboard"`
	// VRAMIntervalSeconds is the telemetry polling period; 0 disables polling.
	VRAMIntervalSeconds   int `json:"vram_interval_seconds" mapstructure:"vram_interval_seconds"`
	RequestTimeoutSeconds int `json:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	// BrowserSession names a browser whose session cookie for ServerURL is imported at startup.
	BrowserSession string         `json:"browser_session,omitempty" mapstructure:"browser_session"`
	Code           CodeConfig     `json:"code" mapstructure:"code"`
	Markdown       MarkdownConfig `json:"markdown,omitempty" mapstructure:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultCodeConfig returns the default code block configuration
func DefaultCodeConfig() CodeConfig {
	return CodeConfig{
		LineNumbers: true,
		IndentLines: true,
		Style:       "monokai",
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:             DefaultServerURL,
		DefaultModel:          "",
		TUITheme:              "tokyonight",
		LogLevel:              "info",
		Verbose:               false,
		CopyToClipboard:       false,
		VRAMIntervalSeconds:   30,
		RequestTimeoutSeconds: 300,
		Code:                  DefaultCodeConfig(),
		Markdown:              DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path.
// OLLAMACHAT_CONFIG_DIR overrides the default ~/.ollamachat.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		return filepath.Abs(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".ollamachat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the session state
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "ollamachat.log"), nil
}

// newViper returns a viper instance seeded with every default so that
// environment overrides apply to all keys.
func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("server_url", def.ServerURL)
	v.SetDefault("default_model", def.DefaultModel)
	v.SetDefault("tui_theme", def.TUITheme)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("copy_to_clipboard", def.CopyToClipboard)
	v.SetDefault("vram_interval_seconds", def.VRAMIntervalSeconds)
	v.SetDefault("request_timeout_seconds", def.RequestTimeoutSeconds)
	v.SetDefault("browser_session", def.BrowserSession)
	v.SetDefault("code.line_numbers", def.Code.LineNumbers)
	v.SetDefault("code.indent_lines", def.Code.IndentLines)
	v.SetDefault("code.style", def.Code.Style)
	v.SetDefault("markdown.style", def.Markdown.Style)
	v.SetDefault("markdown.enable_emoji", def.Markdown.EnableEmoji)
	v.SetDefault("markdown.preserve_newlines", def.Markdown.PreserveNewLines)
	v.SetDefault("markdown.table_wrap", def.Markdown.TableWrap)
	v.SetDefault("markdown.inline_table_links", def.Markdown.InlineTableLinks)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads the configuration from disk, applying environment overrides
func LoadConfig() (Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom loads the configuration from path. A missing file yields defaults.
func LoadConfigFrom(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Keys returns the keys accepted by SetValue, in display order.
func Keys() []string {
	return []string{
		"server_url",
		"default_model",
		"tui_theme",
		"log_level",
		"verbose",
		"copy_to_clipboard",
		"vram_interval_seconds",
		"request_timeout_seconds",
		"browser_session",
		"code.line_numbers",
		"code.indent_lines",
		"code.style",
		"markdown.style",
		"markdown.enable_emoji",
		"markdown.preserve_newlines",
		"markdown.table_wrap",
		"markdown.inline_table_links",
	}
}

// SetValue parses value and stores it under key.
func SetValue(cfg *Config, key, value string) error {
	parseBool := func(dst *bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		*dst = b
		return nil
	}
	parseInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s expects a non-negative integer, got %q", key, value)
		}
		*dst = n
		return nil
	}

	switch key {
	case "server_url":
		cfg.ServerURL = strings.TrimRight(value, "/")
	case "default_model":
		cfg.DefaultModel = value
	case "tui_theme":
		cfg.TUITheme = value
	case "log_level":
		switch value {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = value
		default:
			return fmt.Errorf("log_level must be one of debug, info, warn, error")
		}
	case "verbose":
		return parseBool(&cfg.Verbose)
	case "copy_to_clipboard":
		return parseBool(&cfg.CopyToClipboard)
	case "vram_interval_seconds":
		return parseInt(&cfg.VRAMIntervalSeconds)
	case "request_timeout_seconds":
		return parseInt(&cfg.RequestTimeoutSeconds)
	case "browser_session":
		cfg.BrowserSession = value
	case "code.line_numbers":
		return parseBool(&cfg.Code.LineNumbers)
	case "code.indent_lines":
		return parseBool(&cfg.Code.IndentLines)
	case "code.style":
		cfg.Code.Style = value
	case "markdown.style":
		cfg.Markdown.Style = value
	case "markdown.enable_emoji":
		return parseBool(&cfg.Markdown.EnableEmoji)
	case "markdown.preserve_newlines":
		return parseBool(&cfg.Markdown.PreserveNewLines)
	case "markdown.table_wrap":
		return parseBool(&cfg.Markdown.TableWrap)
	case "markdown.inline_table_links":
		return parseBool(&cfg.Markdown.InlineTableLinks)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// GetValue returns the value stored under key, formatted as SetValue
// accepts it.
func GetValue(cfg Config, key string) (string, error) {
	switch key {
	case "server_url":
		return cfg.ServerURL, nil
	case "default_model":
		return cfg.DefaultModel, nil
	case "tui_theme":
		return cfg.TUITheme, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "verbose":
		return strconv.FormatBool(cfg.Verbose), nil
	case "copy_to_clipboard":
		return strconv.FormatBool(cfg.CopyToClipboard), nil
	case "vram_interval_seconds":
		return strconv.Itoa(cfg.VRAMIntervalSeconds), nil
	case "request_timeout_seconds":
		return strconv.Itoa(cfg.RequestTimeoutSeconds), nil
	case "browser_session":
		return cfg.BrowserSession, nil
	case "code.line_numbers":
		return strconv.FormatBool(cfg.Code.LineNumbers), nil
	case "code.indent_lines":
		return strconv.FormatBool(cfg.Code.IndentLines), nil
	case "code.style":
		return cfg.Code.Style, nil
	case "markdown.style":
		return cfg.Markdown.Style, nil
	case "markdown.enable_emoji":
		return strconv.FormatBool(cfg.Markdown.EnableEmoji), nil
	case "markdown.preserve_newlines":
		return strconv.FormatBool(cfg.Markdown.PreserveNewLines), nil
	case "markdown.table_wrap":
		return strconv.FormatBool(cfg.Markdown.TableWrap), nil
	case "markdown.inline_table_links":
		return strconv.FormatBool(cfg.Markdown.InlineTableLinks), nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}
