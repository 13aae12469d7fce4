package render

import (
	"os"

	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/config"
)

// OptionsFromConfig maps the user configuration onto render Options.
// GLAMOUR_STYLE, when set, wins over the configured markdown style.
func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()

	md := cfg.Markdown
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	opts.Code = CodeOptions{
		LineNumbers: cfg.Code.LineNumbers,
		IndentLines: cfg.Code.IndentLines,
	}
	if cfg.Code.Style != "" {
		opts.CodeStyle = cfg.Code.Style
	}

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}
	return opts
}

// LoadOptionsFromConfig reads the config file and maps it with
// OptionsFromConfig, falling back to defaults when it cannot be read.
func LoadOptionsFromConfig() Options {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return OptionsFromConfig(cfg)
}
