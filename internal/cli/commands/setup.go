package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/geoprompt/internal/cli/config"
	"github.com/leapstack-labs/geoprompt/internal/cli/output"
	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/internal/session"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// Ollama creates a client for the configured inference server.
func (c *CommandContext) Ollama() *ollama.Client {
	return ollama.NewClient(c.Cfg.Ollama.ClientConfig(), c.Logger)
}

// Session creates a session using the configured model. The caller owns the
// returned session and must Close it.
func (c *CommandContext) Session() *session.Session {
	return session.New(c.Ollama(), nil, c.Cfg.Ollama.Model, c.Logger)
}

// Helper functions shared across commands

// getConfig returns the current configuration, or the defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// readInput returns SQL or prompt text from args, a file, or piped stdin, in that order.
// ok is false when none of them supplied anything.
func readInput(cmd *cobra.Command, args []string, file string) (text string, ok bool, err error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), true, nil
	case file != "":
		content, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(content), true, nil
	case !stdinIsTerminal(cmd):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(content), strings.TrimSpace(string(content)) != "", nil
	}
	return "", false, nil
}

// stdinIsTerminal reports whether the command reads from an interactive terminal.
// A replaced input (tests, pipes set through cobra) never counts as one.
func stdinIsTerminal(cmd *cobra.Command) bool {
	if cmd.InOrStdin() != os.Stdin {
		return false
	}
	return output.StdinIsTerminal()
}
