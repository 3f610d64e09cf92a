package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diogo/agentchat/internal/config"
	"github.com/diogo/agentchat/internal/render"
	"github.com/diogo/agentchat/internal/tui"
)

// chatLogFile receives logs while the full-screen interface owns the terminal
const chatLogFile = "chat.log"

func newChatCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the agent server.

Keys:
  Enter   send         Ctrl+S  save conversation
  Ctrl+O  history      Ctrl+L  clear chat
  Ctrl+Y  copy reply   Esc     quit

Commands: /agent <name>, /agents, /save, /clear, /history, /copy, /exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, g)
		},
	}
}

func runChat(cmd *cobra.Command, g *globalOptions) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	logOut, closeLog, err := chatLogWriter(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	deps, err := newDependencies(g, cfg, logOut)
	if err != nil {
		return err
	}
	defer deps.Close()

	client, err := deps.NewClient()
	if err != nil {
		return err
	}

	if cfg.TUITheme != "" && !tui.ApplyTheme(cfg.TUITheme) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: unknown theme %q, using %s\n", cfg.TUITheme, render.DefaultTUITheme)
	}

	return tui.RunChat(cmd.Context(), client, tui.ChatConfig{
		Agent:     deps.Agent,
		ServerURL: cfg.ServerURL,
		Archive:   deps.Archive,
		Renderer:  render.NewTerminalRenderer(render.OptionsFromConfig(cfg.Markdown)),
		Logger:    deps.Logger,
	})
}

// chatLogWriter opens the chat log when verbose, otherwise logs are dropped
func chatLogWriter(cfg config.Config) (io.Writer, func(), error) {
	if !cfg.Verbose {
		return io.Discard, func() {}, nil
	}

	dir, err := config.EnsureConfigDir()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, chatLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open chat log: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
