// Package commands provides CLI commands for agentchat.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/diogo/agentchat/internal/api"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	agent     string
	server    string
	verbose   bool
	ephemeral bool

	// clientOpts are appended when building the API client
	clientOpts []api.ClientOption
}

// NewRootCmd builds the agentchat command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd()
}

func newRootCmd(clientOpts ...api.ClientOption) *cobra.Command {
	g := &globalOptions{clientOpts: clientOpts}
	ask := &askOptions{}

	rootCmd := &cobra.Command{
		Use:   "agentchat [prompt]",
		Short: "Chat with a streaming agent server",
		Long: `agentchat talks to an agent chat server: it opens a live event stream,
sends your messages and renders the streamed replies. Conversations can be
saved to a local archive and searched, shown or exported later.

Examples:
  agentchat chat                          Start interactive chat
  agentchat "Which laptops are in stock?" Ask a single question
  agentchat -a inventory_agent "..."      Ask a specific agent
  cat prompt.md | agentchat               Read prompt from stdin
  agentchat history list                  List saved conversations
  agentchat history export @last -f html  Export the newest conversation`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "agentchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(cmd, args, ask.file)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}

			// Piped output gets the plain reply
			opts := *ask
			if !opts.raw && !opts.html && opts.output == "" && !isTerminal(cmd.OutOrStdout()) {
				opts.raw = true
			}

			deps, err := NewDependencies(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer deps.Close()

			return runAsk(cmd.Context(), deps, prompt, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.agent, "agent", "a", "", "Agent to talk to (see 'agentchat agents')")
	pf.StringVar(&g.server, "server", "", "Agent server URL (overrides config and AGENTCHAT_SERVER)")
	pf.BoolVar(&g.verbose, "verbose", false, "Log debug output to stderr")
	pf.BoolVar(&g.ephemeral, "ephemeral", false, "Keep the archive in memory for this run")

	f := rootCmd.Flags()
	f.StringVarP(&ask.output, "output", "o", "", "Save response to file")
	f.StringVarP(&ask.file, "file", "f", "", "Read prompt from file")
	f.BoolVar(&ask.raw, "raw", false, "Print the raw response text without decoration")
	f.BoolVar(&ask.html, "html", false, "Print the response as sanitized HTML")
	f.BoolVar(&ask.save, "save", false, "Save the exchange to the archive")
	f.BoolP("version", "v", false, "Show version and exit")
	rootCmd.MarkFlagsMutuallyExclusive("raw", "html")

	rootCmd.AddCommand(newChatCmd(g))
	rootCmd.AddCommand(newHistoryCmd(g))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newAgentsCmd(g))
	rootCmd.AddCommand(newHealthCmd(g))

	return rootCmd
}

// readPrompt takes the prompt from --file, piped stdin or the positional
// argument, in that order. ok is false when none was given.
func readPrompt(cmd *cobra.Command, args []string, file string) (string, bool, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", false, nil
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", false, fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}
