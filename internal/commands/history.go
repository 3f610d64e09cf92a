package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/agentchat/internal/history"
	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/render"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved conversations",
		Long: `View and manage the local archive of saved conversations.

The archive keeps the ` + fmt.Sprint(models.MaxArchiveSize) + ` most recently saved conversations.

` + history.ListAliases(),
	}

	historyCmd.AddCommand(
		newHistoryListCmd(g),
		newHistorySearchCmd(g),
		newHistoryShowCmd(g),
		newHistoryDeleteCmd(g),
		newHistoryExportCmd(g),
		newHistoryClearCmd(g),
	)
	return historyCmd
}

// withDeps opens the dependencies for a history subcommand
func withDeps(g *globalOptions, cmd *cobra.Command, fn func(*Dependencies) error) error {
	deps, err := NewDependencies(g, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer deps.Close()
	return fn(deps)
}

func newHistoryListCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(g, cmd, func(deps *Dependencies) error {
				return printConversations(cmd.OutOrStdout(), deps.Archive.List(), "No saved conversations.")
			})
		},
	}
}

func newHistorySearchCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search conversations by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(g, cmd, func(deps *Dependencies) error {
				return printConversations(cmd.OutOrStdout(), deps.Archive.Search(args[0]),
					fmt.Sprintf("No conversations match '%s'.", args[0]))
			})
		},
	}
}

func printConversations(w io.Writer, convs []history.Conversation, empty string) error {
	if len(convs) == 0 {
		fmt.Fprintln(w, empty)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tID\tTITLE\tAGENT\tMESSAGES\tSAVED")
	_, _ = fmt.Fprintln(tw, "-\t--\t-----\t-----\t--------\t-----")

	for i, conv := range convs {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			i+1, render.StripTerminal(conv.ID), render.StripTerminal(conv.Title),
			render.StripTerminal(conv.Agent), len(conv.Messages),
			history.FormatRelativeTime(conv.Timestamp))
	}

	return tw.Flush()
}

func newHistoryShowCmd(g *globalOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Show a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(g, cmd, func(deps *Dependencies) error {
				conv, err := deps.Resolver().Resolve(args[0])
				if err != nil {
					return err
				}
				if raw {
					_, err := io.WriteString(cmd.OutOrStdout(), history.ExportMarkdown(conv))
					return err
				}
				renderer := render.NewTerminalRenderer(
					render.OptionsFromConfig(deps.Config.Markdown).WithWidth(getTerminalWidth() - 4))
				showConversation(cmd.OutOrStdout(), conv, renderer)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the conversation as Markdown")
	return cmd
}

// showConversation prints a conversation for the terminal. User text is
// printed literally, agent text as rendered markdown. Archive fields are
// stripped of terminal escapes.
func showConversation(w io.Writer, conv history.Conversation, r render.Renderer) {
	agent := render.StripTerminal(conv.Agent)
	fmt.Fprintln(w, headingStyle.Render(render.StripTerminal(conv.Title)))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s • %s • %d messages • %s",
		render.StripTerminal(conv.ID), agent, len(conv.Messages), conv.Timestamp.Local().Format("2006-01-02 15:04"))))
	fmt.Fprintln(w)

	for _, msg := range conv.Messages {
		if msg.Role == models.RoleAgent {
			fmt.Fprintln(w, agentLabelStyle.Render("✦ "+agent))
			fmt.Fprintln(w, strings.TrimRight(r.Render(msg.Content).String(), "\n"))
		} else {
			fmt.Fprintln(w, headingStyle.Render("● You"))
			fmt.Fprintln(w, r.Literal(msg.Content).String())
		}
		fmt.Fprintln(w)
	}
}

func newHistoryDeleteCmd(g *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <ref>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(g, cmd, func(deps *Dependencies) error {
				conv, err := deps.Resolver().Resolve(args[0])
				if err != nil {
					return err
				}

				confirmer := newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), yes)
				if !confirmer.Confirm(fmt.Sprintf("Delete '%s'?", render.StripTerminal(conv.Title))) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				if err := deps.Archive.Delete(conv.ID); err != nil {
					return fmt.Errorf("failed to delete: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversation: %s\n", render.StripTerminal(conv.ID))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newHistoryExportCmd(g *globalOptions) *cobra.Command {
	var (
		formatFlag string
		outputFlag string
	)

	cmd := &cobra.Command{
		Use:   "export <ref>",
		Short: "Export a saved conversation",
		Long: `Export a saved conversation as Markdown, JSON or a standalone HTML page.

When --output is given without --format, the format is taken from the file
extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := formatFlag
			if name == "" && outputFlag != "" {
				name = filepath.Ext(outputFlag)
			}
			format, err := history.ParseExportFormat(name)
			if err != nil {
				return err
			}

			return withDeps(g, cmd, func(deps *Dependencies) error {
				conv, err := deps.Resolver().Resolve(args[0])
				if err != nil {
					return err
				}
				data, err := history.Export(conv, format)
				if err != nil {
					return err
				}
				if err := writeOrPrint(cmd.OutOrStdout(), outputFlag, string(data)); err != nil {
					return err
				}
				if outputFlag != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported '%s' to %s\n", render.StripTerminal(conv.Title), outputFlag)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Export format: markdown, json or html")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newHistoryClearCmd(g *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(g, cmd, func(deps *Dependencies) error {
				confirmer := newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), yes)
				if !confirmer.Confirm("Delete all saved conversations?") {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				if err := deps.Archive.Clear(); err != nil {
					return fmt.Errorf("failed to clear history: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All conversations deleted.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
