package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/agentchat/internal/models"
)

func newAgentsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the agents the server provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			current := cfg.DefaultAgent
			if g.agent != "" {
				current = g.agent
			}
			if a, ok := models.AgentByName(current); ok {
				current = a.Name
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, a := range models.Agents {
				marker := " "
				if a.Name == current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(tw, "%s %s\t%s\n", marker, a.Name, a.Description)
			}
			return tw.Flush()
		},
	}
}

func newHealthCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the agent server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := NewDependencies(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer deps.Close()

			client, err := deps.NewClient()
			if err != nil {
				return err
			}

			h, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:   %s\n", client.BaseURL())
			fmt.Fprintf(out, "Status:   %s\n", h.Status)
			fmt.Fprintf(out, "Agent:    %s\n", h.Agent)
			fmt.Fprintf(out, "Sessions: %d\n", h.Sessions)
			if !h.OK() {
				return fmt.Errorf("server reported status %q", h.Status)
			}
			return nil
		},
	}
}
