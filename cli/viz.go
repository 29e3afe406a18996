// ABOUTME: Visualization commands: terminal dashboard and GraphViz graphs
// ABOUTME: Graphs print DOT to stdout or write it to --output
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/viz"
)

var vizOutput string

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Dashboard and pipeline graphs",
}

var vizDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the pipeline, team, and monthly finance dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			stats, err := viz.GenerateDashboardStats(ctx, a.prospects, a.users, a.finance, time.Now())
			if err != nil {
				return fmt.Errorf("failed to build dashboard: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(stats))
			return nil
		})
	},
}

var vizGraphCmd = &cobra.Command{
	Use:       "graph <pipeline|owners>",
	Short:     "Render a GraphViz graph of the pipeline or of prospect ownership",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"pipeline", "owners"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			graphs := viz.NewGraphGenerator(a.prospects)

			var (
				dot string
				err error
			)
			switch args[0] {
			case "pipeline":
				dot, err = graphs.GeneratePipelineGraph(ctx)
			case "owners":
				dot, err = graphs.GenerateOwnerGraph(ctx)
			default:
				return fmt.Errorf("unknown graph type %q (want pipeline or owners)", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to generate graph: %w", err)
			}

			if vizOutput == "" {
				fmt.Fprint(cmd.OutOrStdout(), dot)
				return nil
			}
			if err := os.WriteFile(vizOutput, []byte(dot), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", vizOutput, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Graph written to %s\n", vizOutput)
			return nil
		})
	},
}

func init() {
	vizGraphCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Write DOT to this file instead of stdout")
	vizCmd.AddCommand(vizDashboardCmd, vizGraphCmd)
	RootCmd.AddCommand(vizCmd)
}
