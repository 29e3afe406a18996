// ABOUTME: Runs the MCP server over stdio
// ABOUTME: Logs go to stderr so stdout stays a clean protocol stream
package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/handlers"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start the MCP server on stdin/stdout.

Calendar tools are available when the Google variables are configured;
otherwise they return an error naming the missing variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := handlers.NewServer(handlers.Services{
				Prospects: a.prospects,
				Users:     a.users,
				Finance:   a.finance,
				Events:    a.events,
				Calendar:  a.calendar,
			}, Version)

			a.logger.Info("mcp server starting", "transport", "stdio", "calendar", a.calendar != nil)
			return server.Run(ctx, &mcp.StdioTransport{})
		})
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
