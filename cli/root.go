// ABOUTME: Root cobra command and global flags
// ABOUTME: Every subcommand registers itself on RootCmd from its own file
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/config"
)

// Version is set by main.
var Version = "dev"

// GlobalFlags contains global flags available for all commands
type GlobalFlags struct {
	Config  string
	Verbose bool
}

var globalFlags GlobalFlags

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "prospecta",
	Short: "Prospecta - lead pipeline, calendar, and finance back office",
	Long: `Prospecta tracks inbound leads from WhatsApp, Instagram, and Facebook,
keeps a local copy of the team's Google Calendar, and handles the small
business books: transactions, invoices, and budgets.

Run "prospecta serve" for the HTTP API and lead webhook, or
"prospecta mcp" to expose the same data to an MCP client.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&globalFlags.Config, "config", config.DefaultPath(), "Path to configuration file")
	RootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable debug logging")

	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of prospecta",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prospecta version %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
