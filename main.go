// ABOUTME: Entry point for the prospecta CLI, HTTP server, and MCP server
// ABOUTME: All routing lives in the cli package's cobra commands
package main

import (
	"os"

	"github.com/harperreed/prospecta/cli"
)

const version = "0.1.0"

func main() {
	cli.Version = version
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
