package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the leadcal application
var rootCmd = &cobra.Command{
	Use:   "leadcal",
	Short: "MCP server for a spreadsheet CRM and Google Calendar scheduling",
	Long: `leadcal exposes Model Context Protocol tools that let an agent look up and
update leads in a Google Sheets CRM, find free meeting slots on a Google
Calendar, and book Google Meet meetings without double-booking.

It can run over:
  - stdio (default), for local MCP clients
  - streamable HTTP, for remote clients`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "leadcal version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
