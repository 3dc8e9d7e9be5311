// Package cmd implements the command-line interface for leadcal.
//
// This package provides the following commands:
//   - serve: Start the MCP server with the CRM and scheduling tools
//   - token: Authorize the calendar account and write the token file
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
