package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/leadcal/internal/resources"
	"github.com/teemow/leadcal/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// toolCategory is one documented tool group.
type toolCategory struct {
	name  string
	tools []mcp.Tool
	// readOnly holds the names of tools still available with --read-only.
	readOnly map[string]bool
}

func runGenerateDocs(outputFile string) error {
	categories, err := collectToolCategories()
	if err != nil {
		return err
	}

	markdown := generateToolsMarkdown(categories)

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// collectToolCategories registers every tool group on its own server, once
// with write tools and once without, to learn which tools mutate data.
// Handlers are never invoked, so no services are needed.
func collectToolCategories() ([]toolCategory, error) {
	serverContext := server.NewServerContext(context.Background(), server.Services{})
	defer func() {
		_ = serverContext.Shutdown()
	}()

	categories := make([]toolCategory, 0, len(toolGroups))
	for _, group := range toolGroups {
		all := newMCPServer()
		if err := group.register(all, serverContext, false); err != nil {
			return nil, fmt.Errorf("failed to register %s tools: %w", group.name, err)
		}
		ro := newMCPServer()
		if err := group.register(ro, serverContext, true); err != nil {
			return nil, fmt.Errorf("failed to register %s tools: %w", group.name, err)
		}

		category := toolCategory{name: group.name, readOnly: make(map[string]bool)}
		for _, serverTool := range all.ListTools() {
			category.tools = append(category.tools, serverTool.Tool)
		}
		for name := range ro.ListTools() {
			category.readOnly[name] = true
		}
		sort.Slice(category.tools, func(i, j int) bool {
			return category.tools[i].Name < category.tools[j].Name
		})
		categories = append(categories, category)
	}
	return categories, nil
}

func generateToolsMarkdown(categories []toolCategory) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running leadcal as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categories {
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category.name, anchor(category.name)))
	}
	sb.WriteString("- [Resources](#resources)\n")
	sb.WriteString("\n")

	sb.WriteString("## Read-Only Mode\n\n")
	sb.WriteString("Tools marked **(write)** modify the calendar or the spreadsheet and are not registered when the server runs with `--read-only`.\n\n")

	for _, category := range categories {
		sb.WriteString(fmt.Sprintf("## %s\n\n", category.name))
		for _, tool := range category.tools {
			sb.WriteString(generateToolMarkdown(tool, !category.readOnly[tool.Name]))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("## Resources\n\n")
	sb.WriteString(fmt.Sprintf("- `%s`: business hours, time zone and slot search settings\n", resources.ScheduleURI))
	sb.WriteString(fmt.Sprintf("- `%s`: the services catalog\n", resources.CatalogURI))

	return sb.String()
}

func anchor(heading string) string {
	return strings.ToLower(strings.ReplaceAll(heading, " ", "-"))
}

func generateToolMarkdown(tool mcp.Tool, mutating bool) string {
	var sb strings.Builder

	// Tool name
	if mutating {
		sb.WriteString(fmt.Sprintf("### %s (write)\n\n", tool.Name))
	} else {
		sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))
	}

	// Description
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	// Input schema
	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		// Sort properties for consistent output
		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]interface{})
			if !ok {
				continue
			}

			requiredStr := "optional"
			if contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
