// Package project_tools provides MCP tools for the projects sheet, where
// work sold to CRM clients is tracked.
package project_tools
