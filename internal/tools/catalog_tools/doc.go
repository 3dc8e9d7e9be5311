// Package catalog_tools provides read-only MCP tools over the services
// catalog.
package catalog_tools
