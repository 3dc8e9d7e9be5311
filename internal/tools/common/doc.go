// Package common provides shared utilities for MCP tool implementations:
// the instrumentation wrapper every tool is registered through, argument
// helpers, and the mapping from classified errors to tool error results.
package common
