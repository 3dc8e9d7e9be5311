// Package resources provides read-only MCP resources describing the
// scheduling setup and the services catalog, so clients can read them as
// context without a tool call.
package resources
