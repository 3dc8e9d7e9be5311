// Package meeting_tools provides MCP tools over the meeting log, the sheet
// where meetings booked for CRM clients are recorded.
package meeting_tools
