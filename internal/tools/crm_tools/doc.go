// Package crm_tools provides MCP tools for the lead sheet of the CRM:
// looking a client up by phone, email or user handle, registering new leads
// and updating their pipeline status.
package crm_tools
