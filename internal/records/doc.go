// Package records persists leads, meetings, projects and the service catalog
// in a Google Sheets spreadsheet.
//
// Each sheet has an enumerated Schema whose fields are the header names of
// row 1. The Store interface is a key-indexed table over one sheet: Find,
// FindAll, Insert, Update and Delete. SheetsStore implements it with the
// Sheets v4 API; MemoryStore implements it in memory for tests and for
// development deployments without a spreadsheet.
//
// Leads, Meetings, Projects and Catalog layer the domain rules (defaults,
// id generation, allowed values, lookups) on top of a Store.
package records
