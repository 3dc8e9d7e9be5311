// Package calendar_tools provides the MCP tools of the availability and
// booking engine.
//
// check_availability scans the configured calendar for free business-hour
// slots, create_meeting books a Google Meet event after a conflict check,
// and get_event_details reads an event back. Bookings made on behalf of a CRM
// client are also recorded in the meetings sheet.
package calendar_tools
