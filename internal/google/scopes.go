package google

// CalendarScopes are requested for the user token that owns booked events.
var CalendarScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/meetings.space.created",
}

// SheetsScopes are requested for the service account that reads and writes
// the record spreadsheet.
var SheetsScopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
}
