// Package calendar is the Google Calendar provider used for availability
// queries and conflict-checked bookings.
//
// A Client is bound to a single calendar and a single time zone. It exposes
// the three provider operations the booking engine needs: QueryBusy (a
// free/busy query), InsertEvent (with a Google Meet conference request), and
// GetEvent. All returned times are expressed in the client's zone, and every
// API failure is converted into an apperror kind.
//
// Example usage:
//
//	httpClient, err := google.HTTPClient(ctx, creds, google.NewLimiter(5))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := calendar.NewClient(ctx, "primary", loc, option.WithHTTPClient(httpClient))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	busy, err := client.QueryBusy(ctx, start, end)
package calendar
