package availability

import (
	"fmt"
	"time"
)

// LabelLayout formats a day label, for example "Monday 02/01/2006".
const LabelLayout = "Monday 02/01/2006"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is non-empty.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration returns End-Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// In returns the interval expressed in loc.
func (iv Interval) In(loc *time.Location) Interval {
	return Interval{Start: iv.Start.In(loc), End: iv.End.In(loc)}
}

// FreeSlot is a bookable gap inside a business day.
type FreeSlot = Interval

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Before reports whether c is earlier in the day than other.
func (c ClockTime) Before(other ClockTime) bool {
	return c.Hour*60+c.Minute < other.Hour*60+other.Minute
}

// Window is one calendar day's bookable range.
type Window struct {
	Day   time.Time
	Open  time.Time
	Close time.Time
	Label string
}

// NewWindow builds the window for the calendar day containing day, opening at
// open and closing at close in loc.
func NewWindow(day time.Time, open, close ClockTime, loc *time.Location) Window {
	return windowAt(day.In(loc), 0, open, close, loc)
}

// windowAt builds the window offset days after base. Dates are computed with
// time.Date so DST transitions never shift the wall-clock open/close.
func windowAt(base time.Time, offset int, open, close ClockTime, loc *time.Location) Window {
	y, m, d := base.Date()
	day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
	return Window{
		Day:   day,
		Open:  time.Date(y, m, d+offset, open.Hour, open.Minute, 0, 0, loc),
		Close: time.Date(y, m, d+offset, close.Hour, close.Minute, 0, 0, loc),
		Label: day.Format(LabelLayout),
	}
}

// Bounds returns the window as an interval.
func (w Window) Bounds() Interval {
	return Interval{Start: w.Open, End: w.Close}
}

// IsWeekend reports whether the window falls on Saturday or Sunday.
func (w Window) IsWeekend() bool {
	wd := w.Day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
