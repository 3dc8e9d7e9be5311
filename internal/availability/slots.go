package availability

import "time"

// FreeSlots returns the gaps in window not covered by busy, keeping only gaps
// of at least minDuration. busy must be the output of Merge for the window's
// bounds.
func FreeSlots(window Window, busy []Interval, minDuration time.Duration) []FreeSlot {
	var gaps []FreeSlot
	cursor := window.Open
	for _, b := range busy {
		if cursor.Before(b.Start) {
			gaps = append(gaps, FreeSlot{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.Close) {
		gaps = append(gaps, FreeSlot{Start: cursor, End: window.Close})
	}

	slots := gaps[:0]
	for _, g := range gaps {
		if g.Duration() >= minDuration {
			slots = append(slots, g)
		}
	}
	if len(slots) == 0 {
		return nil
	}
	return slots
}
