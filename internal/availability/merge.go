package availability

import (
	"sort"
)

// Merge clips intervals to clipTo and coalesces overlapping or touching ones.
//
// Invalid intervals (Start >= End) and intervals entirely outside clipTo are
// dropped. The result is sorted by start, pairwise disjoint, and expressed in
// clipTo's location.
func Merge(intervals []Interval, clipTo Interval) []Interval {
	loc := clipTo.Start.Location()

	clipped := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Valid() {
			continue
		}
		if !iv.End.After(clipTo.Start) || !iv.Start.Before(clipTo.End) {
			continue
		}
		if iv.Start.Before(clipTo.Start) {
			iv.Start = clipTo.Start
		}
		if iv.End.After(clipTo.End) {
			iv.End = clipTo.End
		}
		clipped = append(clipped, iv.In(loc))
	}
	if len(clipped) == 0 {
		return nil
	}

	sort.Slice(clipped, func(i, j int) bool {
		if clipped[i].Start.Equal(clipped[j].Start) {
			return clipped[i].End.Before(clipped[j].End)
		}
		return clipped[i].Start.Before(clipped[j].Start)
	})

	merged := []Interval{clipped[0]}
	for _, iv := range clipped[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
