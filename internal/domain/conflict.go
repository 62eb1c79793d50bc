package domain

import "sort"

// ConflictPair represents two meetings whose intervals overlap
type ConflictPair struct {
	A *MeetingEvent
	B *MeetingEvent
}

// DetectConflicts returns every pair of meetings with overlapping time
// intervals. Intervals are half-open: a meeting ending exactly when another
// starts does not conflict. The result is independent of input order and
// symmetric in pair membership (each conflicting pair appears once, ordered
// by start time).
func DetectConflicts(meetings []*MeetingEvent) []ConflictPair {
	sorted := make([]*MeetingEvent, len(meetings))
	copy(sorted, meetings)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartsAt.Equal(sorted[j].StartsAt) {
			return sorted[i].EndsAt.Before(sorted[j].EndsAt)
		}
		return sorted[i].StartsAt.Before(sorted[j].StartsAt)
	})

	var pairs []ConflictPair
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if !sorted[j].StartsAt.Before(sorted[i].EndsAt) {
				// sorted by start, nothing later can overlap i either
				break
			}
			if overlaps(sorted[i], sorted[j]) {
				pairs = append(pairs, ConflictPair{A: sorted[i], B: sorted[j]})
			}
		}
	}
	return pairs
}

func overlaps(a, b *MeetingEvent) bool {
	return a.StartsAt.Before(b.EndsAt) && b.StartsAt.Before(a.EndsAt)
}
