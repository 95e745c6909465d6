// Package conflict detects scheduling collisions between calendar entries.
// Conflicts are warnings, not errors: organizers may deliberately double-book
// a room, so the services report them alongside a successful write.
package conflict

import (
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// Type describes the kind of collision detected between two entries.
type Type string

const (
	// TypeRoom indicates two overlapping entries occupy the same room.
	TypeRoom Type = "room"
	// TypeExclusive indicates a time overlap where at least one entry claims
	// its timeslot exclusively.
	TypeExclusive Type = "exclusive"
)

// Conflict details an overlapping entry relation that callers can present to
// organizers.
type Conflict struct {
	WithEntryID int64
	Type        Type
	RoomID      *int64
}

// Detect identifies conflicts of the candidate entry against the existing
// ones. Cancelled entries never conflict; the candidate's own stored version
// is skipped by ID. Overlap is strict, so back-to-back entries sharing a
// boundary instant do not collide.
func Detect(existing []persistence.Entry, candidate persistence.Entry) []Conflict {
	if candidate.Cancelled {
		return nil
	}

	var conflicts []Conflict
	for _, other := range existing {
		if other.ID == candidate.ID || other.Cancelled {
			continue
		}
		if !overlaps(candidate, other) {
			continue
		}

		if candidate.Exclusive || other.Exclusive {
			conflicts = append(conflicts, Conflict{WithEntryID: other.ID, Type: TypeExclusive})
			continue
		}
		for _, roomID := range sharedRooms(candidate.RoomIDs, other.RoomIDs) {
			roomID := roomID
			conflicts = append(conflicts, Conflict{WithEntryID: other.ID, Type: TypeRoom, RoomID: &roomID})
		}
	}
	return conflicts
}

func overlaps(a, b persistence.Entry) bool {
	return a.Begin.Before(b.End) && b.Begin.Before(a.End)
}

func sharedRooms(a, b []int64) []int64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[int64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	var shared []int64
	for _, id := range b {
		if _, ok := set[id]; ok {
			shared = append(shared, id)
			delete(set, id)
		}
	}
	return shared
}
