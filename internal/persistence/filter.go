package persistence

import "time"

// EntryFilter is a composable predicate over calendar entries. Matches is the
// canonical semantics; every query-builder backend must return exactly the
// set of entries Matches accepts and is verified against it by property
// tests rather than trusted by inspection.
type EntryFilter struct {
	// After keeps entries that end no earlier than the bound.
	After *time.Time
	// Before keeps entries that begin strictly before the bound.
	Before *time.Time
	// CategoryIDs keeps entries whose category is in the set.
	CategoryIDs []int64
	// RoomIDs keeps entries occupying at least one of the rooms.
	RoomIDs []int64
	// NoRoom keeps entries with an empty room set. When combined with
	// RoomIDs, either condition suffices.
	NoRoom bool
	// IncludePreviousDateMatches additionally accepts entries one of whose
	// previous dates satisfies the time and room conditions. Previous dates
	// carry no category, so the category condition stays at entry level.
	IncludePreviousDateMatches bool
}

// Matches applies all set fields by logical AND.
func (f EntryFilter) Matches(entry Entry) bool {
	if len(f.CategoryIDs) > 0 && !containsID(f.CategoryIDs, entry.CategoryID) {
		return false
	}

	if f.matchesSpanAndRooms(entry.Begin, entry.End, entry.RoomIDs) {
		return true
	}

	if f.IncludePreviousDateMatches {
		for _, previous := range entry.PreviousDates {
			if f.matchesSpanAndRooms(previous.Begin, previous.End, previous.RoomIDs) {
				return true
			}
		}
	}

	return false
}

// matchesSpanAndRooms evaluates the after/before/room sub-predicate shared
// between the current occurrence and previous dates.
func (f EntryFilter) matchesSpanAndRooms(begin, end time.Time, roomIDs []int64) bool {
	if f.After != nil && end.Before(*f.After) {
		return false
	}
	if f.Before != nil && !begin.Before(*f.Before) {
		return false
	}
	return f.matchesRooms(roomIDs)
}

func (f EntryFilter) matchesRooms(roomIDs []int64) bool {
	if len(f.RoomIDs) == 0 && !f.NoRoom {
		return true
	}
	if f.NoRoom && len(roomIDs) == 0 {
		return true
	}
	if len(f.RoomIDs) > 0 && intersectsIDs(roomIDs, f.RoomIDs) {
		return true
	}
	return false
}

func containsID(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func intersectsIDs(values, targets []int64) bool {
	set := make(map[int64]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	for _, target := range targets {
		if _, ok := set[target]; ok {
			return true
		}
	}
	return false
}
