// Package timeline consolidates calendar entries and their reschedule
// history into the deduplicated, time-grouped rows the plan views display.
package timeline

import (
	"errors"
	"sort"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// TimeSpan is a concrete (begin, end) pair displayed on a row.
type TimeSpan struct {
	Begin time.Time
	End   time.Time
}

// Row is one display line of the consolidated timeline. A row represents
// either the entry's current scheduled occurrence (IncludesEntry) or one or
// more of its previous dates, merged where they were adjacent after sorting.
type Row struct {
	Entry         persistence.Entry
	IncludesEntry bool
	SortTime      time.Time
	RoomIDs       []int64
	PreviousDates []persistence.PreviousDate
	// ExtraTimes holds the (begin, end) pairs of represented previous dates
	// that differ from the entry's current schedule.
	ExtraTimes []TimeSpan
}

// Times returns the spans the row displays: the current schedule when the
// entry itself is included, followed by the distinct previous times in
// chronological order.
func (r Row) Times() []TimeSpan {
	times := make([]TimeSpan, 0, len(r.ExtraTimes)+1)
	if r.IncludesEntry {
		times = append(times, TimeSpan{Begin: r.Entry.Begin, End: r.Entry.End})
	}
	times = append(times, r.ExtraTimes...)
	sort.Slice(times, func(i, j int) bool { return times[i].Begin.Before(times[j].Begin) })
	return times
}

// Window limits which occurrences appear on the timeline: a single effective
// date (as a half-open UTC span), a room, or a category, depending on the
// view. Zero time bounds are unbounded.
type Window struct {
	Begin      time.Time
	End        time.Time
	RoomID     *int64
	CategoryID *int64
}

// DateWindow covers one effective date of the event.
func DateWindow(date calendar.Date, clock calendar.ClockInfo) Window {
	begin, end := calendar.EffectiveDaySpan(date, clock)
	return Window{Begin: begin, End: end}
}

// RoomWindow covers every occurrence scheduled in the room.
func RoomWindow(roomID int64) Window {
	return Window{RoomID: &roomID}
}

// CategoryWindow covers every entry of the category.
func CategoryWindow(categoryID int64) Window {
	return Window{CategoryID: &categoryID}
}

func (w Window) containsOccurrence(begin, end time.Time, roomIDs []int64) bool {
	if !w.Begin.IsZero() && !end.After(w.Begin) {
		return false
	}
	if !w.End.IsZero() && !begin.Before(w.End) {
		return false
	}
	if w.RoomID != nil && !containsID(roomIDs, *w.RoomID) {
		return false
	}
	return true
}

// Build turns the selected entries into sorted, coalesced display rows. For
// every entry a "current" row is emitted when its scheduled occurrence
// intersects the window, and a "previous" row for every previous date that
// does. Rows are sorted by SortTime (stable) and a single left-to-right pass
// merges each row into its immediate predecessor when both reference the
// same entry. Same-entry rows separated by another entry's row remain
// distinct; this matches the long-standing display behaviour.
func Build(entries []persistence.Entry, window Window) []Row {
	rows := make([]Row, 0, len(entries))
	for _, entry := range entries {
		if window.CategoryID != nil && entry.CategoryID != *window.CategoryID {
			continue
		}

		if window.containsOccurrence(entry.Begin, entry.End, entry.RoomIDs) {
			rows = append(rows, Row{
				Entry:         entry,
				IncludesEntry: true,
				SortTime:      entry.Begin,
				RoomIDs:       uniqueIDs(entry.RoomIDs),
			})
		}

		for _, previous := range entry.PreviousDates {
			if !window.containsOccurrence(previous.Begin, previous.End, previous.RoomIDs) {
				continue
			}
			row := Row{
				Entry:         entry,
				SortTime:      previous.Begin,
				RoomIDs:       uniqueIDs(previous.RoomIDs),
				PreviousDates: []persistence.PreviousDate{previous},
			}
			if !previous.Begin.Equal(entry.Begin) || !previous.End.Equal(entry.End) {
				row.ExtraTimes = []TimeSpan{{Begin: previous.Begin, End: previous.End}}
			}
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SortTime.Before(rows[j].SortTime) })

	return coalesceAdjacent(rows)
}

func coalesceAdjacent(rows []Row) []Row {
	merged := make([]Row, 0, len(rows))
	for _, row := range rows {
		if len(merged) > 0 && merged[len(merged)-1].Entry.ID == row.Entry.ID {
			merged[len(merged)-1].mergeFrom(row)
			continue
		}
		merged = append(merged, row)
	}
	return merged
}

// mergeFrom folds a later row for the same entry into the receiver: rooms and
// extra times are unioned, represented previous dates accumulate and the
// entry inclusion flag is ORed. The receiver keeps its earlier SortTime.
func (r *Row) mergeFrom(other Row) {
	r.IncludesEntry = r.IncludesEntry || other.IncludesEntry
	for _, roomID := range other.RoomIDs {
		if !containsID(r.RoomIDs, roomID) {
			r.RoomIDs = append(r.RoomIDs, roomID)
		}
	}
	for _, span := range other.ExtraTimes {
		if !containsSpan(r.ExtraTimes, span) {
			r.ExtraTimes = append(r.ExtraTimes, span)
		}
	}
	r.PreviousDates = append(r.PreviousDates, other.PreviousDates...)
	sort.Slice(r.RoomIDs, func(i, j int) bool { return r.RoomIDs[i] < r.RoomIDs[j] })
}

// BlockSpec names a display block and its exclusive end boundary as a local
// wall-clock time on the display date. The final block carries a nil
// boundary and catches every remaining row.
type BlockSpec struct {
	Label string
	Until *calendar.TimeOfDay
}

// Block is a labelled segment of the timeline.
type Block struct {
	Label string
	Rows  []Row
}

// ErrInvalidBlockSpec is returned when the block list does not end with
// exactly one unbounded catch-all block.
var ErrInvalidBlockSpec = errors.New("timeline: block list must end with a single unbounded block")

// GroupIntoBlocks distributes sorted rows over the configured blocks,
// advancing to the next block whenever a row's SortTime has crossed the
// active block's boundary. Boundaries are converted to instants through the
// effective calendar for the display date.
func GroupIntoBlocks(rows []Row, specs []BlockSpec, date calendar.Date, clock calendar.ClockInfo) ([]Block, error) {
	if len(specs) == 0 || specs[len(specs)-1].Until != nil {
		return nil, ErrInvalidBlockSpec
	}
	for _, spec := range specs[:len(specs)-1] {
		if spec.Until == nil {
			return nil, ErrInvalidBlockSpec
		}
	}

	blocks := make([]Block, len(specs))
	for i, spec := range specs {
		blocks[i].Label = spec.Label
	}

	active := 0
	for _, row := range rows {
		for active < len(specs)-1 {
			boundary := calendar.InstantFromEffectiveDateAndTime(date, *specs[active].Until, clock)
			if row.SortTime.Before(boundary) {
				break
			}
			active++
		}
		blocks[active].Rows = append(blocks[active].Rows, row)
	}

	return blocks, nil
}

func containsID(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func containsSpan(spans []TimeSpan, target TimeSpan) bool {
	for _, span := range spans {
		if span.Begin.Equal(target.Begin) && span.End.Equal(target.End) {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
