package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

var testClock = calendar.ClockInfo{
	Location:            time.UTC,
	EffectiveBeginOfDay: calendar.TimeOfDay{Hour: 6},
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.August, day, hour, minute, 0, 0, time.UTC)
}

// dayViewEntries builds the fixture used throughout: three entries with a
// reschedule history on the 14th.
//
//   - A runs 20:00-21:00 in room 1, was previously at the same time in room 2
//     and before that at 10:00-11:00 in room 2.
//   - B runs 15:00-16:00 in room 3, was previously at 14:00-14:30 in room 3.
//   - C was moved off the day entirely; only its previous date at 12:00-13:00
//     in room 1 still falls on the 14th.
func dayViewEntries() []persistence.Entry {
	return []persistence.Entry{
		{
			ID: 1, EventID: 1, Title: "A", CategoryID: 1, RoomIDs: []int64{1},
			Begin: at(14, 20, 0), End: at(14, 21, 0),
			PreviousDates: []persistence.PreviousDate{
				{ID: 10, EntryID: 1, Begin: at(14, 20, 0), End: at(14, 21, 0), RoomIDs: []int64{2}},
				{ID: 11, EntryID: 1, Begin: at(14, 10, 0), End: at(14, 11, 0), RoomIDs: []int64{2}},
			},
		},
		{
			ID: 2, EventID: 1, Title: "B", CategoryID: 1, RoomIDs: []int64{3},
			Begin: at(14, 15, 0), End: at(14, 16, 0),
			PreviousDates: []persistence.PreviousDate{
				{ID: 12, EntryID: 2, Begin: at(14, 14, 0), End: at(14, 14, 30), RoomIDs: []int64{3}},
			},
		},
		{
			ID: 3, EventID: 1, Title: "C", CategoryID: 2, RoomIDs: []int64{1},
			Begin: at(16, 12, 0), End: at(16, 13, 0),
			PreviousDates: []persistence.PreviousDate{
				{ID: 13, EntryID: 3, Begin: at(14, 12, 0), End: at(14, 13, 0), RoomIDs: []int64{1}},
			},
		},
	}
}

func TestBuild_DayView(t *testing.T) {
	t.Parallel()

	rows := Build(dayViewEntries(), DateWindow(calendar.NewDate(2025, time.August, 14), testClock))

	want := []struct {
		title         string
		includesEntry bool
		times         int
		roomIDs       []int64
	}{
		{"A", false, 1, []int64{2}},
		{"C", false, 1, []int64{1}},
		{"B", true, 2, []int64{3}},
		{"A", true, 1, []int64{1, 2}},
	}

	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, w := range want {
		row := rows[i]
		if row.Entry.Title != w.title {
			t.Errorf("row %d: entry %q, want %q", i, row.Entry.Title, w.title)
		}
		if row.IncludesEntry != w.includesEntry {
			t.Errorf("row %d: IncludesEntry = %v, want %v", i, row.IncludesEntry, w.includesEntry)
		}
		if got := len(row.Times()); got != w.times {
			t.Errorf("row %d: %d displayed times, want %d", i, got, w.times)
		}
		if !equalIDs(row.RoomIDs, w.roomIDs) {
			t.Errorf("row %d: rooms %v, want %v", i, row.RoomIDs, w.roomIDs)
		}
	}

	for i := 1; i < len(rows); i++ {
		if rows[i].SortTime.Before(rows[i-1].SortTime) {
			t.Errorf("rows out of order at %d: %v before %v", i, rows[i].SortTime, rows[i-1].SortTime)
		}
	}
}

func TestBuild_MergesOnlyAdjacentRows(t *testing.T) {
	t.Parallel()

	rows := Build(dayViewEntries(), DateWindow(calendar.NewDate(2025, time.August, 14), testClock))

	var entryARows int
	for _, row := range rows {
		if row.Entry.ID == 1 {
			entryARows++
		}
	}
	// The early previous date of A is separated from its current occurrence by
	// the C and B rows and therefore stays a distinct row.
	if entryARows != 2 {
		t.Fatalf("entry A appears on %d rows, want 2", entryARows)
	}
}

func TestBuild_MergeUnionsRoomsAndKeepsSingleCurrentTime(t *testing.T) {
	t.Parallel()

	rows := Build(dayViewEntries(), DateWindow(calendar.NewDate(2025, time.August, 14), testClock))

	merged := rows[len(rows)-1]
	if merged.Entry.ID != 1 || !merged.IncludesEntry {
		t.Fatalf("expected the final row to be A's current occurrence, got entry %d", merged.Entry.ID)
	}
	// The room-changed previous date at the identical time contributes its room
	// but no extra displayed time.
	if len(merged.ExtraTimes) != 0 {
		t.Errorf("ExtraTimes = %v, want none", merged.ExtraTimes)
	}
	if len(merged.PreviousDates) != 1 || merged.PreviousDates[0].ID != 10 {
		t.Errorf("PreviousDates = %v, want the room-change record", merged.PreviousDates)
	}
	if !merged.SortTime.Equal(at(14, 20, 0)) {
		t.Errorf("SortTime = %v, want 20:00", merged.SortTime)
	}
}

func TestBuild_RoomWindow(t *testing.T) {
	t.Parallel()

	rows := Build(dayViewEntries(), RoomWindow(2))

	// Room 2 only ever appears in A's history: both previous dates, merged
	// because nothing separates them, and no current occurrence.
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Entry.ID != 1 || row.IncludesEntry {
		t.Fatalf("got entry %d (IncludesEntry=%v), want A's history only", row.Entry.ID, row.IncludesEntry)
	}
	if len(row.PreviousDates) != 2 {
		t.Errorf("PreviousDates = %v, want both records", row.PreviousDates)
	}
	// The room change at the unchanged time contributes no extra displayed
	// time, leaving only the 10:00 slot.
	if got := len(row.Times()); got != 1 {
		t.Errorf("%d displayed times, want 1", got)
	}
}

func TestBuild_CategoryWindow(t *testing.T) {
	t.Parallel()

	rows := Build(dayViewEntries(), CategoryWindow(2))

	// The category filter applies at entry level, so C's current occurrence
	// and its previous date both qualify.
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Entry.ID != 3 {
			t.Errorf("got entry %d, want only C", row.Entry.ID)
		}
	}
	if rows[0].IncludesEntry || !rows[1].IncludesEntry {
		t.Errorf("expected the previous date first, then the current occurrence")
	}
}

func TestBuild_UnchangedEntryYieldsSingleRow(t *testing.T) {
	t.Parallel()

	entries := []persistence.Entry{{
		ID: 7, EventID: 1, CategoryID: 1, RoomIDs: []int64{1},
		Begin: at(14, 9, 0), End: at(14, 10, 0),
	}}

	rows := Build(entries, DateWindow(calendar.NewDate(2025, time.August, 14), testClock))
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if !rows[0].IncludesEntry || len(rows[0].Times()) != 1 {
		t.Errorf("row = %+v, want a single current occurrence", rows[0])
	}
}

func TestGroupIntoBlocks(t *testing.T) {
	t.Parallel()

	date := calendar.NewDate(2025, time.August, 14)
	rows := Build(dayViewEntries(), DateWindow(date, testClock))

	noon := calendar.TimeOfDay{Hour: 12}
	evening := calendar.TimeOfDay{Hour: 18}
	blocks, err := GroupIntoBlocks(rows, []BlockSpec{
		{Label: "Morning", Until: &noon},
		{Label: "Afternoon", Until: &evening},
		{Label: "Evening"},
	}, date, testClock)
	if err != nil {
		t.Fatalf("GroupIntoBlocks: %v", err)
	}

	wantCounts := []int{1, 2, 1}
	for i, want := range wantCounts {
		if got := len(blocks[i].Rows); got != want {
			t.Errorf("block %q holds %d rows, want %d", blocks[i].Label, got, want)
		}
	}
	// A row starting exactly on a boundary belongs to the following block.
	if blocks[1].Rows[0].Entry.Title != "C" {
		t.Errorf("afternoon starts with %q, want the 12:00 row", blocks[1].Rows[0].Entry.Title)
	}
}

func TestGroupIntoBlocks_InvalidSpecs(t *testing.T) {
	t.Parallel()

	date := calendar.NewDate(2025, time.August, 14)
	noon := calendar.TimeOfDay{Hour: 12}

	cases := []struct {
		name  string
		specs []BlockSpec
	}{
		{"empty", nil},
		{"bounded final block", []BlockSpec{{Label: "Morning", Until: &noon}}},
		{"unbounded inner block", []BlockSpec{{Label: "Morning"}, {Label: "Rest"}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := GroupIntoBlocks(nil, tc.specs, date, testClock); !errors.Is(err, ErrInvalidBlockSpec) {
				t.Fatalf("err = %v, want ErrInvalidBlockSpec", err)
			}
		})
	}
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
