package persistence

import (
	"testing"
	"time"
)

var filterBase = time.Date(2025, time.August, 13, 10, 0, 0, 0, time.UTC)

func filterEntry(begin, end time.Time, categoryID int64, roomIDs []int64, previous ...PreviousDate) Entry {
	return Entry{
		ID:            1,
		EventID:       1,
		CategoryID:    categoryID,
		RoomIDs:       roomIDs,
		Begin:         begin,
		End:           end,
		PreviousDates: previous,
	}
}

func TestEntryFilter_Matches(t *testing.T) {
	t.Parallel()

	after := filterBase
	before := filterBase.Add(4 * time.Hour)

	cases := []struct {
		name   string
		filter EntryFilter
		entry  Entry
		want   bool
	}{
		{
			name:   "empty filter matches everything",
			filter: EntryFilter{},
			entry:  filterEntry(filterBase, filterBase.Add(time.Hour), 1, nil),
			want:   true,
		},
		{
			name:   "after keeps entries ending exactly on the bound",
			filter: EntryFilter{After: &after},
			entry:  filterEntry(filterBase.Add(-2*time.Hour), filterBase, 1, nil),
			want:   true,
		},
		{
			name:   "after drops entries ending earlier",
			filter: EntryFilter{After: &after},
			entry:  filterEntry(filterBase.Add(-2*time.Hour), filterBase.Add(-time.Minute), 1, nil),
			want:   false,
		},
		{
			name:   "before requires the entry to begin strictly earlier",
			filter: EntryFilter{Before: &before},
			entry:  filterEntry(before, before.Add(time.Hour), 1, nil),
			want:   false,
		},
		{
			name:   "before keeps entries beginning inside the bound",
			filter: EntryFilter{Before: &before},
			entry:  filterEntry(before.Add(-time.Minute), before.Add(time.Hour), 1, nil),
			want:   true,
		},
		{
			name:   "category membership",
			filter: EntryFilter{CategoryIDs: []int64{2, 3}},
			entry:  filterEntry(filterBase, filterBase.Add(time.Hour), 1, nil),
			want:   false,
		},
		{
			name:   "room intersection",
			filter: EntryFilter{RoomIDs: []int64{5}},
			entry:  filterEntry(filterBase, filterBase.Add(time.Hour), 1, []int64{4, 5}),
			want:   true,
		},
		{
			name:   "room filter drops disjoint entries",
			filter: EntryFilter{RoomIDs: []int64{5}},
			entry:  filterEntry(filterBase, filterBase.Add(time.Hour), 1, []int64{4}),
			want:   false,
		},
		{
			name:   "no-room requires an empty room set",
			filter: EntryFilter{NoRoom: true},
			entry:  filterEntry(filterBase, filterBase.Add(time.Hour), 1, []int64{4}),
			want:   false,
		},
		{
			name:   "no-room keeps roomless entries",
			filter: EntryFilter{NoRoom: true},
			entry:  filterEntry(filterBase, filterBase.Add(time.Hour), 1, nil),
			want:   true,
		},
		{
			name:   "rooms or no-room combine disjunctively",
			filter: EntryFilter{RoomIDs: []int64{5}, NoRoom: true},
			entry:  filterEntry(filterBase, filterBase.Add(time.Hour), 1, nil),
			want:   true,
		},
		{
			name:   "previous dates are ignored without the flag",
			filter: EntryFilter{After: &after, Before: &before},
			entry: filterEntry(before.Add(time.Hour), before.Add(2*time.Hour), 1, nil,
				PreviousDate{Begin: filterBase, End: filterBase.Add(time.Hour)}),
			want: false,
		},
		{
			name:   "matching previous date qualifies the entry",
			filter: EntryFilter{After: &after, Before: &before, IncludePreviousDateMatches: true},
			entry: filterEntry(before.Add(time.Hour), before.Add(2*time.Hour), 1, nil,
				PreviousDate{Begin: filterBase, End: filterBase.Add(time.Hour)}),
			want: true,
		},
		{
			name:   "previous date must satisfy the room condition",
			filter: EntryFilter{RoomIDs: []int64{5}, IncludePreviousDateMatches: true},
			entry: filterEntry(filterBase, filterBase.Add(time.Hour), 1, []int64{4},
				PreviousDate{Begin: filterBase, End: filterBase.Add(time.Hour), RoomIDs: []int64{4}}),
			want: false,
		},
		{
			name:   "previous date room match qualifies",
			filter: EntryFilter{RoomIDs: []int64{5}, IncludePreviousDateMatches: true},
			entry: filterEntry(filterBase, filterBase.Add(time.Hour), 1, []int64{4},
				PreviousDate{Begin: filterBase, End: filterBase.Add(time.Hour), RoomIDs: []int64{5}}),
			want: true,
		},
		{
			name:   "category still gates previous date matches",
			filter: EntryFilter{CategoryIDs: []int64{2}, IncludePreviousDateMatches: true},
			entry: filterEntry(filterBase, filterBase.Add(time.Hour), 1, nil,
				PreviousDate{Begin: filterBase, End: filterBase.Add(time.Hour)}),
			want: false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.filter.Matches(tc.entry); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}
