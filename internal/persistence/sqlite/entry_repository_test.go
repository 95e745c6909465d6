package sqlite

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// TestListEntries_MatchesFilterSemantics cross-checks the generated SQL
// against EntryFilter.Matches on randomized data: for every random filter the
// query must return exactly the entries the in-memory predicate accepts.
func TestListEntries_MatchesFilterSemantics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pool := newTestPool(t)
	event := createTestEvent(t, pool)

	rng := rand.New(rand.NewSource(42))
	base := time.Date(2025, time.August, 13, 0, 0, 0, 0, time.UTC)

	categories := NewCategoryRepository(pool)
	var categoryIDs []int64
	for i := 0; i < 3; i++ {
		category, err := categories.CreateCategory(ctx, persistence.Category{
			EventID: event.ID, Name: fmt.Sprintf("category-%d", i),
		})
		if err != nil {
			t.Fatalf("CreateCategory: %v", err)
		}
		categoryIDs = append(categoryIDs, category.ID)
	}

	rooms := NewRoomRepository(pool)
	var roomIDs []int64
	for i := 0; i < 4; i++ {
		room, err := rooms.CreateRoom(ctx, persistence.Room{
			EventID: event.ID, Name: fmt.Sprintf("room-%d", i),
		})
		if err != nil {
			t.Fatalf("CreateRoom: %v", err)
		}
		roomIDs = append(roomIDs, room.ID)
	}

	randomRooms := func() []int64 {
		var selected []int64
		for _, id := range roomIDs {
			if rng.Intn(3) == 0 {
				selected = append(selected, id)
			}
		}
		return selected
	}
	randomSpan := func() (time.Time, time.Time) {
		begin := base.Add(time.Duration(rng.Intn(96)) * time.Hour)
		return begin, begin.Add(time.Duration(1+rng.Intn(4)) * time.Hour)
	}

	repo := NewEntryRepository(pool)
	var created []persistence.Entry
	for i := 0; i < 60; i++ {
		begin, end := randomSpan()
		entry := persistence.Entry{
			EventID:    event.ID,
			Title:      fmt.Sprintf("entry-%d", i),
			CategoryID: categoryIDs[rng.Intn(len(categoryIDs))],
			RoomIDs:    randomRooms(),
			Begin:      begin,
			End:        end,
		}
		for p := 0; p < rng.Intn(3); p++ {
			pdBegin, pdEnd := randomSpan()
			entry.PreviousDates = append(entry.PreviousDates, persistence.PreviousDate{
				Begin: pdBegin, End: pdEnd, RoomIDs: randomRooms(),
			})
		}
		stored, err := repo.CreateEntry(ctx, entry)
		if err != nil {
			t.Fatalf("CreateEntry: %v", err)
		}
		created = append(created, stored)
	}

	for trial := 0; trial < 200; trial++ {
		filter := persistence.EntryFilter{
			IncludePreviousDateMatches: rng.Intn(2) == 0,
			NoRoom:                     rng.Intn(4) == 0,
		}
		if rng.Intn(2) == 0 {
			after := base.Add(time.Duration(rng.Intn(100)) * time.Hour)
			filter.After = &after
		}
		if rng.Intn(2) == 0 {
			before := base.Add(time.Duration(rng.Intn(100)) * time.Hour)
			filter.Before = &before
		}
		if rng.Intn(3) == 0 {
			filter.CategoryIDs = []int64{categoryIDs[rng.Intn(len(categoryIDs))]}
		}
		if rng.Intn(3) == 0 {
			filter.RoomIDs = []int64{roomIDs[rng.Intn(len(roomIDs))], roomIDs[rng.Intn(len(roomIDs))]}
		}

		want := make(map[int64]bool)
		for _, entry := range created {
			if filter.Matches(entry) {
				want[entry.ID] = true
			}
		}

		got, err := repo.ListEntries(ctx, event.ID, filter)
		if err != nil {
			t.Fatalf("trial %d: ListEntries: %v", trial, err)
		}
		gotIDs := make(map[int64]bool, len(got))
		for _, entry := range got {
			gotIDs[entry.ID] = true
		}

		for id := range want {
			if !gotIDs[id] {
				t.Errorf("trial %d (%+v): entry %d accepted by Matches but missing from query", trial, filter, id)
			}
		}
		for id := range gotIDs {
			if !want[id] {
				t.Errorf("trial %d (%+v): entry %d returned by query but rejected by Matches", trial, filter, id)
			}
		}
		if t.Failed() {
			return
		}
	}
}
