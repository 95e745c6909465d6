package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/conflict"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

type entryFixture struct {
	fixture
	service  *EntryService
	category persistence.Category
	roomA    persistence.Room
	roomB    persistence.Room
}

func newEntryFixture(t *testing.T) entryFixture {
	t.Helper()
	fx := newFixture(t)
	ctx := context.Background()

	category, err := fx.store.CreateCategory(ctx, persistence.Category{EventID: fx.event.ID, Name: "Music"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	roomA, err := fx.store.CreateRoom(ctx, persistence.Room{EventID: fx.event.ID, Name: "Main Stage"})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	roomB, err := fx.store.CreateRoom(ctx, persistence.Room{EventID: fx.event.ID, Name: "Tent"})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	return entryFixture{
		fixture:  fx,
		service:  NewEntryService(fx.store, nil),
		category: category,
		roomA:    roomA,
		roomB:    roomB,
	}
}

func (fx entryFixture) input() EntryInput {
	return EntryInput{
		Title:      "Opening concert",
		CategoryID: fx.category.ID,
		RoomIDs:    []int64{fx.roomA.ID},
		Begin:      time.Date(2025, time.August, 14, 18, 0, 0, 0, time.UTC),
		End:        time.Date(2025, time.August, 14, 20, 0, 0, 0, time.UTC),
	}
}

func TestEntryService_CreateEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)

	entry, conflicts, err := fx.service.CreateEntry(ctx, orgaToken(fx.event.ID), fx.event.ID, fx.input())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if entry.ID == 0 || entry.Title != "Opening concert" {
		t.Errorf("entry = %+v", entry)
	}
	if len(conflicts) != 0 {
		t.Errorf("first entry reported conflicts: %+v", conflicts)
	}

	var denied *auth.PermissionDeniedError
	if _, _, err := fx.service.CreateEntry(ctx, userToken(fx.event.ID), fx.event.ID, fx.input()); !errors.As(err, &denied) {
		t.Errorf("user token: err = %v", err)
	}
}

func TestEntryService_CreateEntryValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)

	input := fx.input()
	input.Title = "  "
	input.End = input.Begin.Add(-time.Hour)

	var vErr *ValidationError
	_, _, err := fx.service.CreateEntry(ctx, orgaToken(fx.event.ID), fx.event.ID, input)
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if vErr.FieldErrors["title"] == "" || vErr.FieldErrors["end"] == "" {
		t.Errorf("FieldErrors = %v", vErr.FieldErrors)
	}
}

func TestEntryService_UpdateEntryRecordsOldSchedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)
	token := orgaToken(fx.event.ID)

	entry, _, err := fx.service.CreateEntry(ctx, token, fx.event.ID, fx.input())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	input := fx.input()
	input.Begin = input.Begin.Add(2 * time.Hour)
	input.End = input.End.Add(2 * time.Hour)
	updated, _, err := fx.service.UpdateEntry(ctx, token, fx.event.ID, entry.ID, input)
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}

	if len(updated.PreviousDates) != 1 {
		t.Fatalf("PreviousDates = %+v, want the old schedule", updated.PreviousDates)
	}
	previous := updated.PreviousDates[0]
	if !previous.Begin.Equal(entry.Begin) || !previous.End.Equal(entry.End) {
		t.Errorf("previous date %v-%v, want %v-%v", previous.Begin, previous.End, entry.Begin, entry.End)
	}
	if len(previous.RoomIDs) != 1 || previous.RoomIDs[0] != fx.roomA.ID {
		t.Errorf("previous rooms = %v", previous.RoomIDs)
	}
}

func TestEntryService_UpdateEntryRoomChangeIsRescheduling(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)
	token := orgaToken(fx.event.ID)

	entry, _, err := fx.service.CreateEntry(ctx, token, fx.event.ID, fx.input())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	input := fx.input()
	input.RoomIDs = []int64{fx.roomB.ID}
	updated, _, err := fx.service.UpdateEntry(ctx, token, fx.event.ID, entry.ID, input)
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if len(updated.PreviousDates) != 1 {
		t.Fatalf("room change did not record a previous date: %+v", updated.PreviousDates)
	}
}

func TestEntryService_UpdateEntryUnchangedScheduleKeepsHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)
	token := orgaToken(fx.event.ID)

	entry, _, err := fx.service.CreateEntry(ctx, token, fx.event.ID, fx.input())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	input := fx.input()
	input.Title = "Opening concert (extended)"
	updated, _, err := fx.service.UpdateEntry(ctx, token, fx.event.ID, entry.ID, input)
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if len(updated.PreviousDates) != 0 {
		t.Errorf("title-only edit recorded a previous date: %+v", updated.PreviousDates)
	}
	if updated.Title != "Opening concert (extended)" {
		t.Errorf("Title = %q", updated.Title)
	}
}

func TestEntryService_CreateEntryReportsConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)
	token := orgaToken(fx.event.ID)

	first, _, err := fx.service.CreateEntry(ctx, token, fx.event.ID, fx.input())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	overlapping := fx.input()
	overlapping.Title = "Competing act"
	overlapping.Begin = overlapping.Begin.Add(time.Hour)
	overlapping.End = overlapping.End.Add(time.Hour)
	second, conflicts, err := fx.service.CreateEntry(ctx, token, fx.event.ID, overlapping)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if second.ID == 0 {
		t.Fatal("conflicting entry was not stored")
	}
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %+v, want one room conflict", conflicts)
	}
	if conflicts[0].WithEntryID != first.ID || conflicts[0].Type != conflict.TypeRoom {
		t.Errorf("conflict = %+v", conflicts[0])
	}
	if conflicts[0].RoomID == nil || *conflicts[0].RoomID != fx.roomA.ID {
		t.Errorf("conflict room = %v, want %d", conflicts[0].RoomID, fx.roomA.ID)
	}

	moved := fx.input()
	moved.Title = "Competing act"
	moved.RoomIDs = []int64{fx.roomB.ID}
	moved.Begin = moved.Begin.Add(time.Hour)
	moved.End = moved.End.Add(time.Hour)
	_, conflicts, err = fx.service.UpdateEntry(ctx, token, fx.event.ID, second.ID, moved)
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("moving to a free room still reports conflicts: %+v", conflicts)
	}
}

func TestEntryService_ExclusiveEntryConflictsWithoutSharedRoom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)
	token := orgaToken(fx.event.ID)

	if _, _, err := fx.service.CreateEntry(ctx, token, fx.event.ID, fx.input()); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	plenary := fx.input()
	plenary.Title = "Plenary meeting"
	plenary.RoomIDs = nil
	plenary.Exclusive = true
	_, conflicts, err := fx.service.CreateEntry(ctx, token, fx.event.ID, plenary)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].Type != conflict.TypeExclusive {
		t.Errorf("conflicts = %+v, want one exclusive conflict", conflicts)
	}
}

func TestEntryService_CrossEventAccessIsNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)

	entry, _, err := fx.service.CreateEntry(ctx, orgaToken(fx.event.ID), fx.event.ID, fx.input())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	other, err := fx.store.CreateEvent(ctx, fx.event)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if _, err := fx.service.GetEntry(ctx, orgaToken(other.ID), other.ID, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEntry across events: err = %v", err)
	}
	if err := fx.service.DeleteEntry(ctx, orgaToken(other.ID), other.ID, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteEntry across events: err = %v", err)
	}
}

func TestEntryService_DeleteEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newEntryFixture(t)
	token := orgaToken(fx.event.ID)

	entry, _, err := fx.service.CreateEntry(ctx, token, fx.event.ID, fx.input())
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if err := fx.service.DeleteEntry(ctx, token, fx.event.ID, entry.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := fx.service.GetEntry(ctx, token, fx.event.ID, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEntry after delete: err = %v", err)
	}
}
