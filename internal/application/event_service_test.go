package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

func newEventService(fx fixture) *EventService {
	return NewEventService(fx.store, fx.store, fx.store, nil)
}

func validEventInput() EventInput {
	return EventInput{
		Name:                "Winter Fair",
		FirstDay:            calendar.NewDate(2025, time.December, 5),
		LastDay:             calendar.NewDate(2025, time.December, 7),
		Timezone:            "Europe/Berlin",
		EffectiveBeginOfDay: calendar.TimeOfDay{Hour: 6},
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := newEventService(fx)

	operator := auth.GlobalAuthToken{Roles: auth.RoleAdmin.ImpliedRoles()}
	event, err := service.CreateEvent(ctx, operator, validEventInput())
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.ID == 0 || event.Name != "Winter Fair" {
		t.Errorf("event = %+v", event)
	}

	var denied *auth.PermissionDeniedError
	if _, err := service.CreateEvent(ctx, auth.GlobalAuthToken{}, validEventInput()); !errors.As(err, &denied) {
		t.Errorf("anonymous create: err = %v", err)
	}
}

func TestEventService_CreateEventValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	service := newEventService(newFixture(t))
	operator := auth.GlobalAuthToken{Roles: auth.RoleAdmin.ImpliedRoles()}

	input := validEventInput()
	input.Name = ""
	input.LastDay = calendar.NewDate(2025, time.December, 1)
	input.Timezone = "Mars/Olympus_Mons"

	var vErr *ValidationError
	if _, err := service.CreateEvent(ctx, operator, input); !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	for _, field := range []string{"name", "last_day", "timezone"} {
		if vErr.FieldErrors[field] == "" {
			t.Errorf("missing field error for %s: %v", field, vErr.FieldErrors)
		}
	}
}

func TestEventService_UpdateEventDetails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := newEventService(fx)

	input := validEventInput()
	event, err := service.UpdateEventDetails(ctx, adminToken(fx.event.ID), fx.event.ID, input)
	if err != nil {
		t.Fatalf("UpdateEventDetails: %v", err)
	}
	if event.Name != "Winter Fair" || event.FirstDay != input.FirstDay {
		t.Errorf("event = %+v", event)
	}

	var denied *auth.PermissionDeniedError
	if _, err := service.UpdateEventDetails(ctx, orgaToken(fx.event.ID), fx.event.ID, input); !errors.As(err, &denied) {
		t.Errorf("orga token: err = %v", err)
	}
}

func TestEventService_ConfigOverview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := newEventService(fx)

	if _, err := service.CreateCategory(ctx, orgaToken(fx.event.ID), fx.event.ID, "Music", "#ff0000"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := service.CreateRoom(ctx, orgaToken(fx.event.ID), fx.event.ID, "Main Stage"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	overview, err := service.ConfigOverview(ctx, orgaToken(fx.event.ID), fx.event.ID)
	if err != nil {
		t.Fatalf("ConfigOverview: %v", err)
	}
	if overview.Event.ID != fx.event.ID || len(overview.Categories) != 1 || len(overview.Rooms) != 1 {
		t.Errorf("overview = %+v", overview)
	}

	var denied *auth.PermissionDeniedError
	if _, err := service.ConfigOverview(ctx, userToken(fx.event.ID), fx.event.ID); !errors.As(err, &denied) {
		t.Errorf("user token: err = %v", err)
	}
}

func TestEventService_DeleteCategoryInUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := newEventService(fx)
	token := orgaToken(fx.event.ID)

	category, err := service.CreateCategory(ctx, token, fx.event.ID, "Music", "")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := fx.store.CreateEntry(ctx, persistence.Entry{
		EventID: fx.event.ID, Title: "Concert", CategoryID: category.ID,
		Begin: testNow, End: testNow.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	if err := service.DeleteCategory(ctx, token, fx.event.ID, category.ID); !errors.Is(err, ErrInUse) {
		t.Errorf("DeleteCategory with entries: err = %v", err)
	}
}

func TestEventService_DeleteRoomClearsSchedules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := newEventService(fx)
	token := orgaToken(fx.event.ID)

	category, _ := service.CreateCategory(ctx, token, fx.event.ID, "Music", "")
	room, err := service.CreateRoom(ctx, token, fx.event.ID, "Main Stage")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	entry, err := fx.store.CreateEntry(ctx, persistence.Entry{
		EventID: fx.event.ID, Title: "Concert", CategoryID: category.ID,
		RoomIDs: []int64{room.ID},
		Begin:   testNow, End: testNow.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	if err := service.DeleteRoom(ctx, token, fx.event.ID, room.ID); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	entry, err = fx.store.GetEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if len(entry.RoomIDs) != 0 {
		t.Errorf("RoomIDs = %v, want the room assignment cleared", entry.RoomIDs)
	}
}

func TestEventService_ForeignConfigObjectsAreNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	service := newEventService(fx)

	other, err := fx.store.CreateEvent(ctx, fx.event)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	category, err := service.CreateCategory(ctx, orgaToken(fx.event.ID), fx.event.ID, "Music", "")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	if err := service.DeleteCategory(ctx, orgaToken(other.ID), other.ID, category.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-event delete: err = %v", err)
	}
}
