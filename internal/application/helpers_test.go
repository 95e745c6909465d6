package application

import (
	"context"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence/memory"
)

var testNow = time.Date(2025, time.August, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	store *memory.Store
	event persistence.Event
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetClock(fixedClock)

	event, err := store.CreateEvent(context.Background(), persistence.Event{
		Name:                "Summer Festival",
		FirstDay:            calendar.NewDate(2025, time.August, 13),
		LastDay:             calendar.NewDate(2025, time.August, 17),
		Timezone:            "Europe/Berlin",
		EffectiveBeginOfDay: calendar.TimeOfDay{Hour: 5, Minute: 30},
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return fixture{store: store, event: event}
}

func orgaToken(eventID int64) auth.AuthToken {
	return auth.AuthToken{EventID: eventID, Roles: auth.RoleOrga.ImpliedRoles()}
}

func adminToken(eventID int64) auth.AuthToken {
	return auth.AuthToken{EventID: eventID, Roles: auth.RoleAdmin.ImpliedRoles()}
}

func userToken(eventID int64) auth.AuthToken {
	return auth.AuthToken{EventID: eventID, Roles: auth.RoleUser.ImpliedRoles()}
}
