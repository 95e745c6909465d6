package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
)

// TestHarnessEndToEnd drives the full service stack over both storage
// backends: login with a seeded passphrase, create an entry as organizer and
// read it back through the day plan.
func TestHarnessEndToEnd(t *testing.T) {
	backends := []struct {
		name string
		make func(t *testing.T) *Harness
	}{
		{"memory", func(t *testing.T) *Harness { return NewHarness(t) }},
		{"sqlite", func(t *testing.T) *Harness { return NewSQLiteHarness(t) }},
	}
	for _, backend := range backends {
		backend := backend
		t.Run(backend.name, func(t *testing.T) {
			ctx := context.Background()
			h := backend.make(t)

			event := h.SeedEvent(t)
			category := h.SeedCategory(t, event.ID)
			room := h.SeedRoom(t, event.ID, WithRoomName("Main Hall"))
			passphrase := h.SeedPassphrase(t, event.ID, auth.RoleOrga)

			raw, err := h.Auth.Login(ctx, "", event.ID, *passphrase.Secret)
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			token, err := h.Auth.Session(ctx, raw, event.ID)
			if err != nil {
				t.Fatalf("Session: %v", err)
			}

			input := application.EntryInput{
				Title:      "Evening show",
				CategoryID: category.ID,
				RoomIDs:    []int64{room.ID},
				Begin:      ReferenceTime().Add(6 * time.Hour),
				End:        ReferenceTime().Add(8 * time.Hour),
			}
			entry, conflicts, err := h.Entries.CreateEntry(ctx, token, event.ID, input)
			if err != nil {
				t.Fatalf("CreateEntry: %v", err)
			}
			if len(conflicts) != 0 {
				t.Errorf("conflicts = %+v", conflicts)
			}

			plan, err := h.Plans.DayPlan(ctx, token, event.ID, nil)
			if err != nil {
				t.Fatalf("DayPlan: %v", err)
			}
			found := false
			for _, block := range plan.Blocks {
				for _, row := range block.Rows {
					if row.Entry.ID == entry.ID {
						found = true
					}
				}
			}
			if !found {
				t.Errorf("created entry missing from day plan: %+v", plan.Blocks)
			}
		})
	}
}

// TestHarnessClockControlsExpiry shows the shared clock flowing into the auth
// service: advancing it past the session lifetime invalidates the token.
func TestHarnessClockControlsExpiry(t *testing.T) {
	ctx := context.Background()
	h := NewHarness(t, WithSessionMaxAge(time.Hour))

	event := h.SeedEvent(t)
	passphrase := h.SeedPassphrase(t, event.ID, auth.RoleUser)

	raw, err := h.Auth.Login(ctx, "", event.ID, *passphrase.Secret)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := h.Auth.Session(ctx, raw, event.ID); err != nil {
		t.Fatalf("Session before expiry: %v", err)
	}

	h.Clock.Advance(2 * time.Hour)

	var invalid *auth.InvalidTokenError
	_, err = h.Auth.Session(ctx, raw, event.ID)
	if !errors.As(err, &invalid) || !errors.Is(err, auth.ErrExpiredToken) {
		t.Fatalf("Session after expiry: err = %v", err)
	}
}

// TestHarnessFeedOverSQLite exercises the feed aggregation against the SQLite
// backend using a derivable view-link passphrase.
func TestHarnessFeedOverSQLite(t *testing.T) {
	ctx := context.Background()
	h := NewSQLiteHarness(t)

	event := h.SeedEvent(t)
	category := h.SeedCategory(t, event.ID)
	room := h.SeedRoom(t, event.ID)
	h.SeedEntry(t, event.ID, category.ID, WithEntryRooms(room.ID))
	orga := h.SeedPassphrase(t, event.ID, auth.RoleOrga)
	h.SeedPassphrase(t, event.ID, auth.RoleSharableViewLink, WithPassphraseDerivableFrom(orga.ID))

	raw, err := h.Auth.Login(ctx, "", event.ID, *orga.Secret)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	shared, err := h.Auth.ShareToken(ctx, raw, event.ID)
	if err != nil {
		t.Fatalf("ShareToken: %v", err)
	}
	token, err := h.Auth.Session(ctx, shared, event.ID)
	if err != nil {
		t.Fatalf("Session with share token: %v", err)
	}

	data, err := h.Feeds.Feed(ctx, token, event.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(data.Entries) != 1 {
		t.Errorf("feed entries = %+v", data.Entries)
	}
	if _, ok := data.RoomNames[room.ID]; !ok {
		t.Errorf("room names = %+v", data.RoomNames)
	}
}
