// Package testfixtures provides deterministic builders, a controllable clock
// and pre-wired service harnesses for tests across the module.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

var (
	eventCounter        uint64
	categoryCounter     uint64
	roomCounter         uint64
	entryCounter        uint64
	announcementCounter uint64

	secretSequence = NewSequence("secret")
)

// referenceTime falls inside the default event's date range so that fixtures
// are "current" from the plan services' point of view.
var referenceTime = time.Date(2025, time.August, 14, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// EventOption configures a generated event fixture.
type EventOption func(*persistence.Event)

// NewEvent returns a deterministic multi-day event with optional overrides.
// The default event spans 2025-08-13 to 2025-08-17 in Europe/Berlin with an
// effective begin of day at 05:30.
func NewEvent(opts ...EventOption) persistence.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	event := persistence.Event{
		Name:                fmt.Sprintf("Event %03d", idx),
		FirstDay:            calendar.NewDate(2025, time.August, 13),
		LastDay:             calendar.NewDate(2025, time.August, 17),
		Timezone:            "Europe/Berlin",
		EffectiveBeginOfDay: calendar.TimeOfDay{Hour: 5, Minute: 30},
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// WithEventName overrides the generated event name.
func WithEventName(name string) EventOption {
	return func(e *persistence.Event) { e.Name = name }
}

// WithEventDays overrides the event's date range.
func WithEventDays(first, last calendar.Date) EventOption {
	return func(e *persistence.Event) {
		e.FirstDay = first
		e.LastDay = last
	}
}

// WithEventTimezone overrides the event's display timezone.
func WithEventTimezone(tz string) EventOption {
	return func(e *persistence.Event) { e.Timezone = tz }
}

// WithEventBeginOfDay overrides the effective begin of day.
func WithEventBeginOfDay(t calendar.TimeOfDay) EventOption {
	return func(e *persistence.Event) { e.EffectiveBeginOfDay = t }
}

// CategoryOption configures a generated category fixture.
type CategoryOption func(*persistence.Category)

// NewCategory returns a deterministic category for the given event.
func NewCategory(eventID int64, opts ...CategoryOption) persistence.Category {
	idx := atomic.AddUint64(&categoryCounter, 1)
	category := persistence.Category{
		EventID: eventID,
		Name:    fmt.Sprintf("Category %03d", idx),
		Color:   "#1e66f5",
	}
	for _, opt := range opts {
		opt(&category)
	}
	return category
}

// WithCategoryName overrides the generated category name.
func WithCategoryName(name string) CategoryOption {
	return func(c *persistence.Category) { c.Name = name }
}

// WithCategoryColor overrides the category color.
func WithCategoryColor(color string) CategoryOption {
	return func(c *persistence.Category) { c.Color = color }
}

// RoomOption configures a generated room fixture.
type RoomOption func(*persistence.Room)

// NewRoom returns a deterministic room for the given event.
func NewRoom(eventID int64, opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	room := persistence.Room{
		EventID: eventID,
		Name:    fmt.Sprintf("Room %03d", idx),
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(r *persistence.Room) { r.Name = name }
}

// EntryOption configures a generated entry fixture.
type EntryOption func(*persistence.Entry)

// NewEntry returns a deterministic entry for the given event and category.
// Consecutive entries are spaced three hours apart starting at ReferenceTime,
// each one hour long, so they do not overlap unless a test arranges it.
func NewEntry(eventID, categoryID int64, opts ...EntryOption) persistence.Entry {
	idx := atomic.AddUint64(&entryCounter, 1)
	begin := referenceTime.Add(time.Duration(idx) * 3 * time.Hour)
	entry := persistence.Entry{
		EventID:    eventID,
		Title:      fmt.Sprintf("Entry %03d", idx),
		CategoryID: categoryID,
		Begin:      begin,
		End:        begin.Add(time.Hour),
	}
	for _, opt := range opts {
		opt(&entry)
	}
	return entry
}

// WithEntryTitle overrides the generated entry title.
func WithEntryTitle(title string) EntryOption {
	return func(e *persistence.Entry) { e.Title = title }
}

// WithEntryDescription sets the entry description.
func WithEntryDescription(description string) EntryOption {
	return func(e *persistence.Entry) { e.Description = description }
}

// WithEntrySpan overrides the entry's begin and end instants.
func WithEntrySpan(begin, end time.Time) EntryOption {
	return func(e *persistence.Entry) {
		e.Begin = begin
		e.End = end
	}
}

// WithEntryRooms assigns the entry to the given rooms.
func WithEntryRooms(roomIDs ...int64) EntryOption {
	return func(e *persistence.Entry) { e.RoomIDs = roomIDs }
}

// WithEntryCancelled marks the entry as cancelled.
func WithEntryCancelled() EntryOption {
	return func(e *persistence.Entry) { e.Cancelled = true }
}

// WithEntryExclusive marks the entry as claiming its timeslot exclusively.
func WithEntryExclusive() EntryOption {
	return func(e *persistence.Entry) { e.Exclusive = true }
}

// WithEntryPreviousDate appends a retained previous schedule.
func WithEntryPreviousDate(previous persistence.PreviousDate) EntryOption {
	return func(e *persistence.Entry) {
		e.PreviousDates = append(e.PreviousDates, previous)
	}
}

// PassphraseOption configures a generated passphrase fixture.
type PassphraseOption func(*persistence.Passphrase)

// NewPassphrase returns a deterministic passphrase granting the given role.
// A fresh secret is drawn from the shared secret sequence; use
// WithPassphraseDerivableFrom for derivable passphrases without a secret.
func NewPassphrase(eventID int64, role auth.AccessRole, opts ...PassphraseOption) persistence.Passphrase {
	secret := secretSequence.Next()
	passphrase := persistence.Passphrase{
		EventID: eventID,
		RoleID:  int(role),
		Secret:  &secret,
	}
	for _, opt := range opts {
		opt(&passphrase)
	}
	return passphrase
}

// WithPassphraseSecret overrides the generated secret.
func WithPassphraseSecret(secret string) PassphraseOption {
	return func(p *persistence.Passphrase) { p.Secret = &secret }
}

// WithPassphraseDerivableFrom clears the secret and marks the passphrase as
// derivable from the given parent.
func WithPassphraseDerivableFrom(parentID int32) PassphraseOption {
	return func(p *persistence.Passphrase) {
		p.Secret = nil
		p.DerivableFrom = &parentID
	}
}

// WithPassphraseValidity bounds the passphrase's validity window. Either bound
// may be nil for an open end.
func WithPassphraseValidity(from, until *time.Time) PassphraseOption {
	return func(p *persistence.Passphrase) {
		p.ValidFrom = from
		p.ValidUntil = until
	}
}

// WithPassphraseComment sets the administrative comment.
func WithPassphraseComment(comment string) PassphraseOption {
	return func(p *persistence.Passphrase) { p.Comment = comment }
}

// AnnouncementOption configures a generated announcement fixture.
type AnnouncementOption func(*persistence.Announcement)

// NewAnnouncement returns a deterministic announcement for the given event.
func NewAnnouncement(eventID int64, opts ...AnnouncementOption) persistence.Announcement {
	idx := atomic.AddUint64(&announcementCounter, 1)
	announcement := persistence.Announcement{
		EventID: eventID,
		Message: fmt.Sprintf("Announcement %03d", idx),
	}
	for _, opt := range opts {
		opt(&announcement)
	}
	return announcement
}

// WithAnnouncementMessage overrides the generated message.
func WithAnnouncementMessage(message string) AnnouncementOption {
	return func(a *persistence.Announcement) { a.Message = message }
}

// WithAnnouncementPinned pins the announcement.
func WithAnnouncementPinned() AnnouncementOption {
	return func(a *persistence.Announcement) { a.Pinned = true }
}
