package persistence

import "context"

// EventRepository exposes CRUD operations for events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id int64) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
}

// EntryRepository stores calendar entries together with their previous dates.
// ListEntries is contractually equivalent to filtering the event's full entry
// set in memory with EntryFilter.Matches.
type EntryRepository interface {
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) error
	GetEntry(ctx context.Context, id int64) (Entry, error)
	ListEntries(ctx context.Context, eventID int64, filter EntryFilter) ([]Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
}

// CategoryRepository exposes CRUD operations for categories.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category Category) (Category, error)
	ListCategories(ctx context.Context, eventID int64) ([]Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	ListRooms(ctx context.Context, eventID int64) ([]Room, error)
	DeleteRoom(ctx context.Context, id int64) error
}

// PassphraseRepository stores access credentials and serves the lookups the
// role resolver depends on.
type PassphraseRepository interface {
	CreatePassphrase(ctx context.Context, passphrase Passphrase) (Passphrase, error)
	ListPassphrases(ctx context.Context, eventID int64) ([]Passphrase, error)
	FindBySecret(ctx context.Context, eventID int64, secret string) (Passphrase, bool, error)
	FindByIDsAndEvent(ctx context.Context, ids []int32, eventID int64) ([]Passphrase, error)
	FindReachableIncludingDerivable(ctx context.Context, ids []int32, eventID int64) ([]Passphrase, error)
	DeletePassphrase(ctx context.Context, id int32) error
}

// AnnouncementRepository stores announcements shown above the plan.
type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, announcement Announcement) (Announcement, error)
	ListAnnouncements(ctx context.Context, eventID int64) ([]Announcement, error)
	DeleteAnnouncement(ctx context.Context, id int64) error
}
