// Package memory provides a map-based persistence implementation. It serves
// small deployments and tests, and acts as the reference backend the SQLite
// query builder is compared against: ListEntries evaluates EntryFilter.Matches
// directly.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// Store is an in-memory persistence layer implementation. All methods are
// safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	events        map[int64]persistence.Event
	categories    map[int64]persistence.Category
	rooms         map[int64]persistence.Room
	entries       map[int64]persistence.Entry
	passphrases   map[int32]persistence.Passphrase
	announcements map[int64]persistence.Announcement

	nextID           int64
	nextPassphraseID int32
	now              func() time.Time
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		events:        make(map[int64]persistence.Event),
		categories:    make(map[int64]persistence.Category),
		rooms:         make(map[int64]persistence.Room),
		entries:       make(map[int64]persistence.Entry),
		passphrases:   make(map[int32]persistence.Passphrase),
		announcements: make(map[int64]persistence.Announcement),
		now:           time.Now,
	}
}

// SetClock replaces the timestamp source, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// --- EventRepository ---

// CreateEvent stores a new event and returns it with the assigned ID.
func (s *Store) CreateEvent(ctx context.Context, event persistence.Event) (persistence.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = s.nextIDLocked()
	event.CreatedAt = s.now().UTC()
	event.UpdatedAt = event.CreatedAt
	s.events[event.ID] = event
	return event, nil
}

// UpdateEvent updates an existing event.
func (s *Store) UpdateEvent(ctx context.Context, event persistence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = s.now().UTC()
	s.events[event.ID] = event
	return nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, id int64) (persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return event, nil
}

// ListEvents returns all events ordered by first day.
func (s *Store) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].FirstDay == events[j].FirstDay {
			return events[i].ID < events[j].ID
		}
		return events[i].FirstDay.Before(events[j].FirstDay)
	})
	return events, nil
}

// --- CategoryRepository ---

// CreateCategory stores a new category and returns it with the assigned ID.
func (s *Store) CreateCategory(ctx context.Context, category persistence.Category) (persistence.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[category.EventID]; !ok {
		return persistence.Category{}, persistence.ErrForeignKeyViolation
	}
	for _, existing := range s.categories {
		if existing.EventID == category.EventID && existing.Name == category.Name {
			return persistence.Category{}, persistence.ErrDuplicate
		}
	}

	category.ID = s.nextIDLocked()
	category.CreatedAt = s.now().UTC()
	category.UpdatedAt = category.CreatedAt
	s.categories[category.ID] = category
	return category, nil
}

// ListCategories returns the event's categories ordered by name.
func (s *Store) ListCategories(ctx context.Context, eventID int64) ([]persistence.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]persistence.Category, 0)
	for _, category := range s.categories {
		if category.EventID == eventID {
			categories = append(categories, category)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Name == categories[j].Name {
			return categories[i].ID < categories[j].ID
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

// DeleteCategory removes a category unless an entry still references it.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, entry := range s.entries {
		if entry.CategoryID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.categories, id)
	return nil
}

// --- RoomRepository ---

// CreateRoom stores a new room and returns it with the assigned ID.
func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[room.EventID]; !ok {
		return persistence.Room{}, persistence.ErrForeignKeyViolation
	}
	for _, existing := range s.rooms {
		if existing.EventID == room.EventID && existing.Name == room.Name {
			return persistence.Room{}, persistence.ErrDuplicate
		}
	}

	room.ID = s.nextIDLocked()
	room.CreatedAt = s.now().UTC()
	room.UpdatedAt = room.CreatedAt
	s.rooms[room.ID] = room
	return room, nil
}

// ListRooms returns the event's rooms ordered by name.
func (s *Store) ListRooms(ctx context.Context, eventID int64) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]persistence.Room, 0)
	for _, room := range s.rooms {
		if room.EventID == eventID {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name == rooms[j].Name {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

// DeleteRoom removes a room and clears it from entry and previous-date room
// assignments.
func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.rooms, id)

	for entryID, entry := range s.entries {
		entry.RoomIDs = removeID(entry.RoomIDs, id)
		for i := range entry.PreviousDates {
			entry.PreviousDates[i].RoomIDs = removeID(entry.PreviousDates[i].RoomIDs, id)
		}
		s.entries[entryID] = entry
	}
	return nil
}

// --- EntryRepository ---

// CreateEntry stores a new entry with its previous dates and returns it with
// all assigned IDs.
func (s *Store) CreateEntry(ctx context.Context, entry persistence.Entry) (persistence.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[entry.EventID]; !ok {
		return persistence.Entry{}, persistence.ErrForeignKeyViolation
	}
	if _, ok := s.categories[entry.CategoryID]; !ok {
		return persistence.Entry{}, persistence.ErrForeignKeyViolation
	}
	if err := s.checkEntryRoomsLocked(entry); err != nil {
		return persistence.Entry{}, err
	}

	entry.ID = s.nextIDLocked()
	entry.CreatedAt = s.now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	entry.RoomIDs = uniqueIDs(entry.RoomIDs)
	for i := range entry.PreviousDates {
		entry.PreviousDates[i].ID = s.nextIDLocked()
		entry.PreviousDates[i].EntryID = entry.ID
	}

	s.entries[entry.ID] = cloneEntry(entry)
	return entry, nil
}

// UpdateEntry replaces the entry's fields and previous dates. EventID and
// CreatedAt are immutable.
func (s *Store) UpdateEntry(ctx context.Context, entry persistence.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[entry.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if _, ok := s.categories[entry.CategoryID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if err := s.checkEntryRoomsLocked(entry); err != nil {
		return err
	}

	entry.EventID = existing.EventID
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = s.now().UTC()
	entry.RoomIDs = uniqueIDs(entry.RoomIDs)
	for i := range entry.PreviousDates {
		if entry.PreviousDates[i].ID == 0 {
			entry.PreviousDates[i].ID = s.nextIDLocked()
		}
		entry.PreviousDates[i].EntryID = entry.ID
	}

	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

// GetEntry retrieves an entry by ID.
func (s *Store) GetEntry(ctx context.Context, id int64) (persistence.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return persistence.Entry{}, persistence.ErrNotFound
	}
	return cloneEntry(entry), nil
}

// ListEntries returns the event's entries accepted by the filter, ordered by
// begin time.
func (s *Store) ListEntries(ctx context.Context, eventID int64, filter persistence.EntryFilter) ([]persistence.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]persistence.Entry, 0)
	for _, entry := range s.entries {
		if entry.EventID != eventID || !filter.Matches(entry) {
			continue
		}
		entries = append(entries, cloneEntry(entry))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Begin.Equal(entries[j].Begin) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Begin.Before(entries[j].Begin)
	})
	return entries, nil
}

// DeleteEntry removes an entry together with its previous dates.
func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) checkEntryRoomsLocked(entry persistence.Entry) error {
	for _, roomID := range entry.RoomIDs {
		if _, ok := s.rooms[roomID]; !ok {
			return persistence.ErrForeignKeyViolation
		}
	}
	for _, pd := range entry.PreviousDates {
		for _, roomID := range pd.RoomIDs {
			if _, ok := s.rooms[roomID]; !ok {
				return persistence.ErrForeignKeyViolation
			}
		}
	}
	return nil
}

// --- PassphraseRepository ---

// CreatePassphrase stores a new passphrase and returns it with the assigned
// ID.
func (s *Store) CreatePassphrase(ctx context.Context, passphrase persistence.Passphrase) (persistence.Passphrase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[passphrase.EventID]; !ok {
		return persistence.Passphrase{}, persistence.ErrForeignKeyViolation
	}
	if passphrase.RoleID < 1 || passphrase.RoleID > 4 {
		return persistence.Passphrase{}, persistence.ErrConstraintViolation
	}
	if passphrase.DerivableFrom != nil {
		parent, ok := s.passphrases[*passphrase.DerivableFrom]
		if !ok || parent.EventID != passphrase.EventID {
			return persistence.Passphrase{}, persistence.ErrForeignKeyViolation
		}
	}
	if passphrase.Secret != nil {
		for _, existing := range s.passphrases {
			if existing.EventID == passphrase.EventID && existing.Secret != nil && *existing.Secret == *passphrase.Secret {
				return persistence.Passphrase{}, persistence.ErrDuplicate
			}
		}
	}

	s.nextPassphraseID++
	passphrase.ID = s.nextPassphraseID
	passphrase.CreatedAt = s.now().UTC()
	passphrase.UpdatedAt = passphrase.CreatedAt
	s.passphrases[passphrase.ID] = clonePassphrase(passphrase)
	return passphrase, nil
}

// ListPassphrases returns the event's passphrases ordered by ID.
func (s *Store) ListPassphrases(ctx context.Context, eventID int64) ([]persistence.Passphrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	passphrases := make([]persistence.Passphrase, 0)
	for _, passphrase := range s.passphrases {
		if passphrase.EventID == eventID {
			passphrases = append(passphrases, clonePassphrase(passphrase))
		}
	}
	sortPassphrases(passphrases)
	return passphrases, nil
}

// FindBySecret looks up the passphrase with the given secret within the
// event.
func (s *Store) FindBySecret(ctx context.Context, eventID int64, secret string) (persistence.Passphrase, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, passphrase := range s.passphrases {
		if passphrase.EventID == eventID && passphrase.Secret != nil && *passphrase.Secret == secret {
			return clonePassphrase(passphrase), true, nil
		}
	}
	return persistence.Passphrase{}, false, nil
}

// FindByIDsAndEvent returns the passphrases with the given IDs that belong to
// the event. Unknown IDs are silently omitted.
func (s *Store) FindByIDsAndEvent(ctx context.Context, ids []int32, eventID int64) ([]persistence.Passphrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	passphrases := make([]persistence.Passphrase, 0)
	for _, id := range ids {
		passphrase, ok := s.passphrases[id]
		if ok && passphrase.EventID == eventID {
			passphrases = append(passphrases, clonePassphrase(passphrase))
		}
	}
	sortPassphrases(passphrases)
	return passphrases, nil
}

// FindReachableIncludingDerivable returns the event's passphrases held
// directly or derivable in one step from a held one.
func (s *Store) FindReachableIncludingDerivable(ctx context.Context, ids []int32, eventID int64) ([]persistence.Passphrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	held := make(map[int32]struct{}, len(ids))
	for _, id := range ids {
		held[id] = struct{}{}
	}

	passphrases := make([]persistence.Passphrase, 0)
	for _, passphrase := range s.passphrases {
		if passphrase.EventID != eventID {
			continue
		}
		_, direct := held[passphrase.ID]
		derivable := false
		if passphrase.DerivableFrom != nil {
			_, derivable = held[*passphrase.DerivableFrom]
		}
		if direct || derivable {
			passphrases = append(passphrases, clonePassphrase(passphrase))
		}
	}
	sortPassphrases(passphrases)
	return passphrases, nil
}

// DeletePassphrase removes a passphrase together with passphrases derivable
// from it.
func (s *Store) DeletePassphrase(ctx context.Context, id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.passphrases[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.passphrases, id)
	for childID, child := range s.passphrases {
		if child.DerivableFrom != nil && *child.DerivableFrom == id {
			delete(s.passphrases, childID)
		}
	}
	return nil
}

// --- AnnouncementRepository ---

// CreateAnnouncement stores a new announcement and returns it with the
// assigned ID.
func (s *Store) CreateAnnouncement(ctx context.Context, announcement persistence.Announcement) (persistence.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[announcement.EventID]; !ok {
		return persistence.Announcement{}, persistence.ErrForeignKeyViolation
	}

	announcement.ID = s.nextIDLocked()
	announcement.CreatedAt = s.now().UTC()
	announcement.UpdatedAt = announcement.CreatedAt
	s.announcements[announcement.ID] = announcement
	return announcement, nil
}

// ListAnnouncements returns the event's announcements, pinned ones first,
// newest first within each group.
func (s *Store) ListAnnouncements(ctx context.Context, eventID int64) ([]persistence.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	announcements := make([]persistence.Announcement, 0)
	for _, announcement := range s.announcements {
		if announcement.EventID == eventID {
			announcements = append(announcements, announcement)
		}
	}
	sort.Slice(announcements, func(i, j int) bool {
		if announcements[i].Pinned != announcements[j].Pinned {
			return announcements[i].Pinned
		}
		if announcements[i].CreatedAt.Equal(announcements[j].CreatedAt) {
			return announcements[i].ID > announcements[j].ID
		}
		return announcements[i].CreatedAt.After(announcements[j].CreatedAt)
	})
	return announcements, nil
}

// DeleteAnnouncement removes an announcement by ID.
func (s *Store) DeleteAnnouncement(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.announcements[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.announcements, id)
	return nil
}

// --- Helpers ---

func cloneEntry(entry persistence.Entry) persistence.Entry {
	entry.RoomIDs = append([]int64(nil), entry.RoomIDs...)
	previous := make([]persistence.PreviousDate, len(entry.PreviousDates))
	for i, pd := range entry.PreviousDates {
		pd.RoomIDs = append([]int64(nil), pd.RoomIDs...)
		previous[i] = pd
	}
	entry.PreviousDates = previous
	return entry
}

func clonePassphrase(passphrase persistence.Passphrase) persistence.Passphrase {
	if passphrase.Secret != nil {
		secret := *passphrase.Secret
		passphrase.Secret = &secret
	}
	if passphrase.ValidFrom != nil {
		from := *passphrase.ValidFrom
		passphrase.ValidFrom = &from
	}
	if passphrase.ValidUntil != nil {
		until := *passphrase.ValidUntil
		passphrase.ValidUntil = &until
	}
	if passphrase.DerivableFrom != nil {
		parent := *passphrase.DerivableFrom
		passphrase.DerivableFrom = &parent
	}
	return passphrase
}

func sortPassphrases(passphrases []persistence.Passphrase) {
	sort.Slice(passphrases, func(i, j int) bool { return passphrases[i].ID < passphrases[j].ID })
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

func removeID(ids []int64, target int64) []int64 {
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == target {
			continue
		}
		result = append(result, id)
	}
	return result
}
