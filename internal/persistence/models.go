package persistence

import (
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
)

// Event represents a single event instance with its display-clock settings.
type Event struct {
	ID                  int64
	Name                string
	FirstDay            calendar.Date
	LastDay             calendar.Date
	Timezone            string
	EffectiveBeginOfDay calendar.TimeOfDay
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ClockInfo resolves the event's timezone and effective day boundary into the
// value threaded through all calendar conversions.
func (e Event) ClockInfo() (calendar.ClockInfo, error) {
	return calendar.NewClockInfo(e.Timezone, e.EffectiveBeginOfDay)
}

// Category represents a programme category entries are tagged with.
type Category struct {
	ID        int64
	EventID   int64
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Room represents a location entries can be scheduled in.
type Room struct {
	ID        int64
	EventID   int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry represents a calendar entry. Begin and End are UTC instants; RoomIDs
// is the set of rooms the entry currently occupies.
type Entry struct {
	ID            int64
	EventID       int64
	Title         string
	Description   string
	CategoryID    int64
	RoomIDs       []int64
	Begin         time.Time
	End           time.Time
	Cancelled     bool
	Exclusive     bool
	PreviousDates []PreviousDate
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PreviousDate is a retained record of an entry's prior schedule, kept for
// display after a reschedule. It never outlives its entry.
type PreviousDate struct {
	ID      int64
	EntryID int64
	Begin   time.Time
	End     time.Time
	RoomIDs []int64
	Comment string
}

// Passphrase is the stored form of an access credential. RoleID references
// the closed role table; Secret is null for derivable passphrases.
type Passphrase struct {
	ID            int32
	EventID       int64
	RoleID        int
	Secret        *string
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	DerivableFrom *int32
	Comment       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Announcement represents a message shown above the plan views.
type Announcement struct {
	ID        int64
	EventID   int64
	Message   string
	Pinned    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
