package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

func testEvent() persistence.Event {
	return persistence.Event{
		ID:                  7,
		Name:                "Summer Festival",
		FirstDay:            calendar.NewDate(2025, time.August, 13),
		LastDay:             calendar.NewDate(2025, time.August, 17),
		Timezone:            "Europe/Berlin",
		EffectiveBeginOfDay: calendar.TimeOfDay{Hour: 5, Minute: 30},
	}
}

func TestEntryUID_Stable(t *testing.T) {
	t.Parallel()

	uid := EntryUID(7, 42)
	if uid != EntryUID(7, 42) {
		t.Error("UID changed between calls")
	}
	if uid == EntryUID(7, 43) || uid == EntryUID(8, 42) {
		t.Error("UID collides across entries or events")
	}
	if !strings.HasSuffix(uid, "@kueaplan") {
		t.Errorf("uid = %q", uid)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.August, 14, 12, 0, 0, 0, time.UTC)
	entries := []persistence.Entry{
		{
			ID:          1,
			EventID:     7,
			Title:       "Opening concert",
			Description: "Bring earplugs",
			RoomIDs:     []int64{2, 1},
			Begin:       time.Date(2025, time.August, 14, 18, 0, 0, 0, time.UTC),
			End:         time.Date(2025, time.August, 14, 20, 0, 0, 0, time.UTC),
		},
		{
			ID:        2,
			EventID:   7,
			Title:     "Rained out",
			Cancelled: true,
			Begin:     time.Date(2025, time.August, 15, 10, 0, 0, 0, time.UTC),
			End:       time.Date(2025, time.August, 15, 11, 0, 0, 0, time.UTC),
		},
	}
	roomNames := map[int64]string{1: "Main Stage", 2: "Tent"}

	serialized := Render(testEvent(), entries, roomNames, now)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"X-WR-CALNAME:Summer Festival",
		"SUMMARY:Opening concert",
		"LOCATION:",
		"Main Stage",
		"DTSTART:20250814T180000Z",
		"STATUS:CANCELLED",
		"END:VCALENDAR",
	} {
		if !strings.Contains(serialized, want) {
			t.Errorf("feed missing %q:\n%s", want, serialized)
		}
	}
	if !strings.Contains(serialized, "UID:"+EntryUID(7, 1)) {
		t.Error("feed missing stable UID for entry 1")
	}
}

func TestRender_EmptyFeedIsValid(t *testing.T) {
	t.Parallel()

	serialized := Render(testEvent(), nil, nil, time.Now())
	if !strings.Contains(serialized, "BEGIN:VCALENDAR") || strings.Contains(serialized, "BEGIN:VEVENT") {
		t.Errorf("unexpected serialization:\n%s", serialized)
	}
}
