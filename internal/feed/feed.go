// Package feed renders an event's entries as an iCalendar subscription feed.
package feed

import (
	"fmt"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

const productID = "-//kueaplan//schedule feed//EN"

// EntryUID derives a stable identifier for an entry. Feed consumers rely on
// UIDs staying constant across refreshes so updates replace the existing
// calendar item instead of duplicating it.
func EntryUID(eventID, entryID int64) string {
	name := fmt.Sprintf("kueaplan/events/%d/entries/%d", eventID, entryID)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@kueaplan"
}

// Render serializes the entries as a VCALENDAR. roomNames resolves room ids
// for the LOCATION property; unknown ids are skipped. now stamps DTSTAMP.
func Render(event persistence.Event, entries []persistence.Entry, roomNames map[int64]string, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(event.Name)
	cal.SetXWRTimezone(event.Timezone)

	for _, entry := range entries {
		ve := cal.AddEvent(EntryUID(event.ID, entry.ID))
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(entry.Begin.UTC())
		ve.SetEndAt(entry.End.UTC())
		ve.SetSummary(entry.Title)
		if entry.Description != "" {
			ve.SetDescription(entry.Description)
		}
		if location := locationLine(entry.RoomIDs, roomNames); location != "" {
			ve.SetLocation(location)
		}
		if !entry.CreatedAt.IsZero() {
			ve.SetCreatedTime(entry.CreatedAt.UTC())
		}
		if !entry.UpdatedAt.IsZero() {
			ve.SetModifiedAt(entry.UpdatedAt.UTC())
		}
		if entry.Cancelled {
			ve.SetStatus(ical.ObjectStatusCancelled)
		} else {
			ve.SetStatus(ical.ObjectStatusConfirmed)
		}
	}

	return cal.Serialize()
}

func locationLine(roomIDs []int64, roomNames map[int64]string) string {
	names := make([]string, 0, len(roomIDs))
	for _, id := range roomIDs {
		if name, ok := roomNames[id]; ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
