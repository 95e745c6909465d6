package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
	"github.com/mhthies/online-kueaplan-sub000/internal/timeline"
)

// DayPlan is the consolidated timeline of one effective date, grouped into
// display blocks, together with the event's announcements.
type DayPlan struct {
	Event         persistence.Event
	Date          calendar.Date
	Blocks        []timeline.Block
	Announcements []persistence.Announcement
}

// OccurrencePlan is a flat timeline filtered by room or category.
type OccurrencePlan struct {
	Event persistence.Event
	Rows  []timeline.Row
}

// PlanService assembles the read-only plan views.
type PlanService struct {
	events        persistence.EventRepository
	entries       persistence.EntryRepository
	announcements persistence.AnnouncementRepository
	blocks        []timeline.BlockSpec
	now           func() time.Time
	logger        *slog.Logger
}

// NewPlanService wires the plan views. blocks configures the day view's time
// blocks and must end with an unbounded block; nil means a single catch-all
// block. The now function is injectable for tests; nil means time.Now.
func NewPlanService(events persistence.EventRepository, entries persistence.EntryRepository, announcements persistence.AnnouncementRepository, blocks []timeline.BlockSpec, now func() time.Time, logger *slog.Logger) *PlanService {
	if blocks == nil {
		blocks = []timeline.BlockSpec{{Label: "All day"}}
	}
	if now == nil {
		now = time.Now
	}
	return &PlanService{
		events:        events,
		entries:       entries,
		announcements: announcements,
		blocks:        blocks,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

// GetEvent returns the event the session may view.
func (s *PlanService) GetEvent(ctx context.Context, token auth.AuthToken, eventID int64) (persistence.Event, error) {
	if err := token.Check(eventID, auth.PrivilegeShowPlan); err != nil {
		return persistence.Event{}, err
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return persistence.Event{}, mapRepoError(err)
	}
	return event, nil
}

// DayPlan builds the day view for the given effective date. A nil date means
// the most reasonable one: today's effective date clamped into the event
// span.
func (s *PlanService) DayPlan(ctx context.Context, token auth.AuthToken, eventID int64, date *calendar.Date) (DayPlan, error) {
	logger := serviceLogger(ctx, s.logger, "PlanService", "DayPlan", "event_id", eventID)

	event, clock, err := s.eventClock(ctx, token, eventID)
	if err != nil {
		return DayPlan{}, err
	}

	displayDate := calendar.MostReasonableDate(event.FirstDay, event.LastDay, clock, s.now())
	if date != nil {
		displayDate = *date
	}

	window := timeline.DateWindow(displayDate, clock)
	entries, err := s.entries.ListEntries(ctx, eventID, persistence.EntryFilter{
		After:                      &window.Begin,
		Before:                     &window.End,
		IncludePreviousDateMatches: true,
	})
	if err != nil {
		return DayPlan{}, mapRepoError(err)
	}

	rows := timeline.Build(entries, window)
	blocks, err := timeline.GroupIntoBlocks(rows, s.blocks, displayDate, clock)
	if err != nil {
		return DayPlan{}, err
	}

	announcements, err := s.announcements.ListAnnouncements(ctx, eventID)
	if err != nil {
		return DayPlan{}, mapRepoError(err)
	}

	logger.DebugContext(ctx, "day plan built", "date", displayDate.String(), "rows", len(rows))
	return DayPlan{Event: event, Date: displayDate, Blocks: blocks, Announcements: announcements}, nil
}

// RoomPlan builds the timeline of every occurrence scheduled in the room.
func (s *PlanService) RoomPlan(ctx context.Context, token auth.AuthToken, eventID, roomID int64) (OccurrencePlan, error) {
	event, _, err := s.eventClock(ctx, token, eventID)
	if err != nil {
		return OccurrencePlan{}, err
	}

	entries, err := s.entries.ListEntries(ctx, eventID, persistence.EntryFilter{
		RoomIDs:                    []int64{roomID},
		IncludePreviousDateMatches: true,
	})
	if err != nil {
		return OccurrencePlan{}, mapRepoError(err)
	}

	return OccurrencePlan{Event: event, Rows: timeline.Build(entries, timeline.RoomWindow(roomID))}, nil
}

// CategoryPlan builds the timeline of the category's entries.
func (s *PlanService) CategoryPlan(ctx context.Context, token auth.AuthToken, eventID, categoryID int64) (OccurrencePlan, error) {
	event, _, err := s.eventClock(ctx, token, eventID)
	if err != nil {
		return OccurrencePlan{}, err
	}

	entries, err := s.entries.ListEntries(ctx, eventID, persistence.EntryFilter{
		CategoryIDs:                []int64{categoryID},
		IncludePreviousDateMatches: true,
	})
	if err != nil {
		return OccurrencePlan{}, mapRepoError(err)
	}

	return OccurrencePlan{Event: event, Rows: timeline.Build(entries, timeline.CategoryWindow(categoryID))}, nil
}

// UpcomingEntries returns the event's entries that have not ended yet,
// ordered by begin time. It feeds the calendar feed export.
func (s *PlanService) UpcomingEntries(ctx context.Context, token auth.AuthToken, eventID int64) (persistence.Event, []persistence.Entry, error) {
	event, _, err := s.eventClock(ctx, token, eventID)
	if err != nil {
		return persistence.Event{}, nil, err
	}

	now := s.now().UTC()
	entries, err := s.entries.ListEntries(ctx, eventID, persistence.EntryFilter{After: &now})
	if err != nil {
		return persistence.Event{}, nil, mapRepoError(err)
	}
	return event, entries, nil
}

func (s *PlanService) eventClock(ctx context.Context, token auth.AuthToken, eventID int64) (persistence.Event, calendar.ClockInfo, error) {
	if err := token.Check(eventID, auth.PrivilegeShowPlan); err != nil {
		return persistence.Event{}, calendar.ClockInfo{}, err
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return persistence.Event{}, calendar.ClockInfo{}, mapRepoError(err)
	}
	clock, err := event.ClockInfo()
	if err != nil {
		return persistence.Event{}, calendar.ClockInfo{}, fmt.Errorf("event %d: %w", eventID, err)
	}
	return event, clock, nil
}
