package application

import (
	"context"
	"log/slog"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// FeedData carries everything the calendar feed renderer needs.
type FeedData struct {
	Event     persistence.Event
	Entries   []persistence.Entry
	RoomNames map[int64]string
}

// FeedService assembles the data for the iCalendar subscription feed.
type FeedService struct {
	plans  *PlanService
	rooms  persistence.RoomRepository
	logger *slog.Logger
}

// NewFeedService wires dependencies for the calendar feed.
func NewFeedService(plans *PlanService, rooms persistence.RoomRepository, logger *slog.Logger) *FeedService {
	return &FeedService{plans: plans, rooms: rooms, logger: defaultLogger(logger)}
}

// Feed collects the event's upcoming entries and the room names referenced by
// them. Access is gated on plan view permission, so a share token is
// sufficient to subscribe.
func (s *FeedService) Feed(ctx context.Context, token auth.AuthToken, eventID int64) (FeedData, error) {
	event, entries, err := s.plans.UpcomingEntries(ctx, token, eventID)
	if err != nil {
		return FeedData{}, err
	}

	rooms, err := s.rooms.ListRooms(ctx, eventID)
	if err != nil {
		return FeedData{}, mapRepoError(err)
	}
	roomNames := make(map[int64]string, len(rooms))
	for _, room := range rooms {
		roomNames[room.ID] = room.Name
	}

	serviceLogger(ctx, s.logger, "FeedService", "Feed", "event_id", eventID).
		DebugContext(ctx, "feed data collected", "entries", len(entries))
	return FeedData{Event: event, Entries: entries, RoomNames: roomNames}, nil
}
