package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// EventInput carries the editable details of an event.
type EventInput struct {
	Name                string
	FirstDay            calendar.Date
	LastDay             calendar.Date
	Timezone            string
	EffectiveBeginOfDay calendar.TimeOfDay
}

// ConfigOverview aggregates the data shown in the configuration area.
type ConfigOverview struct {
	Event      persistence.Event
	Categories []persistence.Category
	Rooms      []persistence.Room
}

// EventService implements event, category and room management.
type EventService struct {
	events     persistence.EventRepository
	categories persistence.CategoryRepository
	rooms      persistence.RoomRepository
	logger     *slog.Logger
}

// NewEventService wires dependencies for event configuration operations.
func NewEventService(events persistence.EventRepository, categories persistence.CategoryRepository, rooms persistence.RoomRepository, logger *slog.Logger) *EventService {
	return &EventService{
		events:     events,
		categories: categories,
		rooms:      rooms,
		logger:     defaultLogger(logger),
	}
}

func validateEventInput(input EventInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "must not be empty")
	}
	if input.LastDay.Before(input.FirstDay) {
		vErr.add("last_day", "must not precede first day")
	}
	if _, err := calendar.NewClockInfo(input.Timezone, input.EffectiveBeginOfDay); err != nil {
		vErr.add("timezone", "unknown IANA timezone")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// CreateEvent creates a new event instance. This is an instance-level
// operation gated on the operator credential.
func (s *EventService) CreateEvent(ctx context.Context, token auth.GlobalAuthToken, input EventInput) (persistence.Event, error) {
	if err := token.Check(auth.PrivilegeCreateEvents); err != nil {
		return persistence.Event{}, err
	}
	if err := validateEventInput(input); err != nil {
		return persistence.Event{}, err
	}

	event, err := s.events.CreateEvent(ctx, persistence.Event{
		Name:                strings.TrimSpace(input.Name),
		FirstDay:            input.FirstDay,
		LastDay:             input.LastDay,
		Timezone:            input.Timezone,
		EffectiveBeginOfDay: input.EffectiveBeginOfDay,
	})
	if err != nil {
		return persistence.Event{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "EventService", "CreateEvent").
		InfoContext(ctx, "event created", "event_id", event.ID, "name", event.Name)
	return event, nil
}

// UpdateEventDetails updates the event's name, span and clock settings.
func (s *EventService) UpdateEventDetails(ctx context.Context, token auth.AuthToken, eventID int64, input EventInput) (persistence.Event, error) {
	if err := token.Check(eventID, auth.PrivilegeEditEventDetails); err != nil {
		return persistence.Event{}, err
	}
	if err := validateEventInput(input); err != nil {
		return persistence.Event{}, err
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return persistence.Event{}, mapRepoError(err)
	}
	event.Name = strings.TrimSpace(input.Name)
	event.FirstDay = input.FirstDay
	event.LastDay = input.LastDay
	event.Timezone = input.Timezone
	event.EffectiveBeginOfDay = input.EffectiveBeginOfDay

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return persistence.Event{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "EventService", "UpdateEventDetails", "event_id", eventID).
		InfoContext(ctx, "event details updated")
	return event, nil
}

// ConfigOverview returns the configuration area data for the event.
func (s *EventService) ConfigOverview(ctx context.Context, token auth.AuthToken, eventID int64) (ConfigOverview, error) {
	if err := token.Check(eventID, auth.PrivilegeShowConfigArea); err != nil {
		return ConfigOverview{}, err
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return ConfigOverview{}, mapRepoError(err)
	}
	categories, err := s.categories.ListCategories(ctx, eventID)
	if err != nil {
		return ConfigOverview{}, mapRepoError(err)
	}
	rooms, err := s.rooms.ListRooms(ctx, eventID)
	if err != nil {
		return ConfigOverview{}, mapRepoError(err)
	}
	return ConfigOverview{Event: event, Categories: categories, Rooms: rooms}, nil
}

// CreateCategory adds a category to the event.
func (s *EventService) CreateCategory(ctx context.Context, token auth.AuthToken, eventID int64, name, color string) (persistence.Category, error) {
	if err := token.Check(eventID, auth.PrivilegeManageCategories); err != nil {
		return persistence.Category{}, err
	}
	if strings.TrimSpace(name) == "" {
		vErr := &ValidationError{}
		vErr.add("name", "must not be empty")
		return persistence.Category{}, vErr
	}

	category, err := s.categories.CreateCategory(ctx, persistence.Category{
		EventID: eventID,
		Name:    strings.TrimSpace(name),
		Color:   color,
	})
	if err != nil {
		return persistence.Category{}, mapRepoError(err)
	}
	return category, nil
}

// DeleteCategory removes a category. It fails when entries still reference
// it.
func (s *EventService) DeleteCategory(ctx context.Context, token auth.AuthToken, eventID, categoryID int64) error {
	if err := token.Check(eventID, auth.PrivilegeManageCategories); err != nil {
		return err
	}
	if err := s.requireCategory(ctx, eventID, categoryID); err != nil {
		return err
	}
	return mapRepoError(s.categories.DeleteCategory(ctx, categoryID))
}

// CreateRoom adds a room to the event.
func (s *EventService) CreateRoom(ctx context.Context, token auth.AuthToken, eventID int64, name string) (persistence.Room, error) {
	if err := token.Check(eventID, auth.PrivilegeManageRooms); err != nil {
		return persistence.Room{}, err
	}
	if strings.TrimSpace(name) == "" {
		vErr := &ValidationError{}
		vErr.add("name", "must not be empty")
		return persistence.Room{}, vErr
	}

	room, err := s.rooms.CreateRoom(ctx, persistence.Room{EventID: eventID, Name: strings.TrimSpace(name)})
	if err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	return room, nil
}

// DeleteRoom removes a room and clears it from all schedules.
func (s *EventService) DeleteRoom(ctx context.Context, token auth.AuthToken, eventID, roomID int64) error {
	if err := token.Check(eventID, auth.PrivilegeManageRooms); err != nil {
		return err
	}
	if err := s.requireRoom(ctx, eventID, roomID); err != nil {
		return err
	}
	return mapRepoError(s.rooms.DeleteRoom(ctx, roomID))
}

func (s *EventService) requireCategory(ctx context.Context, eventID, categoryID int64) error {
	categories, err := s.categories.ListCategories(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	for _, category := range categories {
		if category.ID == categoryID {
			return nil
		}
	}
	return ErrNotFound
}

func (s *EventService) requireRoom(ctx context.Context, eventID, roomID int64) error {
	rooms, err := s.rooms.ListRooms(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	for _, room := range rooms {
		if room.ID == roomID {
			return nil
		}
	}
	return ErrNotFound
}
