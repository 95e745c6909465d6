package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
)

const adminSecretHeader = "X-Admin-Secret"

// EventHandler serves event creation and the configuration area: event
// details, categories and rooms.
type EventHandler struct {
	auth      *application.AuthService
	events    *application.EventService
	responder responder
	logger    *slog.Logger
}

// NewEventHandler wires the event configuration endpoints.
func NewEventHandler(auth *application.AuthService, events *application.EventService, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{auth: auth, events: events, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

type eventRequest struct {
	Name                string `json:"name"`
	FirstDay            string `json:"first_day"`
	LastDay             string `json:"last_day"`
	Timezone            string `json:"timezone"`
	EffectiveBeginOfDay string `json:"effective_begin_of_day"`
}

// toInput parses the request's date and time-of-day strings. Parse failures
// leave zero values; the service's validation reports them field by field.
func (r eventRequest) toInput() application.EventInput {
	input := application.EventInput{Name: r.Name, Timezone: r.Timezone}
	if first, err := calendar.ParseDate(r.FirstDay); err == nil {
		input.FirstDay = first
	}
	if last, err := calendar.ParseDate(r.LastDay); err == nil {
		input.LastDay = last
	}
	if tod, err := calendar.ParseTimeOfDay(r.EffectiveBeginOfDay); err == nil {
		input.EffectiveBeginOfDay = tod
	}
	return input
}

// Create creates a new event instance. This endpoint is gated on the operator
// credential carried in the X-Admin-Secret header, not on a session token.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	token, err := h.auth.AuthorizeInstanceAdmin(r.Context(), r.Header.Get(adminSecretHeader), auth.PrivilegeCreateEvents)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), token, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create").InfoContext(r.Context(), "event created", "event_id", event.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(event))
}

// Update changes the event's name, span and clock settings.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Authorize(r.Context(), extractToken(r), eventID, auth.PrivilegeEditEventDetails)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.events.UpdateEventDetails(r.Context(), token, eventID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

type configOverviewDTO struct {
	Event      eventDTO      `json:"event"`
	Categories []categoryDTO `json:"categories"`
	Rooms      []roomDTO     `json:"rooms"`
}

type categoryDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type roomDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Config returns the configuration area overview.
func (h *EventHandler) Config(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	overview, err := h.events.ConfigOverview(r.Context(), token, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	categories := make([]categoryDTO, 0, len(overview.Categories))
	for _, category := range overview.Categories {
		categories = append(categories, categoryDTO{ID: category.ID, Name: category.Name, Color: category.Color})
	}
	rooms := make([]roomDTO, 0, len(overview.Rooms))
	for _, room := range overview.Rooms {
		rooms = append(rooms, roomDTO{ID: room.ID, Name: room.Name})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, configOverviewDTO{
		Event:      toEventDTO(overview.Event),
		Categories: categories,
		Rooms:      rooms,
	})
}

type namedResourceRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateCategory adds a programme category.
func (h *EventHandler) CreateCategory(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req namedResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	category, err := h.events.CreateCategory(r.Context(), token, eventID, req.Name, req.Color)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, categoryDTO{ID: category.ID, Name: category.Name, Color: category.Color})
}

// DeleteCategory removes a category that no entry references anymore.
func (h *EventHandler) DeleteCategory(w http.ResponseWriter, r *http.Request, eventID, categoryID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err := h.events.DeleteCategory(r.Context(), token, eventID, categoryID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CreateRoom adds a room.
func (h *EventHandler) CreateRoom(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req namedResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.events.CreateRoom(r.Context(), token, eventID, req.Name)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomDTO{ID: room.ID, Name: room.Name})
}

// DeleteRoom removes a room and clears it from all schedules.
func (h *EventHandler) DeleteRoom(w http.ResponseWriter, r *http.Request, eventID, roomID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err := h.events.DeleteRoom(r.Context(), token, eventID, roomID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
