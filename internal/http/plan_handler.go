package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/feed"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
	"github.com/mhthies/online-kueaplan-sub000/internal/timeline"
)

// PlanHandler serves the read-only plan views and the calendar feed.
type PlanHandler struct {
	auth      *application.AuthService
	plans     *application.PlanService
	feeds     *application.FeedService
	now       func() time.Time
	responder responder
}

// NewPlanHandler wires the plan view endpoints. The now function is
// injectable for tests; nil means time.Now.
func NewPlanHandler(auth *application.AuthService, plans *application.PlanService, feeds *application.FeedService, now func() time.Time, logger *slog.Logger) *PlanHandler {
	if now == nil {
		now = time.Now
	}
	return &PlanHandler{auth: auth, plans: plans, feeds: feeds, now: now, responder: newResponder(logger)}
}

// Event returns the event's master data for any session with plan access.
func (h *PlanHandler) Event(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	event, err := h.plans.GetEvent(r.Context(), token, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

// Day serves the consolidated day view. The date query parameter selects the
// effective date; without it the most reasonable date for the event is shown.
func (h *PlanHandler) Day(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var date *calendar.Date
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := calendar.ParseDate(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		date = &parsed
	}

	plan, err := h.plans.DayPlan(r.Context(), token, eventID, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayPlanDTO(plan))
}

// Room serves the per-room timeline.
func (h *PlanHandler) Room(w http.ResponseWriter, r *http.Request, eventID, roomID int64) {
	h.occurrencePlan(w, r, eventID, func(token auth.AuthToken) (application.OccurrencePlan, error) {
		return h.plans.RoomPlan(r.Context(), token, eventID, roomID)
	})
}

// Category serves the per-category timeline.
func (h *PlanHandler) Category(w http.ResponseWriter, r *http.Request, eventID, categoryID int64) {
	h.occurrencePlan(w, r, eventID, func(token auth.AuthToken) (application.OccurrencePlan, error) {
		return h.plans.CategoryPlan(r.Context(), token, eventID, categoryID)
	})
}

func (h *PlanHandler) occurrencePlan(w http.ResponseWriter, r *http.Request, eventID int64, build func(auth.AuthToken) (application.OccurrencePlan, error)) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	plan, err := build(token)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, occurrencePlanDTO{
		Event: toEventDTO(plan.Event),
		Rows:  toRowDTOs(plan.Rows),
	})
}

// Feed serves the iCalendar subscription feed. The token usually arrives via
// the query string since feed readers cannot set headers or cookies.
func (h *PlanHandler) Feed(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	data, err := h.feeds.Feed(r.Context(), token, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, feed.Render(data.Event, data.Entries, data.RoomNames, h.now())); err != nil {
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to write feed", "error", err)
	}
}

func feedPath(eventID int64, token string) string {
	return fmt.Sprintf("/events/%d/feed?token=%s", eventID, url.QueryEscape(token))
}

type eventDTO struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	FirstDay            string `json:"first_day"`
	LastDay             string `json:"last_day"`
	Timezone            string `json:"timezone"`
	EffectiveBeginOfDay string `json:"effective_begin_of_day"`
}

func toEventDTO(event persistence.Event) eventDTO {
	return eventDTO{
		ID:                  event.ID,
		Name:                event.Name,
		FirstDay:            event.FirstDay.String(),
		LastDay:             event.LastDay.String(),
		Timezone:            event.Timezone,
		EffectiveBeginOfDay: event.EffectiveBeginOfDay.String(),
	}
}

type dayPlanDTO struct {
	Event         eventDTO          `json:"event"`
	Date          string            `json:"date"`
	Blocks        []blockDTO        `json:"blocks"`
	Announcements []announcementDTO `json:"announcements,omitempty"`
}

type blockDTO struct {
	Label string   `json:"label"`
	Rows  []rowDTO `json:"rows"`
}

type rowDTO struct {
	EntryID       int64         `json:"entry_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	CategoryID    int64         `json:"category_id"`
	RoomIDs       []int64       `json:"room_ids,omitempty"`
	Cancelled     bool          `json:"cancelled,omitempty"`
	CurrentTime   bool          `json:"current_time"`
	Times         []timeSpanDTO `json:"times"`
	PreviousDates int           `json:"previous_dates,omitempty"`
}

type timeSpanDTO struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

func toDayPlanDTO(plan application.DayPlan) dayPlanDTO {
	blocks := make([]blockDTO, 0, len(plan.Blocks))
	for _, block := range plan.Blocks {
		blocks = append(blocks, blockDTO{Label: block.Label, Rows: toRowDTOs(block.Rows)})
	}
	return dayPlanDTO{
		Event:         toEventDTO(plan.Event),
		Date:          plan.Date.String(),
		Blocks:        blocks,
		Announcements: toAnnouncementDTOs(plan.Announcements),
	}
}

func toRowDTOs(rows []timeline.Row) []rowDTO {
	out := make([]rowDTO, 0, len(rows))
	for _, row := range rows {
		times := row.Times()
		spans := make([]timeSpanDTO, 0, len(times))
		for _, span := range times {
			spans = append(spans, timeSpanDTO{
				Begin: span.Begin.UTC().Format(time.RFC3339),
				End:   span.End.UTC().Format(time.RFC3339),
			})
		}
		out = append(out, rowDTO{
			EntryID:       row.Entry.ID,
			Title:         row.Entry.Title,
			Description:   row.Entry.Description,
			CategoryID:    row.Entry.CategoryID,
			RoomIDs:       row.RoomIDs,
			Cancelled:     row.Entry.Cancelled,
			CurrentTime:   row.IncludesEntry,
			Times:         spans,
			PreviousDates: len(row.PreviousDates),
		})
	}
	return out
}

type occurrencePlanDTO struct {
	Event eventDTO `json:"event"`
	Rows  []rowDTO `json:"rows"`
}

type announcementDTO struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Pinned    bool   `json:"pinned,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toAnnouncementDTOs(announcements []persistence.Announcement) []announcementDTO {
	if len(announcements) == 0 {
		return nil
	}
	out := make([]announcementDTO, 0, len(announcements))
	for _, announcement := range announcements {
		out = append(out, announcementDTO{
			ID:        announcement.ID,
			Message:   announcement.Message,
			Pinned:    announcement.Pinned,
			CreatedAt: announcement.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
