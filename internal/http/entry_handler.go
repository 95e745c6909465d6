package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/conflict"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// EntryHandler serves entry management for organizers.
type EntryHandler struct {
	auth      *application.AuthService
	entries   *application.EntryService
	responder responder
}

// NewEntryHandler wires the entry management endpoints.
func NewEntryHandler(auth *application.AuthService, entries *application.EntryService, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{auth: auth, entries: entries, responder: newResponder(logger)}
}

type entryRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CategoryID  int64   `json:"category_id"`
	RoomIDs     []int64 `json:"room_ids"`
	Begin       string  `json:"begin"`
	End         string  `json:"end"`
	Cancelled   bool    `json:"cancelled"`
	Exclusive   bool    `json:"exclusive"`
}

func (r entryRequest) toInput() application.EntryInput {
	return application.EntryInput{
		Title:       r.Title,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		RoomIDs:     append([]int64(nil), r.RoomIDs...),
		Begin:       parseInstant(r.Begin),
		End:         parseInstant(r.End),
		Cancelled:   r.Cancelled,
		Exclusive:   r.Exclusive,
	}
}

func parseInstant(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

// Create stores a new entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	entry, conflicts, err := h.entries.CreateEntry(r.Context(), token, eventID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEntryResponse(entry, conflicts))
}

// Get returns an entry for editing, including its schedule history.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request, eventID, entryID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	entry, err := h.entries.GetEntry(r.Context(), token, eventID, entryID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTO(entry))
}

// Update applies changes to an entry. Schedule changes are recorded as
// previous dates by the service.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request, eventID, entryID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	entry, conflicts, err := h.entries.UpdateEntry(r.Context(), token, eventID, entryID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryResponse(entry, conflicts))
}

// Delete removes an entry.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request, eventID, entryID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err := h.entries.DeleteEntry(r.Context(), token, eventID, entryID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type entryDTO struct {
	ID            int64             `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	CategoryID    int64             `json:"category_id"`
	RoomIDs       []int64           `json:"room_ids,omitempty"`
	Begin         string            `json:"begin"`
	End           string            `json:"end"`
	Cancelled     bool              `json:"cancelled,omitempty"`
	Exclusive     bool              `json:"exclusive,omitempty"`
	PreviousDates []previousDateDTO `json:"previous_dates,omitempty"`
}

// entryResponse pairs the stored entry with scheduling conflict warnings.
// Writes succeed despite conflicts; clients decide how to surface them.
type entryResponse struct {
	Entry    entryDTO      `json:"entry"`
	Warnings []conflictDTO `json:"warnings,omitempty"`
}

type conflictDTO struct {
	WithEntryID int64  `json:"with_entry_id"`
	Type        string `json:"type"`
	RoomID      *int64 `json:"room_id,omitempty"`
}

type previousDateDTO struct {
	Begin   string  `json:"begin"`
	End     string  `json:"end"`
	RoomIDs []int64 `json:"room_ids,omitempty"`
	Comment string  `json:"comment,omitempty"`
}

func toEntryResponse(entry persistence.Entry, conflicts []conflict.Conflict) entryResponse {
	warnings := make([]conflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		warnings = append(warnings, conflictDTO{
			WithEntryID: c.WithEntryID,
			Type:        string(c.Type),
			RoomID:      c.RoomID,
		})
	}
	if len(warnings) == 0 {
		warnings = nil
	}
	return entryResponse{Entry: toEntryDTO(entry), Warnings: warnings}
}

func toEntryDTO(entry persistence.Entry) entryDTO {
	previous := make([]previousDateDTO, 0, len(entry.PreviousDates))
	for _, pd := range entry.PreviousDates {
		previous = append(previous, previousDateDTO{
			Begin:   pd.Begin.UTC().Format(time.RFC3339),
			End:     pd.End.UTC().Format(time.RFC3339),
			RoomIDs: pd.RoomIDs,
			Comment: pd.Comment,
		})
	}
	if len(previous) == 0 {
		previous = nil
	}
	return entryDTO{
		ID:            entry.ID,
		Title:         entry.Title,
		Description:   entry.Description,
		CategoryID:    entry.CategoryID,
		RoomIDs:       entry.RoomIDs,
		Begin:         entry.Begin.UTC().Format(time.RFC3339),
		End:           entry.End.UTC().Format(time.RFC3339),
		Cancelled:     entry.Cancelled,
		Exclusive:     entry.Exclusive,
		PreviousDates: previous,
	}
}
