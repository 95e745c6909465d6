package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// AnnouncementHandler serves announcement management.
type AnnouncementHandler struct {
	auth          *application.AuthService
	announcements *application.AnnouncementService
	responder     responder
}

// NewAnnouncementHandler wires the announcement endpoints.
func NewAnnouncementHandler(auth *application.AuthService, announcements *application.AnnouncementService, logger *slog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{auth: auth, announcements: announcements, responder: newResponder(logger)}
}

type announcementRequest struct {
	Message string `json:"message"`
	Pinned  bool   `json:"pinned"`
}

// Create publishes an announcement above the plan views.
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req announcementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	announcement, err := h.announcements.CreateAnnouncement(r.Context(), token, eventID, req.Message, req.Pinned)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	dtos := toAnnouncementDTOs([]persistence.Announcement{announcement})
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, dtos[0])
}

// Delete removes an announcement.
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request, eventID, announcementID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err := h.announcements.DeleteAnnouncement(r.Context(), token, eventID, announcementID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
