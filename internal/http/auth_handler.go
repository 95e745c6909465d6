package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
)

// AuthHandler serves the login and share-link endpoints.
type AuthHandler struct {
	auth      *application.AuthService
	maxAge    time.Duration
	responder responder
	logger    *slog.Logger
}

// NewAuthHandler wires the session endpoints. maxAge controls the session
// cookie lifetime and should match the token validity configured on the
// service.
func NewAuthHandler(auth *application.AuthService, maxAge time.Duration, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{auth: auth, maxAge: maxAge, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

type loginRequest struct {
	Passphrase string `json:"passphrase"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates a passphrase for the event. An existing session sent
// with the request is extended; the new token is returned both as JSON and as
// the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, eventID int64) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	token, err := h.auth.Login(r.Context(), extractToken(r), eventID, req.Passphrase)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, token, h.maxAge)
	w.Header().Set(sessionTokenHeader, token)
	h.log(r.Context(), "Login", "event_id", eventID).InfoContext(r.Context(), "login succeeded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, loginResponse{Token: token})
}

type shareLinkResponse struct {
	Token   string `json:"token"`
	FeedURL string `json:"feed_url"`
}

// ShareLink mints a reduced view-only token for the event. The returned token
// grants plan access without any management privileges and is suitable for
// calendar feed URLs.
func (h *AuthHandler) ShareLink(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.ShareToken(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "ShareLink", "event_id", eventID).InfoContext(r.Context(), "share token issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, shareLinkResponse{
		Token:   token,
		FeedURL: feedPath(eventID, token),
	})
}
