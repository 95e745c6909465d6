package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// PassphraseHandler serves access credential management.
type PassphraseHandler struct {
	auth        *application.AuthService
	passphrases *application.PassphraseService
	responder   responder
}

// NewPassphraseHandler wires the passphrase management endpoints.
func NewPassphraseHandler(auth *application.AuthService, passphrases *application.PassphraseService, logger *slog.Logger) *PassphraseHandler {
	return &PassphraseHandler{auth: auth, passphrases: passphrases, responder: newResponder(logger)}
}

type passphraseRequest struct {
	Role          string  `json:"role"`
	Secret        *string `json:"secret"`
	ValidFrom     string  `json:"valid_from"`
	ValidUntil    string  `json:"valid_until"`
	DerivableFrom *int32  `json:"derivable_from"`
	Comment       string  `json:"comment"`
}

func (r passphraseRequest) toInput() application.PassphraseInput {
	// An unknown role name leaves RoleUnspecified; the service's validation
	// reports it as a field error.
	role, _ := auth.ParseRole(r.Role)
	input := application.PassphraseInput{
		Role:          role,
		Secret:        r.Secret,
		DerivableFrom: r.DerivableFrom,
		Comment:       r.Comment,
	}
	if from := parseInstant(r.ValidFrom); !from.IsZero() {
		input.ValidFrom = &from
	}
	if until := parseInstant(r.ValidUntil); !until.IsZero() {
		input.ValidUntil = &until
	}
	return input
}

// List returns the event's credentials. Secrets are included: this endpoint
// is only reachable for administrators, who hand the secrets out.
func (h *PassphraseHandler) List(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	passphrases, err := h.passphrases.ListPassphrases(r.Context(), token, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]passphraseDTO, 0, len(passphrases))
	for _, passphrase := range passphrases {
		out = append(out, toPassphraseDTO(passphrase))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Create stores a new credential.
func (h *PassphraseHandler) Create(w http.ResponseWriter, r *http.Request, eventID int64) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req passphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	passphrase, err := h.passphrases.CreatePassphrase(r.Context(), token, eventID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toPassphraseDTO(passphrase))
}

// Delete revokes a credential.
func (h *PassphraseHandler) Delete(w http.ResponseWriter, r *http.Request, eventID int64, passphraseID int32) {
	token, err := h.auth.Session(r.Context(), extractToken(r), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err := h.passphrases.DeletePassphrase(r.Context(), token, eventID, passphraseID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type passphraseDTO struct {
	ID            int32   `json:"id"`
	Role          string  `json:"role"`
	Secret        *string `json:"secret,omitempty"`
	ValidFrom     string  `json:"valid_from,omitempty"`
	ValidUntil    string  `json:"valid_until,omitempty"`
	DerivableFrom *int32  `json:"derivable_from,omitempty"`
	Comment       string  `json:"comment,omitempty"`
}

func toPassphraseDTO(passphrase persistence.Passphrase) passphraseDTO {
	dto := passphraseDTO{
		ID:            passphrase.ID,
		Secret:        passphrase.Secret,
		DerivableFrom: passphrase.DerivableFrom,
		Comment:       passphrase.Comment,
	}
	if role, err := auth.RoleFromID(passphrase.RoleID); err == nil {
		dto.Role = role.String()
	}
	if passphrase.ValidFrom != nil {
		dto.ValidFrom = passphrase.ValidFrom.UTC().Format(time.RFC3339)
	}
	if passphrase.ValidUntil != nil {
		dto.ValidUntil = passphrase.ValidUntil.UTC().Format(time.RFC3339)
	}
	return dto
}
