package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// PassphraseInput carries the fields of a new passphrase. Secret is nil for
// derivable passphrases, which are only reachable through their parent.
type PassphraseInput struct {
	Role          auth.AccessRole
	Secret        *string
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	DerivableFrom *int32
	Comment       string
}

// PassphraseService implements access credential management.
type PassphraseService struct {
	passphrases persistence.PassphraseRepository
	logger      *slog.Logger
}

// NewPassphraseService wires dependencies for passphrase operations.
func NewPassphraseService(passphrases persistence.PassphraseRepository, logger *slog.Logger) *PassphraseService {
	return &PassphraseService{passphrases: passphrases, logger: defaultLogger(logger)}
}

// CreatePassphrase stores a new access credential for the event.
func (s *PassphraseService) CreatePassphrase(ctx context.Context, token auth.AuthToken, eventID int64, input PassphraseInput) (persistence.Passphrase, error) {
	if err := token.Check(eventID, auth.PrivilegeManagePassphrases); err != nil {
		return persistence.Passphrase{}, err
	}

	vErr := &ValidationError{}
	if input.Role == auth.RoleUnspecified {
		vErr.add("role", "must be set")
	}
	if input.Secret == nil && input.DerivableFrom == nil {
		vErr.add("secret", "required unless the passphrase is derivable")
	}
	if input.Secret != nil && *input.Secret == "" {
		vErr.add("secret", "must not be empty")
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && !input.ValidFrom.Before(*input.ValidUntil) {
		vErr.add("valid_until", "must be after valid_from")
	}
	if vErr.HasErrors() {
		return persistence.Passphrase{}, vErr
	}

	passphrase, err := s.passphrases.CreatePassphrase(ctx, persistence.Passphrase{
		EventID:       eventID,
		RoleID:        input.Role.ID(),
		Secret:        input.Secret,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		DerivableFrom: input.DerivableFrom,
		Comment:       input.Comment,
	})
	if err != nil {
		return persistence.Passphrase{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "PassphraseService", "CreatePassphrase", "event_id", eventID).
		InfoContext(ctx, "passphrase created", "passphrase_id", passphrase.ID, "role", input.Role)
	return passphrase, nil
}

// ListPassphrases returns the event's credentials.
func (s *PassphraseService) ListPassphrases(ctx context.Context, token auth.AuthToken, eventID int64) ([]persistence.Passphrase, error) {
	if err := token.Check(eventID, auth.PrivilegeManagePassphrases); err != nil {
		return nil, err
	}
	passphrases, err := s.passphrases.ListPassphrases(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return passphrases, nil
}

// DeletePassphrase revokes a credential. Sessions holding its id lose the
// authorization on their next resolution; no token state is tracked.
func (s *PassphraseService) DeletePassphrase(ctx context.Context, token auth.AuthToken, eventID int64, passphraseID int32) error {
	if err := token.Check(eventID, auth.PrivilegeManagePassphrases); err != nil {
		return err
	}

	passphrases, err := s.passphrases.ListPassphrases(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	owned := false
	for _, passphrase := range passphrases {
		if passphrase.ID == passphraseID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrNotFound
	}

	if err := s.passphrases.DeletePassphrase(ctx, passphraseID); err != nil {
		return mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "PassphraseService", "DeletePassphrase", "event_id", eventID).
		InfoContext(ctx, "passphrase deleted", "passphrase_id", passphraseID)
	return nil
}
