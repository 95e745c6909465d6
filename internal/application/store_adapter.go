package application

import (
	"context"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// passphraseStoreAdapter exposes the persistence repository to the auth
// resolver. It translates stored role ids into roles; an id outside the
// closed role table surfaces as ErrInvalidDataInStore.
type passphraseStoreAdapter struct {
	repo persistence.PassphraseRepository
}

// NewPassphraseStore wraps a passphrase repository as an auth.PassphraseStore.
func NewPassphraseStore(repo persistence.PassphraseRepository) auth.PassphraseStore {
	return &passphraseStoreAdapter{repo: repo}
}

func (a *passphraseStoreAdapter) FindBySecret(ctx context.Context, eventID int64, secret string) (auth.Passphrase, bool, error) {
	stored, found, err := a.repo.FindBySecret(ctx, eventID, secret)
	if err != nil || !found {
		return auth.Passphrase{}, false, err
	}
	passphrase, err := toAuthPassphrase(stored)
	if err != nil {
		return auth.Passphrase{}, false, err
	}
	return passphrase, true, nil
}

func (a *passphraseStoreAdapter) FindByIDsAndEvent(ctx context.Context, ids []int32, eventID int64) ([]auth.Passphrase, error) {
	stored, err := a.repo.FindByIDsAndEvent(ctx, ids, eventID)
	if err != nil {
		return nil, err
	}
	return toAuthPassphrases(stored)
}

func (a *passphraseStoreAdapter) FindReachableIncludingDerivable(ctx context.Context, ids []int32, eventID int64) ([]auth.Passphrase, error) {
	stored, err := a.repo.FindReachableIncludingDerivable(ctx, ids, eventID)
	if err != nil {
		return nil, err
	}
	return toAuthPassphrases(stored)
}

func toAuthPassphrase(stored persistence.Passphrase) (auth.Passphrase, error) {
	role, err := auth.RoleFromID(stored.RoleID)
	if err != nil {
		return auth.Passphrase{}, err
	}
	return auth.Passphrase{
		ID:            stored.ID,
		EventID:       stored.EventID,
		Role:          role,
		Secret:        stored.Secret,
		ValidFrom:     stored.ValidFrom,
		ValidUntil:    stored.ValidUntil,
		DerivableFrom: stored.DerivableFrom,
	}, nil
}

func toAuthPassphrases(stored []persistence.Passphrase) ([]auth.Passphrase, error) {
	passphrases := make([]auth.Passphrase, 0, len(stored))
	for _, p := range stored {
		passphrase, err := toAuthPassphrase(p)
		if err != nil {
			return nil, err
		}
		passphrases = append(passphrases, passphrase)
	}
	return passphrases, nil
}
