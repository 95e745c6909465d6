package auth

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/logging"
)

// Passphrase is the auth-layer view of a stored access credential. Secret is
// nil for synthetic derivable passphrases, which can only be reached through
// their parent.
type Passphrase struct {
	ID            int32
	EventID       int64
	Role          AccessRole
	Secret        *string
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	DerivableFrom *int32
}

// ValidAt reports whether t lies inside the passphrase validity window
// [ValidFrom, ValidUntil). Missing bounds are open.
func (p Passphrase) ValidAt(t time.Time) bool {
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && !t.Before(*p.ValidUntil) {
		return false
	}
	return true
}

// PassphraseStore is the external lookup collaborator for credentials.
// Implementations read a snapshot; concurrent passphrase edits may race with
// resolution, which is acceptable.
type PassphraseStore interface {
	// FindBySecret returns the passphrase registered for the event under the
	// given secret text, regardless of its validity window. The second result
	// reports whether a match exists.
	FindBySecret(ctx context.Context, eventID int64, secret string) (Passphrase, bool, error)

	// FindByIDsAndEvent returns the passphrases whose id is in ids and which
	// belong to the event.
	FindByIDsAndEvent(ctx context.Context, ids []int32, eventID int64) ([]Passphrase, error)

	// FindReachableIncludingDerivable returns the passphrases held directly
	// plus every derivable passphrase whose parent is held.
	FindReachableIncludingDerivable(ctx context.Context, ids []int32, eventID int64) ([]Passphrase, error)
}

// Resolver authenticates secrets against the passphrase store and resolves
// session tokens into implication-closed role sets.
type Resolver struct {
	store  PassphraseStore
	now    func() time.Time
	logger *slog.Logger
}

// NewResolver constructs a Resolver. The now function is injectable for
// tests; nil means time.Now.
func NewResolver(store PassphraseStore, now func() time.Time) *Resolver {
	return NewResolverWithLogger(store, now, nil)
}

// NewResolverWithLogger constructs a Resolver with a specified logger.
func NewResolverWithLogger(store PassphraseStore, now func() time.Time, logger *slog.Logger) *Resolver {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, now: now, logger: logger}
}

func (r *Resolver) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = r.logger
	}
	pairs := append([]any{"service", "Resolver", "operation", operation}, attrs...)
	return logger.With(pairs...)
}

// Authenticate looks up a passphrase matching the secret for the event and,
// if it is currently valid, appends its id to the session token. An unknown
// secret and a known-but-expired one are reported distinctly.
func (r *Resolver) Authenticate(ctx context.Context, eventID int64, secret string, token *SessionToken) error {
	logger := r.loggerWith(ctx, "Authenticate", "event_id", eventID)

	passphrase, found, err := r.store.FindBySecret(ctx, eventID, secret)
	if err != nil {
		logger.ErrorContext(ctx, "passphrase lookup failed", "error", err)
		return err
	}
	if !found {
		logger.InfoContext(ctx, "authentication rejected", "reason", "not_existing")
		return &AuthenticationFailedError{}
	}
	if !passphrase.ValidAt(r.now()) {
		logger.InfoContext(ctx, "authentication rejected", "reason", "not_valid", "passphrase_id", passphrase.ID)
		return &AuthenticationFailedError{Expired: true}
	}

	token.AddAuthorization(passphrase.ID)
	logger.InfoContext(ctx, "authentication succeeded", "passphrase_id", passphrase.ID, "role", passphrase.Role)
	return nil
}

// Resolve fetches the token's passphrases for the event, keeps the currently
// valid ones and returns their roles expanded under implication,
// deduplicated and sorted. An empty result is a permission failure.
func (r *Resolver) Resolve(ctx context.Context, token SessionToken, eventID int64) (AuthToken, error) {
	roles, err := r.resolveRoles(ctx, token, eventID)
	if err != nil {
		return AuthToken{}, err
	}
	if len(roles) == 0 {
		return AuthToken{}, &PermissionDeniedError{EventID: eventID}
	}
	return AuthToken{EventID: eventID, Roles: roles}, nil
}

func (r *Resolver) resolveRoles(ctx context.Context, token SessionToken, eventID int64) ([]AccessRole, error) {
	if len(token.PassphraseIDs) == 0 {
		return nil, nil
	}

	passphrases, err := r.store.FindByIDsAndEvent(ctx, token.PassphraseIDs, eventID)
	if err != nil {
		r.loggerWith(ctx, "Resolve", "event_id", eventID).ErrorContext(ctx, "passphrase lookup failed", "error", err)
		return nil, err
	}

	now := r.now()
	seen := make(map[AccessRole]struct{})
	roles := make([]AccessRole, 0, len(passphrases))
	for _, passphrase := range passphrases {
		if !passphrase.ValidAt(now) {
			continue
		}
		for _, role := range passphrase.Role.ImpliedRoles() {
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			roles = append(roles, role)
		}
	}

	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles, nil
}

// CreateReducedToken mints a brand-new single-id session token for a
// narrowly-scoped shareable credential. Candidates are the passphrases held
// directly by the original token plus derivable passphrases whose parent is
// held; among the currently valid candidates whose role satisfies the
// privilege, the lowest id is selected deterministically.
func (r *Resolver) CreateReducedToken(ctx context.Context, original SessionToken, eventID int64, privilege Privilege) (SessionToken, error) {
	logger := r.loggerWith(ctx, "CreateReducedToken", "event_id", eventID, "privilege", privilege)

	candidates, err := r.store.FindReachableIncludingDerivable(ctx, original.PassphraseIDs, eventID)
	if err != nil {
		logger.ErrorContext(ctx, "passphrase lookup failed", "error", err)
		return SessionToken{}, err
	}

	now := r.now()
	var selected *Passphrase
	for _, candidate := range candidates {
		if !candidate.ValidAt(now) {
			continue
		}
		if !rolesSatisfy(candidate.Role.ImpliedRoles(), privilege) {
			continue
		}
		if selected == nil || candidate.ID < selected.ID {
			match := candidate
			selected = &match
		}
	}

	if selected == nil {
		logger.InfoContext(ctx, "no reducible passphrase found")
		return SessionToken{}, &PermissionDeniedError{Privilege: privilege, EventID: eventID}
	}

	logger.InfoContext(ctx, "reduced token minted", "passphrase_id", selected.ID)
	return SessionToken{
		IssuedAt:      now.UTC().Truncate(time.Millisecond),
		PassphraseIDs: []int32{selected.ID},
	}, nil
}
