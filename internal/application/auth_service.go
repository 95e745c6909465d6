package application

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// AuthService owns the session token lifecycle: login, authorization checks
// for event-scoped operations, shareable view links and the instance admin
// credential.
type AuthService struct {
	codec       *auth.TokenCodec
	resolver    *auth.Resolver
	maxAge      time.Duration
	adminSecret string
	logger      *slog.Logger
}

// NewAuthService wires the token codec and role resolver. adminSecret is the
// operator credential for instance-level operations; empty disables them. The
// now function is injectable for tests; nil means time.Now.
func NewAuthService(secret, adminSecret string, maxAge time.Duration, passphrases persistence.PassphraseRepository, now func() time.Time, logger *slog.Logger) *AuthService {
	logger = defaultLogger(logger)
	return &AuthService{
		codec:       auth.NewTokenCodec(secret, now),
		resolver:    auth.NewResolverWithLogger(NewPassphraseStore(passphrases), now, logger),
		maxAge:      maxAge,
		adminSecret: adminSecret,
		logger:      logger,
	}
}

// decode verifies a raw session token. Verification failures are wrapped so
// the transport layer can distinguish a broken credential from a permission
// problem.
func (s *AuthService) decode(raw string) (auth.SessionToken, error) {
	if raw == "" {
		return auth.SessionToken{}, auth.ErrNoToken
	}
	token, err := s.codec.Verify(raw, s.maxAge)
	if err != nil {
		return auth.SessionToken{}, &auth.InvalidTokenError{Err: err}
	}
	return token, nil
}

// Login authenticates a passphrase secret for the event and returns the
// re-signed session token. An existing valid session is extended with the new
// authorization; a missing, invalid or expired one starts a fresh session.
func (s *AuthService) Login(ctx context.Context, rawToken string, eventID int64, secret string) (string, error) {
	logger := serviceLogger(ctx, s.logger, "AuthService", "Login", "event_id", eventID)

	token, err := s.decode(rawToken)
	if err != nil {
		token = auth.SessionToken{}
	}

	if err := s.resolver.Authenticate(ctx, eventID, secret, &token); err != nil {
		return "", err
	}

	logger.InfoContext(ctx, "session token issued", "authorizations", len(token.PassphraseIDs))
	// Signing with a zero timestamp stamps the current instant, so each login
	// restarts the expiry window.
	return s.codec.Sign(auth.SessionToken{PassphraseIDs: token.PassphraseIDs}), nil
}

// Session resolves a raw token into the role set it grants for the event.
func (s *AuthService) Session(ctx context.Context, rawToken string, eventID int64) (auth.AuthToken, error) {
	token, err := s.decode(rawToken)
	if err != nil {
		return auth.AuthToken{}, err
	}
	return s.resolver.Resolve(ctx, token, eventID)
}

// Authorize resolves the raw token and requires the privilege for the event.
func (s *AuthService) Authorize(ctx context.Context, rawToken string, eventID int64, privilege auth.Privilege) (auth.AuthToken, error) {
	authToken, err := s.Session(ctx, rawToken, eventID)
	if err != nil {
		return auth.AuthToken{}, err
	}
	if err := authToken.Check(eventID, privilege); err != nil {
		return auth.AuthToken{}, err
	}
	return authToken, nil
}

// ShareToken mints a fresh, narrowly-scoped token granting plan view access
// to the event, suitable for embedding in a shareable link or calendar feed
// URL.
func (s *AuthService) ShareToken(ctx context.Context, rawToken string, eventID int64) (string, error) {
	token, err := s.decode(rawToken)
	if err != nil {
		return "", err
	}

	reduced, err := s.resolver.CreateReducedToken(ctx, token, eventID, auth.PrivilegeShowPlan)
	if err != nil {
		return "", err
	}
	return s.codec.Sign(reduced), nil
}

// AuthorizeInstanceAdmin checks the operator credential and returns the
// unscoped admin role set used for instance-level operations such as event
// creation.
func (s *AuthService) AuthorizeInstanceAdmin(ctx context.Context, secret string, privilege auth.Privilege) (auth.GlobalAuthToken, error) {
	logger := serviceLogger(ctx, s.logger, "AuthService", "AuthorizeInstanceAdmin")

	if s.adminSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminSecret)) != 1 {
		logger.InfoContext(ctx, "instance admin authentication rejected")
		return auth.GlobalAuthToken{}, &auth.AuthenticationFailedError{}
	}

	token := auth.GlobalAuthToken{Roles: auth.RoleAdmin.ImpliedRoles()}
	if err := token.Check(privilege); err != nil {
		return auth.GlobalAuthToken{}, err
	}
	return token, nil
}
