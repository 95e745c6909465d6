package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence/memory"
)

// repositories bundles the persistence interfaces the services depend on.
type repositories struct {
	events        persistence.EventRepository
	categories    persistence.CategoryRepository
	rooms         persistence.RoomRepository
	entries       persistence.EntryRepository
	passphrases   persistence.PassphraseRepository
	announcements persistence.AnnouncementRepository
}

// Harness wires the full application service stack over a storage backend
// with a controllable clock, for integration-style tests.
type Harness struct {
	Clock *Clock

	Auth          *application.AuthService
	Plans         *application.PlanService
	Feeds         *application.FeedService
	Events        *application.EventService
	Entries       *application.EntryService
	Passphrases   *application.PassphraseService
	Announcements *application.AnnouncementService

	repos repositories
}

type harnessConfig struct {
	clock         *Clock
	signingSecret string
	adminSecret   string
	sessionMaxAge time.Duration
}

// HarnessOption configures a Harness instance.
type HarnessOption func(*harnessConfig)

// WithHarnessClock overrides the clock used by the harness.
func WithHarnessClock(clock *Clock) HarnessOption {
	return func(cfg *harnessConfig) { cfg.clock = clock }
}

// WithSigningSecret overrides the session token signing secret.
func WithSigningSecret(secret string) HarnessOption {
	return func(cfg *harnessConfig) { cfg.signingSecret = secret }
}

// WithAdminSecret overrides the instance operator secret.
func WithAdminSecret(secret string) HarnessOption {
	return func(cfg *harnessConfig) { cfg.adminSecret = secret }
}

// WithSessionMaxAge overrides the session token lifetime.
func WithSessionMaxAge(maxAge time.Duration) HarnessOption {
	return func(cfg *harnessConfig) { cfg.sessionMaxAge = maxAge }
}

// NewHarness constructs a Harness backed by the in-memory store.
func NewHarness(tb testing.TB, opts ...HarnessOption) *Harness {
	tb.Helper()
	store := memory.NewStore()
	return newHarness(repositories{
		events:        store,
		categories:    store,
		rooms:         store,
		entries:       store,
		passphrases:   store,
		announcements: store,
	}, opts)
}

func newHarness(repos repositories, opts []HarnessOption) *Harness {
	cfg := harnessConfig{
		signingSecret: "fixture-signing-secret",
		adminSecret:   "fixture-admin-secret",
		sessionMaxAge: 14 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = NewClock(time.Time{})
	}
	now := cfg.clock.NowFunc()

	plans := application.NewPlanService(repos.events, repos.entries, repos.announcements, nil, now, nil)
	return &Harness{
		Clock:         cfg.clock,
		Auth:          application.NewAuthService(cfg.signingSecret, cfg.adminSecret, cfg.sessionMaxAge, repos.passphrases, now, nil),
		Plans:         plans,
		Feeds:         application.NewFeedService(plans, repos.rooms, nil),
		Events:        application.NewEventService(repos.events, repos.categories, repos.rooms, nil),
		Entries:       application.NewEntryService(repos.entries, nil),
		Passphrases:   application.NewPassphraseService(repos.passphrases, nil),
		Announcements: application.NewAnnouncementService(repos.announcements, nil),
		repos:         repos,
	}
}

// SeedEvent stores an event fixture directly in the backend.
func (h *Harness) SeedEvent(tb testing.TB, opts ...EventOption) persistence.Event {
	tb.Helper()
	event, err := h.repos.events.CreateEvent(context.Background(), NewEvent(opts...))
	if err != nil {
		tb.Fatalf("seed event: %v", err)
	}
	return event
}

// SeedCategory stores a category fixture directly in the backend.
func (h *Harness) SeedCategory(tb testing.TB, eventID int64, opts ...CategoryOption) persistence.Category {
	tb.Helper()
	category, err := h.repos.categories.CreateCategory(context.Background(), NewCategory(eventID, opts...))
	if err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return category
}

// SeedRoom stores a room fixture directly in the backend.
func (h *Harness) SeedRoom(tb testing.TB, eventID int64, opts ...RoomOption) persistence.Room {
	tb.Helper()
	room, err := h.repos.rooms.CreateRoom(context.Background(), NewRoom(eventID, opts...))
	if err != nil {
		tb.Fatalf("seed room: %v", err)
	}
	return room
}

// SeedEntry stores an entry fixture directly in the backend, bypassing the
// entry service's validation and history tracking.
func (h *Harness) SeedEntry(tb testing.TB, eventID, categoryID int64, opts ...EntryOption) persistence.Entry {
	tb.Helper()
	entry, err := h.repos.entries.CreateEntry(context.Background(), NewEntry(eventID, categoryID, opts...))
	if err != nil {
		tb.Fatalf("seed entry: %v", err)
	}
	return entry
}

// SeedPassphrase stores a passphrase fixture directly in the backend and
// returns it together with its secret.
func (h *Harness) SeedPassphrase(tb testing.TB, eventID int64, role auth.AccessRole, opts ...PassphraseOption) persistence.Passphrase {
	tb.Helper()
	passphrase, err := h.repos.passphrases.CreatePassphrase(context.Background(), NewPassphrase(eventID, role, opts...))
	if err != nil {
		tb.Fatalf("seed passphrase: %v", err)
	}
	return passphrase
}

// SeedAnnouncement stores an announcement fixture directly in the backend.
func (h *Harness) SeedAnnouncement(tb testing.TB, eventID int64, opts ...AnnouncementOption) persistence.Announcement {
	tb.Helper()
	announcement, err := h.repos.announcements.CreateAnnouncement(context.Background(), NewAnnouncement(eventID, opts...))
	if err != nil {
		tb.Fatalf("seed announcement: %v", err)
	}
	return announcement
}
