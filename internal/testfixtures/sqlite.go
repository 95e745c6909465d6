package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence/sqlite"
)

// NewSQLiteHarness constructs a Harness backed by a temporary SQLite database
// that is migrated automatically and closed when the test finishes.
func NewSQLiteHarness(tb testing.TB, opts ...HarnessOption) *Harness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "kueaplan.db")
	pool, err := sqlite.Open("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() {
		_ = pool.Close()
	})

	if err := pool.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return newHarness(repositories{
		events:        sqlite.NewEventRepository(pool),
		categories:    sqlite.NewCategoryRepository(pool),
		rooms:         sqlite.NewRoomRepository(pool),
		entries:       sqlite.NewEntryRepository(pool),
		passphrases:   sqlite.NewPassphraseRepository(pool),
		announcements: sqlite.NewAnnouncementRepository(pool),
	}, opts)
}
