package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migration is one schema change, applied exactly once and recorded in the
// schema_migrations table under its version number.
type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "initial schema",
		statements: []string{
			`CREATE TABLE events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				first_day TEXT NOT NULL,
				last_day TEXT NOT NULL,
				timezone TEXT NOT NULL,
				effective_begin_of_day TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			)`,
			`CREATE TABLE categories (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				color TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL,
				UNIQUE (event_id, name)
			)`,
			`CREATE TABLE rooms (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL,
				UNIQUE (event_id, name)
			)`,
			`CREATE TABLE entries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				category_id INTEGER NOT NULL REFERENCES categories(id),
				begin_at INTEGER NOT NULL,
				end_at INTEGER NOT NULL,
				cancelled INTEGER NOT NULL DEFAULT 0,
				exclusive INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL,
				CHECK (end_at >= begin_at)
			)`,
			`CREATE INDEX idx_entries_event_begin ON entries(event_id, begin_at)`,
			`CREATE TABLE entry_rooms (
				entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
				room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
				PRIMARY KEY (entry_id, room_id)
			)`,
			`CREATE TABLE previous_dates (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
				begin_at INTEGER NOT NULL,
				end_at INTEGER NOT NULL,
				comment TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX idx_previous_dates_entry ON previous_dates(entry_id)`,
			`CREATE TABLE previous_date_rooms (
				previous_date_id INTEGER NOT NULL REFERENCES previous_dates(id) ON DELETE CASCADE,
				room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
				PRIMARY KEY (previous_date_id, room_id)
			)`,
			`CREATE TABLE passphrases (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				role_id INTEGER NOT NULL CHECK (role_id BETWEEN 1 AND 4),
				secret TEXT,
				valid_from INTEGER,
				valid_until INTEGER,
				derivable_from INTEGER REFERENCES passphrases(id) ON DELETE CASCADE,
				comment TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			)`,
			`CREATE UNIQUE INDEX idx_passphrases_event_secret ON passphrases(event_id, secret) WHERE secret IS NOT NULL`,
			`CREATE TABLE announcements (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				message TEXT NOT NULL,
				pinned INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			)`,
		},
	},
}

// Migrate applies all pending schema migrations in version order. Each
// migration runs in its own transaction together with its version record, so
// a failure leaves the schema at the last completed version.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("sqlite: initialize version table: %w", err)
	}

	applied, err := cp.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := applied[m.version]; ok {
			continue
		}
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("sqlite: migration %d (%s): %w", m.version, m.description, err)
				}
			}
			_, err := tx.Exec("INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
				m.version, m.description, time.Now().UnixMilli())
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (cp *ConnectionPool) appliedVersions(ctx context.Context) (map[int]struct{}, error) {
	rows, err := cp.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]struct{})
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}
