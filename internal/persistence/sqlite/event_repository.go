package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/calendar"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// EventRepository implements persistence.EventRepository on SQLite.
type EventRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool, now: time.Now}
}

// CreateEvent inserts a new event and returns it with the assigned ID.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) (persistence.Event, error) {
	now := r.now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO events (name, first_day, last_day, timezone, effective_begin_of_day, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.Name,
		event.FirstDay.String(),
		event.LastDay.String(),
		event.Timezone,
		event.EffectiveBeginOfDay.String(),
		toMillis(event.CreatedAt),
		toMillis(event.UpdatedAt),
	)
	if err != nil {
		return persistence.Event{}, mapError(err)
	}

	event.ID, err = result.LastInsertId()
	if err != nil {
		return persistence.Event{}, fmt.Errorf("sqlite: last insert id: %w", err)
	}
	return event, nil
}

// UpdateEvent updates an existing event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	event.UpdatedAt = r.now().UTC()

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE events
		SET name = ?, first_day = ?, last_day = ?, timezone = ?, effective_begin_of_day = ?, updated_at = ?
		WHERE id = ?`,
		event.Name,
		event.FirstDay.String(),
		event.LastDay.String(),
		event.Timezone,
		event.EffectiveBeginOfDay.String(),
		toMillis(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id int64) (persistence.Event, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, name, first_day, last_day, timezone, effective_begin_of_day, created_at, updated_at
		FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

// ListEvents returns all events ordered by first day.
func (r *EventRepository) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, name, first_day, last_day, timezone, effective_begin_of_day, created_at, updated_at
		FROM events ORDER BY first_day ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var firstDay, lastDay, beginOfDay string
	var createdAt, updatedAt int64

	err := row.Scan(&event.ID, &event.Name, &firstDay, &lastDay, &event.Timezone, &beginOfDay, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Event{}, persistence.ErrNotFound
		}
		return persistence.Event{}, mapError(err)
	}

	if event.FirstDay, err = calendar.ParseDate(firstDay); err != nil {
		return persistence.Event{}, fmt.Errorf("sqlite: event %d: %w", event.ID, err)
	}
	if event.LastDay, err = calendar.ParseDate(lastDay); err != nil {
		return persistence.Event{}, fmt.Errorf("sqlite: event %d: %w", event.ID, err)
	}
	if event.EffectiveBeginOfDay, err = calendar.ParseTimeOfDay(beginOfDay); err != nil {
		return persistence.Event{}, fmt.Errorf("sqlite: event %d: %w", event.ID, err)
	}
	event.CreatedAt = fromMillis(createdAt)
	event.UpdatedAt = fromMillis(updatedAt)
	return event, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
