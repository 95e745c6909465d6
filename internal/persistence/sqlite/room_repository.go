package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository on SQLite.
type RoomRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, now: time.Now}
}

// CreateRoom inserts a new room and returns it with the assigned ID.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	now := r.now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO rooms (event_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		room.EventID, room.Name, toMillis(room.CreatedAt), toMillis(room.UpdatedAt),
	)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}

	room.ID, err = result.LastInsertId()
	if err != nil {
		return persistence.Room{}, fmt.Errorf("sqlite: last insert id: %w", err)
	}
	return room, nil
}

// ListRooms returns the event's rooms ordered by name.
func (r *RoomRepository) ListRooms(ctx context.Context, eventID int64) ([]persistence.Room, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_id, name, created_at, updated_at
		FROM rooms WHERE event_id = ? ORDER BY name ASC, id ASC`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		var room persistence.Room
		var createdAt, updatedAt int64
		if err := rows.Scan(&room.ID, &room.EventID, &room.Name, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		room.CreatedAt = fromMillis(createdAt)
		room.UpdatedAt = fromMillis(updatedAt)
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// DeleteRoom removes a room by ID and clears it from entry and previous-date
// room assignments.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id int64) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM entry_rooms WHERE room_id = ?", id); err != nil {
			return mapError(err)
		}
		if _, err := tx.Exec("DELETE FROM previous_date_rooms WHERE room_id = ?", id); err != nil {
			return mapError(err)
		}
		result, err := tx.Exec("DELETE FROM rooms WHERE id = ?", id)
		if err != nil {
			return mapError(err)
		}
		return requireRowAffected(result)
	})
}
