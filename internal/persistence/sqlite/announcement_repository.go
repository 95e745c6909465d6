package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// AnnouncementRepository implements persistence.AnnouncementRepository on SQLite.
type AnnouncementRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewAnnouncementRepository creates a new SQLite announcement repository.
func NewAnnouncementRepository(pool *ConnectionPool) *AnnouncementRepository {
	return &AnnouncementRepository{pool: pool, now: time.Now}
}

// CreateAnnouncement inserts a new announcement and returns it with the
// assigned ID.
func (r *AnnouncementRepository) CreateAnnouncement(ctx context.Context, announcement persistence.Announcement) (persistence.Announcement, error) {
	now := r.now().UTC()
	announcement.CreatedAt = now
	announcement.UpdatedAt = now

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO announcements (event_id, message, pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		announcement.EventID, announcement.Message, announcement.Pinned,
		toMillis(announcement.CreatedAt), toMillis(announcement.UpdatedAt),
	)
	if err != nil {
		return persistence.Announcement{}, mapError(err)
	}

	announcement.ID, err = result.LastInsertId()
	if err != nil {
		return persistence.Announcement{}, fmt.Errorf("sqlite: last insert id: %w", err)
	}
	return announcement, nil
}

// ListAnnouncements returns the event's announcements, pinned ones first,
// newest first within each group.
func (r *AnnouncementRepository) ListAnnouncements(ctx context.Context, eventID int64) ([]persistence.Announcement, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_id, message, pinned, created_at, updated_at
		FROM announcements WHERE event_id = ?
		ORDER BY pinned DESC, created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var announcements []persistence.Announcement
	for rows.Next() {
		var announcement persistence.Announcement
		var createdAt, updatedAt int64
		if err := rows.Scan(&announcement.ID, &announcement.EventID, &announcement.Message,
			&announcement.Pinned, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		announcement.CreatedAt = fromMillis(createdAt)
		announcement.UpdatedAt = fromMillis(updatedAt)
		announcements = append(announcements, announcement)
	}
	return announcements, rows.Err()
}

// DeleteAnnouncement removes an announcement by ID.
func (r *AnnouncementRepository) DeleteAnnouncement(ctx context.Context, id int64) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}
