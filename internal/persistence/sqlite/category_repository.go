package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// CategoryRepository implements persistence.CategoryRepository on SQLite.
type CategoryRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewCategoryRepository creates a new SQLite category repository.
func NewCategoryRepository(pool *ConnectionPool) *CategoryRepository {
	return &CategoryRepository{pool: pool, now: time.Now}
}

// CreateCategory inserts a new category and returns it with the assigned ID.
func (r *CategoryRepository) CreateCategory(ctx context.Context, category persistence.Category) (persistence.Category, error) {
	now := r.now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO categories (event_id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		category.EventID, category.Name, category.Color,
		toMillis(category.CreatedAt), toMillis(category.UpdatedAt),
	)
	if err != nil {
		return persistence.Category{}, mapError(err)
	}

	category.ID, err = result.LastInsertId()
	if err != nil {
		return persistence.Category{}, fmt.Errorf("sqlite: last insert id: %w", err)
	}
	return category, nil
}

// ListCategories returns the event's categories ordered by name.
func (r *CategoryRepository) ListCategories(ctx context.Context, eventID int64) ([]persistence.Category, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_id, name, color, created_at, updated_at
		FROM categories WHERE event_id = ? ORDER BY name ASC, id ASC`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var categories []persistence.Category
	for rows.Next() {
		var category persistence.Category
		var createdAt, updatedAt int64
		if err := rows.Scan(&category.ID, &category.EventID, &category.Name, &category.Color, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		category.CreatedAt = fromMillis(createdAt)
		category.UpdatedAt = fromMillis(updatedAt)
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// DeleteCategory removes a category by ID. Entries still referencing it make
// the delete fail with a foreign key violation.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}
