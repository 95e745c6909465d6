package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// PassphraseRepository implements persistence.PassphraseRepository on SQLite.
type PassphraseRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewPassphraseRepository creates a new SQLite passphrase repository.
func NewPassphraseRepository(pool *ConnectionPool) *PassphraseRepository {
	return &PassphraseRepository{pool: pool, now: time.Now}
}

const passphraseColumns = "id, event_id, role_id, secret, valid_from, valid_until, derivable_from, comment, created_at, updated_at"

// CreatePassphrase inserts a new passphrase and returns it with the assigned
// ID. The role_id check constraint rejects ids outside the role table.
func (r *PassphraseRepository) CreatePassphrase(ctx context.Context, passphrase persistence.Passphrase) (persistence.Passphrase, error) {
	now := r.now().UTC()
	passphrase.CreatedAt = now
	passphrase.UpdatedAt = now

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO passphrases (event_id, role_id, secret, valid_from, valid_until, derivable_from, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		passphrase.EventID,
		passphrase.RoleID,
		toNullString(passphrase.Secret),
		toNullMillis(passphrase.ValidFrom),
		toNullMillis(passphrase.ValidUntil),
		toNullInt32(passphrase.DerivableFrom),
		passphrase.Comment,
		toMillis(passphrase.CreatedAt),
		toMillis(passphrase.UpdatedAt),
	)
	if err != nil {
		return persistence.Passphrase{}, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Passphrase{}, fmt.Errorf("sqlite: last insert id: %w", err)
	}
	passphrase.ID = int32(id)
	return passphrase, nil
}

// ListPassphrases returns the event's passphrases ordered by ID.
func (r *PassphraseRepository) ListPassphrases(ctx context.Context, eventID int64) ([]persistence.Passphrase, error) {
	return r.queryPassphrases(ctx,
		"SELECT "+passphraseColumns+" FROM passphrases WHERE event_id = ? ORDER BY id ASC", eventID)
}

// FindBySecret looks up the passphrase with the given secret within the
// event. The boolean reports whether one exists.
func (r *PassphraseRepository) FindBySecret(ctx context.Context, eventID int64, secret string) (persistence.Passphrase, bool, error) {
	row := r.pool.db.QueryRowContext(ctx,
		"SELECT "+passphraseColumns+" FROM passphrases WHERE event_id = ? AND secret = ?", eventID, secret)

	passphrase, err := scanPassphrase(row)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Passphrase{}, false, nil
		}
		return persistence.Passphrase{}, false, err
	}
	return passphrase, true, nil
}

// FindByIDsAndEvent returns the passphrases with the given IDs that belong to
// the event. Unknown IDs are silently omitted.
func (r *PassphraseRepository) FindByIDsAndEvent(ctx context.Context, ids []int32, eventID int64) ([]persistence.Passphrase, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := []any{eventID}
	for _, id := range ids {
		args = append(args, id)
	}
	return r.queryPassphrases(ctx,
		"SELECT "+passphraseColumns+" FROM passphrases WHERE event_id = ? AND id IN ("+
			placeholders(len(ids))+") ORDER BY id ASC", args...)
}

// FindReachableIncludingDerivable returns the event's passphrases that are
// held directly or derivable in one step from a held one.
func (r *PassphraseRepository) FindReachableIncludingDerivable(ctx context.Context, ids []int32, eventID int64) ([]persistence.Passphrase, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in := placeholders(len(ids))
	args := []any{eventID}
	for _, id := range ids {
		args = append(args, id)
	}
	for _, id := range ids {
		args = append(args, id)
	}
	return r.queryPassphrases(ctx,
		"SELECT "+passphraseColumns+" FROM passphrases WHERE event_id = ? AND (id IN ("+in+
			") OR derivable_from IN ("+in+")) ORDER BY id ASC", args...)
}

// DeletePassphrase removes a passphrase by ID; derivable children cascade.
func (r *PassphraseRepository) DeletePassphrase(ctx context.Context, id int32) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM passphrases WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func (r *PassphraseRepository) queryPassphrases(ctx context.Context, query string, args ...any) ([]persistence.Passphrase, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var passphrases []persistence.Passphrase
	for rows.Next() {
		passphrase, err := scanPassphrase(rows)
		if err != nil {
			return nil, err
		}
		passphrases = append(passphrases, passphrase)
	}
	return passphrases, rows.Err()
}

func scanPassphrase(row rowScanner) (persistence.Passphrase, error) {
	var passphrase persistence.Passphrase
	var secret sql.NullString
	var validFrom, validUntil, derivableFrom sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&passphrase.ID, &passphrase.EventID, &passphrase.RoleID, &secret,
		&validFrom, &validUntil, &derivableFrom, &passphrase.Comment, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Passphrase{}, persistence.ErrNotFound
		}
		return persistence.Passphrase{}, mapError(err)
	}

	passphrase.Secret = fromNullString(secret)
	passphrase.ValidFrom = fromNullMillis(validFrom)
	passphrase.ValidUntil = fromNullMillis(validUntil)
	if derivableFrom.Valid {
		parent := int32(derivableFrom.Int64)
		passphrase.DerivableFrom = &parent
	}
	passphrase.CreatedAt = fromMillis(createdAt)
	passphrase.UpdatedAt = fromMillis(updatedAt)
	return passphrase, nil
}

func toNullInt32(v *int32) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
