package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// EntryRepository implements persistence.EntryRepository on SQLite. The
// ListEntries query is generated from the same EntryFilter the in-memory
// store evaluates with Matches; the two backends are kept equivalent by a
// randomized comparison test.
type EntryRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewEntryRepository creates a new SQLite entry repository.
func NewEntryRepository(pool *ConnectionPool) *EntryRepository {
	return &EntryRepository{pool: pool, now: time.Now}
}

// CreateEntry inserts an entry together with its room assignments and
// previous dates and returns it with all assigned IDs.
func (r *EntryRepository) CreateEntry(ctx context.Context, entry persistence.Entry) (persistence.Entry, error) {
	now := r.now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO entries (event_id, title, description, category_id, begin_at, end_at, cancelled, exclusive, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.EventID, entry.Title, entry.Description, entry.CategoryID,
			toMillis(entry.Begin), toMillis(entry.End), entry.Cancelled, entry.Exclusive,
			toMillis(entry.CreatedAt), toMillis(entry.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}
		if entry.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("sqlite: last insert id: %w", err)
		}

		if err := insertEntryRooms(tx, entry.ID, entry.RoomIDs); err != nil {
			return err
		}
		return insertPreviousDates(tx, entry.ID, entry.PreviousDates, func(i int, id int64) {
			entry.PreviousDates[i].ID = id
			entry.PreviousDates[i].EntryID = entry.ID
		})
	})
	if err != nil {
		return persistence.Entry{}, err
	}
	return entry, nil
}

// UpdateEntry replaces the entry's scalar fields, room assignments and
// previous dates. EventID and CreatedAt are immutable.
func (r *EntryRepository) UpdateEntry(ctx context.Context, entry persistence.Entry) error {
	entry.UpdatedAt = r.now().UTC()

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE entries
			SET title = ?, description = ?, category_id = ?, begin_at = ?, end_at = ?, cancelled = ?, exclusive = ?, updated_at = ?
			WHERE id = ?`,
			entry.Title, entry.Description, entry.CategoryID,
			toMillis(entry.Begin), toMillis(entry.End), entry.Cancelled, entry.Exclusive,
			toMillis(entry.UpdatedAt), entry.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM entry_rooms WHERE entry_id = ?", entry.ID); err != nil {
			return mapError(err)
		}
		if err := insertEntryRooms(tx, entry.ID, entry.RoomIDs); err != nil {
			return err
		}

		// Previous dates cascade their room assignments.
		if _, err := tx.Exec("DELETE FROM previous_dates WHERE entry_id = ?", entry.ID); err != nil {
			return mapError(err)
		}
		return insertPreviousDates(tx, entry.ID, entry.PreviousDates, func(int, int64) {})
	})
}

// GetEntry retrieves an entry by ID including rooms and previous dates.
func (r *EntryRepository) GetEntry(ctx context.Context, id int64) (persistence.Entry, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, event_id, title, description, category_id, begin_at, end_at, cancelled, exclusive, created_at, updated_at
		FROM entries WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if err != nil {
		return persistence.Entry{}, err
	}

	entries := []persistence.Entry{entry}
	if err := r.attachRelations(ctx, entries); err != nil {
		return persistence.Entry{}, err
	}
	return entries[0], nil
}

// ListEntries returns the event's entries matching the filter, ordered by
// begin time.
func (r *EntryRepository) ListEntries(ctx context.Context, eventID int64, filter persistence.EntryFilter) ([]persistence.Entry, error) {
	where, args := filterWhere(eventID, filter)
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_id, title, description, category_id, begin_at, end_at, cancelled, exclusive, created_at, updated_at
		FROM entries e WHERE `+where+` ORDER BY e.begin_at ASC, e.id ASC`, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	if err := r.attachRelations(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteEntry removes an entry; rooms and previous dates cascade.
func (r *EntryRepository) DeleteEntry(ctx context.Context, id int64) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// filterWhere renders the WHERE clause for ListEntries. The entry qualifies
// when its current occurrence satisfies the span and room conditions, or,
// with IncludePreviousDateMatches, when one of its previous dates does. The
// category condition always applies at entry level.
func filterWhere(eventID int64, f persistence.EntryFilter) (string, []any) {
	where := []string{"e.event_id = ?"}
	args := []any{eventID}

	if len(f.CategoryIDs) > 0 {
		where = append(where, fmt.Sprintf("e.category_id IN (%s)", placeholders(len(f.CategoryIDs))))
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}

	entryCond, entryArgs := spanAndRoomsCondition(f, "e.begin_at", "e.end_at",
		"entry_rooms er WHERE er.entry_id = e.id", "er")
	if f.IncludePreviousDateMatches {
		pdCond, pdArgs := spanAndRoomsCondition(f, "pd.begin_at", "pd.end_at",
			"previous_date_rooms pr WHERE pr.previous_date_id = pd.id", "pr")
		where = append(where, fmt.Sprintf(
			"(%s OR EXISTS (SELECT 1 FROM previous_dates pd WHERE pd.entry_id = e.id AND %s))",
			entryCond, pdCond))
		args = append(args, entryArgs...)
		args = append(args, pdArgs...)
	} else {
		where = append(where, entryCond)
		args = append(args, entryArgs...)
	}

	return strings.Join(where, " AND "), args
}

// spanAndRoomsCondition renders the after/before/room sub-predicate shared
// between the current occurrence and previous dates, parameterised over the
// occurrence's time columns and room junction.
func spanAndRoomsCondition(f persistence.EntryFilter, beginCol, endCol, roomJoin, roomAlias string) (string, []any) {
	var conds []string
	var args []any

	if f.After != nil {
		conds = append(conds, endCol+" >= ?")
		args = append(args, toMillis(*f.After))
	}
	if f.Before != nil {
		conds = append(conds, beginCol+" < ?")
		args = append(args, toMillis(*f.Before))
	}

	if len(f.RoomIDs) > 0 || f.NoRoom {
		var roomConds []string
		if f.NoRoom {
			roomConds = append(roomConds, fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s)", roomJoin))
		}
		if len(f.RoomIDs) > 0 {
			roomConds = append(roomConds, fmt.Sprintf("EXISTS (SELECT 1 FROM %s AND %s.room_id IN (%s))",
				roomJoin, roomAlias, placeholders(len(f.RoomIDs))))
			for _, id := range f.RoomIDs {
				args = append(args, id)
			}
		}
		conds = append(conds, "("+strings.Join(roomConds, " OR ")+")")
	}

	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return "(" + strings.Join(conds, " AND ") + ")", args
}

func scanEntry(row rowScanner) (persistence.Entry, error) {
	var entry persistence.Entry
	var begin, end, createdAt, updatedAt int64

	err := row.Scan(&entry.ID, &entry.EventID, &entry.Title, &entry.Description, &entry.CategoryID,
		&begin, &end, &entry.Cancelled, &entry.Exclusive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Entry{}, persistence.ErrNotFound
		}
		return persistence.Entry{}, mapError(err)
	}

	entry.Begin = fromMillis(begin)
	entry.End = fromMillis(end)
	entry.CreatedAt = fromMillis(createdAt)
	entry.UpdatedAt = fromMillis(updatedAt)
	return entry, nil
}

// attachRelations batch-loads room assignments and previous dates for the
// given entries.
func (r *EntryRepository) attachRelations(ctx context.Context, entries []persistence.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	index := make(map[int64]*persistence.Entry, len(entries))
	ids := make([]any, 0, len(entries))
	for i := range entries {
		index[entries[i].ID] = &entries[i]
		ids = append(ids, entries[i].ID)
	}
	in := placeholders(len(ids))

	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT entry_id, room_id FROM entry_rooms WHERE entry_id IN ("+in+") ORDER BY room_id", ids...)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var entryID, roomID int64
		if err := rows.Scan(&entryID, &roomID); err != nil {
			return mapError(err)
		}
		index[entryID].RoomIDs = append(index[entryID].RoomIDs, roomID)
	}
	if err := rows.Err(); err != nil {
		return mapError(err)
	}

	pdRows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, entry_id, begin_at, end_at, comment
		FROM previous_dates WHERE entry_id IN (`+in+`) ORDER BY begin_at, id`, ids...)
	if err != nil {
		return mapError(err)
	}
	defer pdRows.Close()

	pdIndex := make(map[int64]*persistence.PreviousDate)
	var pdIDs []any
	for pdRows.Next() {
		var pd persistence.PreviousDate
		var begin, end int64
		if err := pdRows.Scan(&pd.ID, &pd.EntryID, &begin, &end, &pd.Comment); err != nil {
			return mapError(err)
		}
		pd.Begin = fromMillis(begin)
		pd.End = fromMillis(end)
		entry := index[pd.EntryID]
		entry.PreviousDates = append(entry.PreviousDates, pd)
		pdIndex[pd.ID] = &entry.PreviousDates[len(entry.PreviousDates)-1]
		pdIDs = append(pdIDs, pd.ID)
	}
	if err := pdRows.Err(); err != nil {
		return mapError(err)
	}
	if len(pdIDs) == 0 {
		return nil
	}

	pdRoomRows, err := r.pool.db.QueryContext(ctx,
		"SELECT previous_date_id, room_id FROM previous_date_rooms WHERE previous_date_id IN ("+
			placeholders(len(pdIDs))+") ORDER BY room_id", pdIDs...)
	if err != nil {
		return mapError(err)
	}
	defer pdRoomRows.Close()
	for pdRoomRows.Next() {
		var pdID, roomID int64
		if err := pdRoomRows.Scan(&pdID, &roomID); err != nil {
			return mapError(err)
		}
		pdIndex[pdID].RoomIDs = append(pdIndex[pdID].RoomIDs, roomID)
	}
	return pdRoomRows.Err()
}

func insertEntryRooms(tx *sql.Tx, entryID int64, roomIDs []int64) error {
	unique := make([]int64, 0, len(roomIDs))
	seen := make(map[int64]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	for _, roomID := range unique {
		if _, err := tx.Exec("INSERT INTO entry_rooms (entry_id, room_id) VALUES (?, ?)", entryID, roomID); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func insertPreviousDates(tx *sql.Tx, entryID int64, dates []persistence.PreviousDate, assigned func(i int, id int64)) error {
	for i, pd := range dates {
		result, err := tx.Exec(`
			INSERT INTO previous_dates (entry_id, begin_at, end_at, comment)
			VALUES (?, ?, ?, ?)`,
			entryID, toMillis(pd.Begin), toMillis(pd.End), pd.Comment)
		if err != nil {
			return mapError(err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: last insert id: %w", err)
		}
		assigned(i, id)

		for _, roomID := range pd.RoomIDs {
			if _, err := tx.Exec("INSERT INTO previous_date_rooms (previous_date_id, room_id) VALUES (?, ?)",
				id, roomID); err != nil {
				return mapError(err)
			}
		}
	}
	return nil
}
