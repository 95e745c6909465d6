package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/conflict"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// EntryInput carries the editable fields of a calendar entry.
type EntryInput struct {
	Title       string
	Description string
	CategoryID  int64
	RoomIDs     []int64
	Begin       time.Time
	End         time.Time
	Cancelled   bool
	Exclusive   bool
}

// EntryService implements entry management for organizers.
type EntryService struct {
	entries persistence.EntryRepository
	logger  *slog.Logger
}

// NewEntryService wires dependencies for entry operations.
func NewEntryService(entries persistence.EntryRepository, logger *slog.Logger) *EntryService {
	return &EntryService{entries: entries, logger: defaultLogger(logger)}
}

func validateEntryInput(input EntryInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "must not be empty")
	}
	if input.CategoryID == 0 {
		vErr.add("category_id", "must be set")
	}
	if input.End.Before(input.Begin) {
		vErr.add("end", "must not precede begin")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// CreateEntry validates and stores a new entry. Scheduling conflicts with
// existing entries do not block the write and are reported as warnings.
func (s *EntryService) CreateEntry(ctx context.Context, token auth.AuthToken, eventID int64, input EntryInput) (persistence.Entry, []conflict.Conflict, error) {
	if err := token.Check(eventID, auth.PrivilegeManageEntries); err != nil {
		return persistence.Entry{}, nil, err
	}
	if err := validateEntryInput(input); err != nil {
		return persistence.Entry{}, nil, err
	}

	entry, err := s.entries.CreateEntry(ctx, persistence.Entry{
		EventID:     eventID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		CategoryID:  input.CategoryID,
		RoomIDs:     input.RoomIDs,
		Begin:       input.Begin.UTC(),
		End:         input.End.UTC(),
		Cancelled:   input.Cancelled,
		Exclusive:   input.Exclusive,
	})
	if err != nil {
		return persistence.Entry{}, nil, mapRepoError(err)
	}

	conflicts, err := s.detectConflicts(ctx, eventID, entry)
	if err != nil {
		return persistence.Entry{}, nil, err
	}

	serviceLogger(ctx, s.logger, "EntryService", "CreateEntry", "event_id", eventID).
		InfoContext(ctx, "entry created", "entry_id", entry.ID, "conflicts", len(conflicts))
	return entry, conflicts, nil
}

// UpdateEntry validates and applies changes to an entry. When the schedule
// (time or rooms) changes, the old schedule is retained as a previous date so
// plan views can show the move.
func (s *EntryService) UpdateEntry(ctx context.Context, token auth.AuthToken, eventID, entryID int64, input EntryInput) (persistence.Entry, []conflict.Conflict, error) {
	if err := token.Check(eventID, auth.PrivilegeManageEntries); err != nil {
		return persistence.Entry{}, nil, err
	}
	if err := validateEntryInput(input); err != nil {
		return persistence.Entry{}, nil, err
	}

	existing, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return persistence.Entry{}, nil, mapRepoError(err)
	}
	if existing.EventID != eventID {
		return persistence.Entry{}, nil, ErrNotFound
	}

	updated := existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.CategoryID = input.CategoryID
	updated.RoomIDs = input.RoomIDs
	updated.Begin = input.Begin.UTC()
	updated.End = input.End.UTC()
	updated.Cancelled = input.Cancelled
	updated.Exclusive = input.Exclusive

	if rescheduled(existing, updated) {
		updated.PreviousDates = append(updated.PreviousDates, persistence.PreviousDate{
			EntryID: existing.ID,
			Begin:   existing.Begin,
			End:     existing.End,
			RoomIDs: existing.RoomIDs,
		})
	}

	if err := s.entries.UpdateEntry(ctx, updated); err != nil {
		return persistence.Entry{}, nil, mapRepoError(err)
	}

	conflicts, err := s.detectConflicts(ctx, eventID, updated)
	if err != nil {
		return persistence.Entry{}, nil, err
	}

	serviceLogger(ctx, s.logger, "EntryService", "UpdateEntry", "event_id", eventID).
		InfoContext(ctx, "entry updated", "entry_id", entryID, "rescheduled", rescheduled(existing, updated), "conflicts", len(conflicts))
	stored, err := s.getOwned(ctx, eventID, entryID)
	if err != nil {
		return persistence.Entry{}, nil, err
	}
	return stored, conflicts, nil
}

// DeleteEntry removes an entry together with its schedule history.
func (s *EntryService) DeleteEntry(ctx context.Context, token auth.AuthToken, eventID, entryID int64) error {
	if err := token.Check(eventID, auth.PrivilegeManageEntries); err != nil {
		return err
	}
	if _, err := s.getOwned(ctx, eventID, entryID); err != nil {
		return err
	}
	if err := s.entries.DeleteEntry(ctx, entryID); err != nil {
		return mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "EntryService", "DeleteEntry", "event_id", eventID).
		InfoContext(ctx, "entry deleted", "entry_id", entryID)
	return nil
}

// GetEntry returns an entry for editing.
func (s *EntryService) GetEntry(ctx context.Context, token auth.AuthToken, eventID, entryID int64) (persistence.Entry, error) {
	if err := token.Check(eventID, auth.PrivilegeManageEntries); err != nil {
		return persistence.Entry{}, err
	}
	return s.getOwned(ctx, eventID, entryID)
}

// detectConflicts lists the entries sharing the candidate's time span and
// reports scheduling collisions. The filter bounds are inclusive at the edges,
// so back-to-back neighbours are fetched but rejected by the strict overlap
// check in the detector.
func (s *EntryService) detectConflicts(ctx context.Context, eventID int64, candidate persistence.Entry) ([]conflict.Conflict, error) {
	if candidate.Cancelled {
		return nil, nil
	}
	neighbours, err := s.entries.ListEntries(ctx, eventID, persistence.EntryFilter{
		After:  &candidate.Begin,
		Before: &candidate.End,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return conflict.Detect(neighbours, candidate), nil
}

// getOwned loads an entry and hides entries of other events behind not-found.
func (s *EntryService) getOwned(ctx context.Context, eventID, entryID int64) (persistence.Entry, error) {
	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return persistence.Entry{}, mapRepoError(err)
	}
	if entry.EventID != eventID {
		return persistence.Entry{}, ErrNotFound
	}
	return entry, nil
}

func rescheduled(before, after persistence.Entry) bool {
	if !before.Begin.Equal(after.Begin) || !before.End.Equal(after.End) {
		return true
	}
	if len(before.RoomIDs) != len(after.RoomIDs) {
		return true
	}
	rooms := make(map[int64]struct{}, len(before.RoomIDs))
	for _, id := range before.RoomIDs {
		rooms[id] = struct{}{}
	}
	for _, id := range after.RoomIDs {
		if _, ok := rooms[id]; !ok {
			return true
		}
	}
	return false
}
