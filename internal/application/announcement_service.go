package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence"
)

// AnnouncementService implements announcement management.
type AnnouncementService struct {
	announcements persistence.AnnouncementRepository
	logger        *slog.Logger
}

// NewAnnouncementService wires dependencies for announcement operations.
func NewAnnouncementService(announcements persistence.AnnouncementRepository, logger *slog.Logger) *AnnouncementService {
	return &AnnouncementService{announcements: announcements, logger: defaultLogger(logger)}
}

// CreateAnnouncement publishes a message above the event's plan views.
func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, token auth.AuthToken, eventID int64, message string, pinned bool) (persistence.Announcement, error) {
	if err := token.Check(eventID, auth.PrivilegeManageAnnouncements); err != nil {
		return persistence.Announcement{}, err
	}
	if strings.TrimSpace(message) == "" {
		vErr := &ValidationError{}
		vErr.add("message", "must not be empty")
		return persistence.Announcement{}, vErr
	}

	announcement, err := s.announcements.CreateAnnouncement(ctx, persistence.Announcement{
		EventID: eventID,
		Message: strings.TrimSpace(message),
		Pinned:  pinned,
	})
	if err != nil {
		return persistence.Announcement{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "AnnouncementService", "CreateAnnouncement", "event_id", eventID).
		InfoContext(ctx, "announcement created", "announcement_id", announcement.ID)
	return announcement, nil
}

// DeleteAnnouncement removes a message.
func (s *AnnouncementService) DeleteAnnouncement(ctx context.Context, token auth.AuthToken, eventID, announcementID int64) error {
	if err := token.Check(eventID, auth.PrivilegeManageAnnouncements); err != nil {
		return err
	}

	announcements, err := s.announcements.ListAnnouncements(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	owned := false
	for _, announcement := range announcements {
		if announcement.ID == announcementID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrNotFound
	}

	return mapRepoError(s.announcements.DeleteAnnouncement(ctx, announcementID))
}
