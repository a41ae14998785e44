package backend

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/htmlutil"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

const DefaultAnnouncementLimit = 5

// ListAnnouncements returns the newest announcements first.
func (svc *Service) ListAnnouncements(ctx context.Context, limit int) ([]*models.Announcement, error) {
	if limit <= 0 {
		limit = DefaultAnnouncementLimit
	}
	announcements := []*models.Announcement{}
	err := svc.db.NewSelect().
		Model(&announcements).
		Order("a.date DESC", "a.id DESC").
		Limit(limit).
		Scan(ctx)
	return announcements, errors.WithStack(err)
}

// CreateAnnouncement stores an announcement with its title and content
// reduced to plain text. A zero date means now.
func (svc *Service) CreateAnnouncement(ctx context.Context, announcement *models.Announcement) error {
	announcement.Title = strings.TrimSpace(htmlutil.StripTags(announcement.Title))
	announcement.Content = htmlutil.StripTags(announcement.Content)
	if announcement.Title == "" {
		return errcodes.ValidationError("Title is required.")
	}

	now := time.Now()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	if announcement.Date.IsZero() {
		announcement.Date = now
	}

	_, err := svc.db.NewInsert().
		Model(announcement).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}
