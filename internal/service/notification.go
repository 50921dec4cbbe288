package service

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/repository"
)

// NotificationService is the read side of the notification feed.
type NotificationService struct {
	repos *repository.Repos
}

func NewNotificationService(db *database.DB) *NotificationService {
	return &NotificationService{repos: repository.NewRepos(db)}
}

func (s *NotificationService) ListForUser(ctx context.Context, actor *model.Principal, limit int) ([]model.Notification, error) {
	if err := requireFamily(actor); err != nil {
		return nil, err
	}
	items, err := s.repos.Notifications.FindForUser(ctx, actor.FamilyID, actor.UserID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return items, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *model.Principal, notificationID string) error {
	if err := requireFamily(actor); err != nil {
		return err
	}
	marked, err := s.repos.Notifications.MarkRead(ctx, notificationID, actor.FamilyID, actor.UserID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !marked {
		return apperrors.NotFound("Notification")
	}
	return nil
}
