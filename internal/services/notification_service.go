package services

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/repository"
)

const defaultNotificationLimit = 50

// NotificationService is the in-app notification sink. Lifecycle transitions
// write through Notify; the HTTP surface reads and marks.
type NotificationService struct {
	notifications *repository.NotificationRepository
}

func NewNotificationService(notifications *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) Notify(ctx context.Context, input repository.CreateNotificationInput) error {
	_, err := s.notifications.Create(ctx, input)
	return err
}

func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListForUser(ctx, userID, unreadOnly, defaultNotificationLimit)
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID int64) error {
	updated, err := s.notifications.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !updated {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notifications.MarkAllRead(ctx, userID)
}
