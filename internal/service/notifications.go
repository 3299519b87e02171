package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
)

// notificationPageLimit caps the inbox listing.
const notificationPageLimit = 50

type NotificationService struct {
	notifications repo.NotificationRepository
	log           *zerolog.Logger
}

func NewNotificationService(notifications repo.NotificationRepository, log *zerolog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, log: log}
}

func (s *NotificationService) ListMine(ctx context.Context, userID int64) (*dto.NotificationsPage, error) {
	items, err := s.notifications.ListByUser(ctx, userID, notificationPageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return &dto.NotificationsPage{Notifications: items, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	if err := s.ownedBy(ctx, userID, id); err != nil {
		return err
	}
	return s.notifications.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.ownedBy(ctx, userID, id); err != nil {
		return err
	}
	return s.notifications.Delete(ctx, id)
}

func (s *NotificationService) ownedBy(ctx context.Context, userID, id int64) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		// Hide other users' notifications entirely.
		return repo.ErrNotificationNotFound
	}
	return nil
}
