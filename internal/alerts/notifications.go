// Package alerts – notification queue
//
// Pending notifications are append-only; the only mutation a client can make
// is acknowledging one, which sets its delivered timestamp. Rows are never
// deleted.
package alerts

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dealradar/offers-backend/internal/domain"
	"github.com/dealradar/offers-backend/internal/repo"
)

// Notifications returns the user's queued notifications, newest first,
// optionally restricted to undelivered ones.
func (s *Service) Notifications(ctx context.Context, userID string, undeliveredOnly bool) ([]domain.PendingNotification, error) {
	return repo.ListNotifications(ctx, s.DB, userID, undeliveredOnly)
}

// Acknowledge marks a notification as delivered for userID.
// Returns ErrNotificationNotFound when the row is missing or foreign.
func (s *Service) Acknowledge(ctx context.Context, userID, notificationID string) error {
	if err := repo.MarkNotificationDelivered(ctx, s.DB, notificationID, userID, s.now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
