// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PendingNotification model.
//
// Notifications are append-only: the only mutation is setting delivered_at
// when a client acknowledges a row. Rows are never deleted.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealradar/offers-backend/internal/domain"
)

// CreateNotification appends a pending notification for userID/productID.
// Payload is an opaque JSON document produced by the caller.
func CreateNotification(ctx context.Context, db *gorm.DB, userID, productID, typ, message, payload string) (*domain.PendingNotification, error) {
	n := &domain.PendingNotification{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Type:      typ,
		Message:   message,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns the notifications of a user, newest first.
// When undeliveredOnly is set, acknowledged rows are filtered out.
func ListNotifications(ctx context.Context, db *gorm.DB, userID string, undeliveredOnly bool) ([]domain.PendingNotification, error) {
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc")
	if undeliveredOnly {
		q = q.Where("delivered_at IS NULL")
	}
	var out []domain.PendingNotification
	err := q.Find(&out).Error
	return out, err
}

// MarkNotificationDelivered sets delivered_at on a notification owned by
// userID. Returns ErrNotFound when the row is missing or already owned by
// someone else.
func MarkNotificationDelivered(ctx context.Context, db *gorm.DB, id, userID string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.PendingNotification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("delivered_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
