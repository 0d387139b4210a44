// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the WatchItem
// model.
//
// Watch items are unique per (user_id, product_id); UpsertWatchItem mirrors
// the offer upsert pattern so that repeated watch actions and shared-watchlist
// syncs converge on one row. The alert engine mutates only the baseline and
// notified-timestamp columns, through UpdateWatchBaseline.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dealradar/offers-backend/internal/domain"
)

// UpsertWatchItem inserts a watch item or overwrites the subscriber-editable
// fields of the existing (user_id, product_id) row: thresholds, shipping
// tracking, and the preferred-offer pin. Baselines are left to the alert
// engine.
func UpsertWatchItem(ctx context.Context, db *gorm.DB, w *domain.WatchItem) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	if w.PctDropThreshold <= 0 {
		w.PctDropThreshold = 15
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"pct_drop_threshold", "target_price_cents", "shipping_improvement_on",
				"preferred_offer_id", "preferred_vendor_id", "preferred_product_url",
				"updated_at",
			}),
		}).
		Create(w).Error
}

// GetWatchItem fetches a watch item by user and product.
// Returns ErrNotFound when absent.
func GetWatchItem(ctx context.Context, db *gorm.DB, userID, productID string) (*domain.WatchItem, error) {
	var w domain.WatchItem
	err := db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWatchItems returns all watch items belonging to userID, most recent
// first.
func ListWatchItems(ctx context.Context, db *gorm.DB, userID string) ([]domain.WatchItem, error) {
	var out []domain.WatchItem
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListAllWatchItems returns every stored watch item. Used by the alert engine,
// which evaluates the whole table each tick.
func ListAllWatchItems(ctx context.Context, db *gorm.DB) ([]domain.WatchItem, error) {
	var out []domain.WatchItem
	err := db.WithContext(ctx).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// DeleteWatchItem removes the (user_id, product_id) watch item.
// Returns ErrNotFound when no row was affected.
//
// The delete is hard: a soft-deleted row would keep holding the
// (user_id, product_id) unique index and block a later re-watch.
func DeleteWatchItem(ctx context.Context, db *gorm.DB, userID, productID string) error {
	res := db.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.WatchItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateWatchBaseline advances the last-seen baseline and notified timestamp
// of a watch item after an alert fired. Only the alert engine calls this.
func UpdateWatchBaseline(ctx context.Context, db *gorm.DB, id string, bestPriceCents int64, bestEtaDays int, notifiedAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.WatchItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_seen_best_price_cents": bestPriceCents,
			"last_seen_best_eta_days":    bestEtaDays,
			"last_notified_at":           notifiedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
