// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Offer model.
//
// The central operation is UpsertOffer: offers are unique per
// (product_id, vendor_id), and a refresh overwrites the mutable listing
// fields in place. Each upsert is a complete write of one row, so interleaved
// writes from concurrent provider adapters are safe without a
// read-modify-write transaction.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dealradar/offers-backend/internal/domain"
)

// UpsertOffer inserts an offer or, when a row for (product_id, vendor_id)
// already exists, overwrites its price, shipping, ETA, stock flag, URL, and
// title. The vendor identity of an existing row is never changed.
func UpsertOffer(ctx context.Context, db *gorm.DB, o *domain.Offer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "vendor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"vendor_name", "title", "price_cents", "shipping_cents",
				"eta_days", "in_stock", "product_url", "updated_at",
			}),
		}).
		Create(o).Error
}

// ListOffers returns all offers for a product, in stable creation order.
func ListOffers(ctx context.Context, db *gorm.DB, productID string) ([]domain.Offer, error) {
	var out []domain.Offer
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// ListInStockOffers returns the in-stock offers for a product, in stable
// creation order. This is the working set of the ranking policy.
func ListInStockOffers(ctx context.Context, db *gorm.DB, productID string) ([]domain.Offer, error) {
	var out []domain.Offer
	err := db.WithContext(ctx).
		Where("product_id = ? AND in_stock = ?", productID, true).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// ListAllOffers returns every stored offer. Used by the price-drift tick,
// which perturbs the whole table in one pass.
func ListAllOffers(ctx context.Context, db *gorm.DB) ([]domain.Offer, error) {
	var out []domain.Offer
	err := db.WithContext(ctx).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// UpdateOfferDrift persists the mutated price and ETA of one offer during a
// simulation tick. Returns ErrNotFound when the offer no longer exists.
func UpdateOfferDrift(ctx context.Context, db *gorm.DB, id string, priceCents int64, etaDays int) error {
	res := db.WithContext(ctx).
		Model(&domain.Offer{}).
		Where("id = ?", id).
		Updates(map[string]any{"price_cents": priceCents, "eta_days": etaDays})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountOffers returns the number of in-stock offers stored for a product.
func CountOffers(ctx context.Context, db *gorm.DB, productID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Offer{}).
		Where("product_id = ? AND in_stock = ?", productID, true).
		Count(&total).Error
	return total, err
}
