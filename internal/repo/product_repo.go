// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a product is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealradar/offers-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetProduct fetches a single product by its ID. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is
// returned.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a new Product row with a generated UUID.
func CreateProduct(ctx context.Context, db *gorm.DB, title, brand string) (*domain.Product, error) {
	p := &domain.Product{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Brand:     strings.TrimSpace(brand),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// FindProductsByText returns products whose title or brand contains the query
// text (case-insensitive substring), capped at limit, ordered by creation
// time descending. An empty query returns no rows.
func FindProductsByText(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Product{}, nil
	}
	pattern := "%" + strings.ToLower(query) + "%"
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(brand) LIKE ?", pattern, pattern).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
