// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the BasketItem
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - Deleting rows that do not exist is not an error; the basket delete
//     operations are idempotent by design (a row may have been removed by
//     the user while a purchase was in flight).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// AddBasketItem inserts a new basket row for userID with the given proxy
// attributes. CreatedAt is set to UTC. On success, it returns the persisted
// row.
func AddBasketItem(ctx context.Context, db *gorm.DB, userID int64, version int, proxyType, country string, count, period int) (*domain.BasketItem, error) {
	it := &domain.BasketItem{
		UserID:    userID,
		Version:   version,
		Type:      proxyType,
		Country:   country,
		Count:     count,
		Period:    period,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

// ListBasketItems returns all basket rows belonging to userID, ordered by
// creation time ascending (insertion order, so grouping output is stable).
// It returns an empty slice if the basket is empty.
func ListBasketItems(ctx context.Context, db *gorm.DB, userID int64) ([]domain.BasketItem, error) {
	var out []domain.BasketItem
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// DeleteBasketItems removes the given basket rows, constrained to userID so
// one user cannot delete another's rows. Missing ids are ignored.
func DeleteBasketItems(ctx context.Context, db *gorm.DB, userID int64, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&domain.BasketItem{}).Error
}

// DeleteUserBasket removes every basket row owned by userID.
func DeleteUserBasket(ctx context.Context, db *gorm.DB, userID int64) error {
	return db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.BasketItem{}).Error
}
