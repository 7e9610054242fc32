// Package repo – price cache persistence.
//
// The cache is global (shared across users) and keyed by
// (version, count, period); a unique index enforces at most one row per key.
// Staleness is decided by the service layer via domain.PriceCache.Expired,
// not here.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

// GetPriceCache fetches the cached price row for the given key, or
// (nil, nil) when no row exists. The caller decides whether the row is
// still valid.
func GetPriceCache(ctx context.Context, db *gorm.DB, version, count, period int) (*domain.PriceCache, error) {
	var c domain.PriceCache
	err := db.WithContext(ctx).
		Where("version = ? AND count = ? AND period = ?", version, count, period).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertPriceCache stores a freshly computed price for the key, overwriting
// any previous (possibly expired) row. computedAt is supplied by the caller
// so the service layer can run on an injectable clock.
//
// The upsert is idempotent by key, so a cache-miss race between two users
// requesting the same parameters ends with one winner and no corruption.
func UpsertPriceCache(ctx context.Context, db *gorm.DB, version, count, period int, priceMajor float64, computedAt time.Time) error {
	row := domain.PriceCache{
		Version:    version,
		Count:      count,
		Period:     period,
		PriceMajor: priceMajor,
		ComputedAt: computedAt.UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "version"}, {Name: "count"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"price_major", "computed_at"}),
		}).
		Create(&row).Error
}
