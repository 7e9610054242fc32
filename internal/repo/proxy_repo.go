// Package repo – purchased proxy persistence.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

// AddProxies bulk-inserts purchased proxies for userID. The caller fills in
// credential and attribute fields; ownership and CreatedAt are stamped here.
// Called only after a successful provider purchase.
func AddProxies(ctx context.Context, db *gorm.DB, userID int64, proxies []domain.Proxy) error {
	if len(proxies) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range proxies {
		proxies[i].UserID = userID
		proxies[i].CreatedAt = now
	}
	return db.WithContext(ctx).Create(&proxies).Error
}

// ListProxies returns all proxies owned by userID, soonest-expiring first.
func ListProxies(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Proxy, error) {
	var out []domain.Proxy
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("expires_at asc").
		Find(&out).Error
	return out, err
}

// ListActiveProxies returns proxies owned by userID that have not expired
// at the given instant.
func ListActiveProxies(ctx context.Context, db *gorm.DB, userID int64, now time.Time) ([]domain.Proxy, error) {
	var out []domain.Proxy
	err := db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("expires_at asc").
		Find(&out).Error
	return out, err
}
