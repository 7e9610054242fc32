// Package repo – spending ledger persistence.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

// AddSpending appends one ledger entry for userID. The amount is in minor
// currency units. Entries are written only alongside a successful purchase.
func AddSpending(ctx context.Context, db *gorm.DB, userID int64, amountMinor int64) (*domain.Spending, error) {
	s := &domain.Spending{
		UserID:      userID,
		AmountMinor: amountMinor,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// ListSpending returns the user's ledger entries, most recent first.
func ListSpending(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Spending, error) {
	var out []domain.Spending
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// SumSpending returns the total amount (minor units) userID has ever spent.
func SumSpending(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Spending{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&total).Error
	return total, err
}
