package repo

import (
	"context"
	"testing"
	"time"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

func TestGetPriceCache_MissingKey(t *testing.T) {
	db := newTestDB(t, &domain.PriceCache{})

	row, err := GetPriceCache(context.Background(), db, 4, 1, 30)
	if err != nil {
		t.Fatalf("GetPriceCache: %v", err)
	}
	if row != nil {
		t.Fatalf("got row %+v for missing key; want nil", row)
	}
}

func TestUpsertPriceCache_InsertThenRead(t *testing.T) {
	db := newTestDB(t, &domain.PriceCache{})
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := UpsertPriceCache(ctx, db, 4, 2, 30, 3.50, at); err != nil {
		t.Fatalf("UpsertPriceCache: %v", err)
	}

	row, err := GetPriceCache(ctx, db, 4, 2, 30)
	if err != nil {
		t.Fatalf("GetPriceCache: %v", err)
	}
	if row == nil {
		t.Fatalf("row missing after upsert")
	}
	if row.PriceMajor != 3.50 {
		t.Errorf("PriceMajor = %v; want 3.50", row.PriceMajor)
	}
	if !row.ComputedAt.Equal(at) {
		t.Errorf("ComputedAt = %v; want %v", row.ComputedAt, at)
	}
}

func TestUpsertPriceCache_OverwritesOnConflict(t *testing.T) {
	db := newTestDB(t, &domain.PriceCache{})
	ctx := context.Background()
	first := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(25 * time.Hour)

	if err := UpsertPriceCache(ctx, db, 6, 1, 3, 1.10, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := UpsertPriceCache(ctx, db, 6, 1, 3, 1.25, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	row, err := GetPriceCache(ctx, db, 6, 1, 3)
	if err != nil || row == nil {
		t.Fatalf("GetPriceCache: row=%v err=%v", row, err)
	}
	if row.PriceMajor != 1.25 || !row.ComputedAt.Equal(second) {
		t.Errorf("row not overwritten: %+v", row)
	}

	var n int64
	if err := db.Model(&domain.PriceCache{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d rows for one key; want 1", n)
	}
}

func TestPriceCache_DistinctKeysCoexist(t *testing.T) {
	db := newTestDB(t, &domain.PriceCache{})
	ctx := context.Background()
	at := time.Now().UTC()

	_ = UpsertPriceCache(ctx, db, 4, 1, 30, 2.00, at)
	_ = UpsertPriceCache(ctx, db, 4, 2, 30, 4.00, at)
	_ = UpsertPriceCache(ctx, db, 6, 1, 30, 1.50, at)

	var n int64
	if err := db.Model(&domain.PriceCache{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("got %d rows; want 3 distinct keys", n)
	}
}
