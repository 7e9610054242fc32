package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakePriceSource serves one fixed major-unit price and counts calls.
type fakePriceSource struct {
	price float64
	err   error
	calls int
}

func (f *fakePriceSource) GetPrice(ctx context.Context, count, period, version int) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.price, nil
}

func TestQuote_MissFetchesAndCaches(t *testing.T) {
	db := newTestDB(t)
	src := &fakePriceSource{price: 3.50}
	svc := NewPriceService(db, src)

	got, err := svc.Quote(context.Background(), 4, 2, 30)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if got != 350 {
		t.Errorf("Quote = %d minor units; want 350", got)
	}
	if src.calls != 1 {
		t.Errorf("provider called %d times; want 1", src.calls)
	}
}

func TestQuote_HitSkipsProviderWithinTTL(t *testing.T) {
	db := newTestDB(t)
	src := &fakePriceSource{price: 2.00}
	svc := NewPriceService(db, src)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return base }

	if _, err := svc.Quote(context.Background(), 4, 1, 3); err != nil {
		t.Fatalf("first Quote: %v", err)
	}

	// 23h59m later the cached value still answers.
	svc.Now = func() time.Time { return base.Add(24*time.Hour - time.Minute) }
	src.price = 9.99 // a drifted provider price must not be visible
	got, err := svc.Quote(context.Background(), 4, 1, 3)
	if err != nil {
		t.Fatalf("second Quote: %v", err)
	}
	if got != 200 {
		t.Errorf("Quote = %d; want cached 200", got)
	}
	if src.calls != 1 {
		t.Errorf("provider called %d times; want 1 (cache hit)", src.calls)
	}
}

func TestQuote_ExpiredRowRefetches(t *testing.T) {
	db := newTestDB(t)
	src := &fakePriceSource{price: 2.00}
	svc := NewPriceService(db, src)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return base }
	if _, err := svc.Quote(context.Background(), 4, 1, 3); err != nil {
		t.Fatalf("first Quote: %v", err)
	}

	// One second past the TTL the row is stale; the provider answers again
	// and the fresh price replaces the row.
	svc.Now = func() time.Time { return base.Add(24*time.Hour + time.Second) }
	src.price = 2.50
	got, err := svc.Quote(context.Background(), 4, 1, 3)
	if err != nil {
		t.Fatalf("second Quote: %v", err)
	}
	if got != 250 {
		t.Errorf("Quote = %d; want refreshed 250", got)
	}
	if src.calls != 2 {
		t.Errorf("provider called %d times; want 2", src.calls)
	}

	// The refresh is persisted: a third call within the new window hits.
	if _, err := svc.Quote(context.Background(), 4, 1, 3); err != nil {
		t.Fatalf("third Quote: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("provider called %d times after refresh; want 2", src.calls)
	}
}

func TestQuote_DistinctKeysDoNotShareCache(t *testing.T) {
	db := newTestDB(t)
	src := &fakePriceSource{price: 1.00}
	svc := NewPriceService(db, src)
	ctx := context.Background()

	_, _ = svc.Quote(ctx, 4, 1, 3)
	_, _ = svc.Quote(ctx, 4, 2, 3)
	_, _ = svc.Quote(ctx, 6, 1, 3)

	if src.calls != 3 {
		t.Errorf("provider called %d times; want 3 (one per key)", src.calls)
	}
}

func TestQuote_ProviderFailureIsExplicit(t *testing.T) {
	db := newTestDB(t)
	src := &fakePriceSource{err: errors.New("provider down")}
	svc := NewPriceService(db, src)

	got, err := svc.Quote(context.Background(), 4, 1, 3)
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("Quote err = %v; want ErrPriceUnavailable", err)
	}
	if got != 0 {
		t.Errorf("failed quote returned price %d", got)
	}

	// The failure is not cached: recovery answers on the next call.
	src.err = nil
	src.price = 1.50
	got, err = svc.Quote(context.Background(), 4, 1, 3)
	if err != nil {
		t.Fatalf("Quote after recovery: %v", err)
	}
	if got != 150 {
		t.Errorf("Quote after recovery = %d; want 150", got)
	}
}

func TestToMinor_Rounding(t *testing.T) {
	cases := []struct {
		major float64
		want  int64
	}{
		{0, 0},
		{1, 100},
		{3.5, 350},
		{1.999, 200},
		{0.004, 0},
		{129.99, 12999},
	}
	for _, tc := range cases {
		if got := toMinor(tc.major); got != tc.want {
			t.Errorf("toMinor(%v) = %d; want %d", tc.major, got, tc.want)
		}
	}
}
