// Package services – PriceService
//
// This file implements the memoized price lookup. Quotes are keyed by
// (version, count, period) in a DB-backed cache shared across all users; a
// cached value is honored for the configured TTL (24h by default) and
// treated as absent afterwards. A provider failure surfaces as an explicit
// ErrPriceUnavailable instead of a zero price, so "unavailable" can never
// be mistaken for "free".
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/avezhov/go-proxy-store/internal/observability"
	"github.com/avezhov/go-proxy-store/internal/repo"
)

// PriceSource is the pricing slice of the inventory provider.
type PriceSource interface {
	GetPrice(ctx context.Context, count, period, version int) (float64, error)
}

// PriceService answers price quotes in minor currency units, memoizing
// provider lookups in the shared cache table.
type PriceService struct {
	// DB is the GORM handle used for cache persistence.
	DB *gorm.DB
	// Source computes prices on cache misses.
	Source PriceSource
	// TTL is the cache validity window.
	TTL time.Duration

	// Now returns the current time; overridable in tests. Nil means
	// time.Now.
	Now func() time.Time
}

// NewPriceService constructs a PriceService with the default 24h TTL.
func NewPriceService(db *gorm.DB, src PriceSource) *PriceService {
	return &PriceService{
		DB:     db,
		Source: src,
		TTL:    24 * time.Hour,
	}
}

// Quote returns the price of count proxies of the given version for period
// days, in minor units (round(major*100)).
//
// A valid cache row short-circuits the provider entirely; concurrent users
// asking for the same key therefore collapse onto at most one provider
// call per TTL window (a miss race costs a redundant call, never
// corruption). On a miss the freshly computed price is upserted,
// overwriting any expired row for the key.
func (s *PriceService) Quote(ctx context.Context, version, count, period int) (int64, error) {
	tr := otel.Tracer("services/PriceService")
	ctx, span := tr.Start(ctx, "Quote",
		trace.WithAttributes(
			attribute.Int("proxy.version", version),
			attribute.Int("proxy.count", count),
			attribute.Int("proxy.period_days", period),
		),
	)
	defer span.End()

	now := s.now()

	cached, err := repo.GetPriceCache(ctx, s.DB, version, count, period)
	if err != nil {
		return 0, fmt.Errorf("price cache read: %w", err)
	}
	if cached != nil && !cached.Expired(s.TTL, now) {
		observability.PriceCacheLookups.WithLabelValues("hit").Inc()
		return toMinor(cached.PriceMajor), nil
	}

	observability.PriceCacheLookups.WithLabelValues("miss").Inc()
	major, err := s.Source.GetPrice(ctx, count, period, version)
	if err != nil {
		observability.PriceCacheLookups.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("%w: %w", ErrPriceUnavailable, err)
	}

	if err := repo.UpsertPriceCache(ctx, s.DB, version, count, period, major, now); err != nil {
		return 0, fmt.Errorf("price cache write: %w", err)
	}
	return toMinor(major), nil
}

// now returns the injected clock or wall time.
func (s *PriceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// toMinor converts major currency units to minor ones with half-up
// rounding.
func toMinor(major float64) int64 {
	return int64(math.Round(major * 100))
}
