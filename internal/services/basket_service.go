// Package services – BasketService
//
// This file implements the basket (shopping cart) operations and the
// aggregation algorithm that turns raw basket rows into purchasable
// groups. Quantity is deliberately excluded from the grouping key, so rows
// differing only in count merge into one batch — one provider call and one
// price lookup per distinct (version, type, country, period).
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/avezhov/go-proxy-store/internal/domain"
	"github.com/avezhov/go-proxy-store/internal/repo"
)

// GroupQuote is one aggregated basket group together with its quoted price
// in minor units.
type GroupQuote struct {
	domain.BasketGroup
	PriceMinor int64
}

// BasketService manages a user's persisted basket rows and produces priced
// summaries for display and checkout.
type BasketService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Prices quotes each aggregated group.
	Prices *PriceService
}

// NewBasketService constructs a BasketService.
func NewBasketService(db *gorm.DB, prices *PriceService) *BasketService {
	return &BasketService{DB: db, Prices: prices}
}

// Add persists the user's current selection as a basket row. The selection
// must be complete; the payment intent (if any) is irrelevant here.
func (s *BasketService) Add(ctx context.Context, userID int64, sel domain.Selection) (*domain.BasketItem, error) {
	if !sel.Complete() {
		return nil, ErrInvalidSelection
	}
	return repo.AddBasketItem(ctx, s.DB, userID, sel.Version, sel.Type, sel.Country, sel.Count, sel.Period)
}

// Items returns the user's basket rows in insertion order.
func (s *BasketService) Items(ctx context.Context, userID int64) ([]domain.BasketItem, error) {
	return repo.ListBasketItems(ctx, s.DB, userID)
}

// Remove deletes the given basket rows. Used when the user drops one group
// from the cart; the ids come from the group's ItemIDs.
func (s *BasketService) Remove(ctx context.Context, userID int64, ids []uint) error {
	return repo.DeleteBasketItems(ctx, s.DB, userID, ids)
}

// GroupItems aggregates basket rows by (version, type, country, period),
// summing counts and collecting the contributing row ids. Output order is
// deterministic: groups appear in the order their first row appears in
// items.
//
// The result partitions the input — every row id lands in exactly one
// group, and each group's Count is the sum of its rows' counts.
func GroupItems(items []domain.BasketItem) []domain.BasketGroup {
	type key struct {
		version int
		typ     string
		country string
		period  int
	}

	index := make(map[key]int, len(items))
	groups := make([]domain.BasketGroup, 0, len(items))

	for _, it := range items {
		k := key{it.Version, it.Type, it.Country, it.Period}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, domain.BasketGroup{
				Version: it.Version,
				Type:    it.Type,
				Country: it.Country,
				Period:  it.Period,
			})
		}
		groups[i].Count += it.Count
		groups[i].ItemIDs = append(groups[i].ItemIDs, it.ID)
	}
	return groups
}

// Summarize aggregates the user's basket and quotes every group, returning
// the priced groups and the basket total in minor units.
//
// An empty basket yields (nil, 0, nil) without touching the provider — the
// transport renders its fixed empty-cart message from that. A group whose
// price cannot be computed fails the whole summary with
// ErrPriceUnavailable (wrapped); a partial total would be misleading.
func (s *BasketService) Summarize(ctx context.Context, userID int64) ([]GroupQuote, int64, error) {
	tr := otel.Tracer("services/BasketService")
	ctx, span := tr.Start(ctx, "Summarize",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	items, err := repo.ListBasketItems(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if len(items) == 0 {
		return nil, 0, nil
	}

	groups := GroupItems(items)
	quotes := make([]GroupQuote, 0, len(groups))
	var total int64
	for _, g := range groups {
		price, err := s.Prices.Quote(ctx, g.Version, g.Count, g.Period)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, GroupQuote{BasketGroup: g, PriceMinor: price})
		total += price
	}
	return quotes, total, nil
}
