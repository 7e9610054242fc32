// Package services – PurchaseService
//
// This file implements the purchase executor, the single algorithm behind
// both purchase paths: a lone selection is a one-group batch, a basket
// checkout is a many-group batch. Groups are processed strictly
// sequentially with a pacing gap between provider calls (the provider
// rate-limits bursts), each successful group is persisted immediately, and
// the first failure aborts everything that remains. Completed groups are
// never rolled back: provider purchases move money and are irreversible,
// so partial success is an accepted outcome.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/avezhov/go-proxy-store/internal/domain"
	"github.com/avezhov/go-proxy-store/internal/observability"
	"github.com/avezhov/go-proxy-store/internal/provider"
	"github.com/avezhov/go-proxy-store/internal/repo"
)

// InventoryBuyer is the purchasing slice of the inventory provider.
type InventoryBuyer interface {
	Buy(ctx context.Context, count, period int, country string, version int, proxyType string) ([]domain.Proxy, error)
}

// Pacer spaces successive provider calls. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// PricedGroup is a purchasable batch with the amount (minor units) charged
// for it; the amount feeds the spending ledger entry written on success.
type PricedGroup struct {
	domain.BasketGroup
	PriceMinor int64
}

// GroupError reports which group of a batch failed and why. Err preserves
// the provider taxonomy: provider.IsTimeout distinguishes an unresponsive
// provider from an explicit rejection (*provider.APIError).
type GroupError struct {
	// Index is the position of the failed group within the batch.
	Index int
	// Group carries the attributes (country etc.) for the failure report.
	Group domain.BasketGroup
	// Err is the underlying provider or persistence failure.
	Err error
}

// Error implements the error interface.
func (e *GroupError) Error() string {
	return fmt.Sprintf("group %d (%s %s v%d, %d pcs, %dd): %v",
		e.Index, e.Group.Country, e.Group.Type, e.Group.Version, e.Group.Count, e.Group.Period, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *GroupError) Unwrap() error { return e.Err }

// Result describes what a batch execution accomplished. When Execute
// returns an error, Result still reports the groups that completed before
// the failure — those purchases are persisted and final.
type Result struct {
	// Completed holds the groups bought and persisted, in order.
	Completed []PricedGroup
	// Proxies are all credentials persisted across completed groups.
	Proxies []domain.Proxy
	// SpentMinor is the total amount ledgered, minor units.
	SpentMinor int64
}

// Partial reports whether the batch stopped before buying every group.
func (r *Result) Partial(totalGroups int) bool {
	return len(r.Completed) < totalGroups
}

// PurchaseService executes purchase batches against the inventory
// provider and persists the outcome.
type PurchaseService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Provider performs the irreversible buy calls.
	Provider InventoryBuyer
	// Pace spaces provider calls; nil disables pacing (tests).
	Pace Pacer
}

// NewPurchaseService constructs a PurchaseService pacing provider calls
// with a token bucket refilling once per interval (500ms by default
// upstream). A non-positive interval disables pacing.
func NewPurchaseService(db *gorm.DB, prov InventoryBuyer, interval time.Duration) *PurchaseService {
	s := &PurchaseService{
		DB:       db,
		Provider: prov,
	}
	if interval > 0 {
		s.Pace = rate.NewLimiter(rate.Every(interval), 1)
	}
	return s
}

// GroupFromSelection turns a complete selection into a one-group batch
// carrying its quoted price. Incomplete selections fail with
// ErrInvalidSelection before any provider contact.
func GroupFromSelection(sel domain.Selection) (PricedGroup, error) {
	if !sel.Complete() {
		return PricedGroup{}, ErrInvalidSelection
	}
	return PricedGroup{BasketGroup: sel.Group(), PriceMinor: sel.PriceMinor}, nil
}

// Execute buys every group in order. Per group: wait for the pacer, call
// the provider, and on success persist the credentials plus one spending
// ledger entry atomically. The first failure aborts the remaining groups
// and surfaces a *GroupError naming the failed group; completed groups
// stay persisted.
//
// Only a fully successful batch deletes the originating basket rows (the
// ids collected across all groups); after a partial failure the rows of
// both unbought and bought groups remain visible so the user can react.
// Rows the user deleted mid-flight are skipped silently by the delete.
func (s *PurchaseService) Execute(ctx context.Context, userID int64, groups []PricedGroup) (*Result, error) {
	tr := otel.Tracer("services/PurchaseService")
	ctx, span := tr.Start(ctx, "Execute",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int("groups", len(groups)),
		),
	)
	defer span.End()

	res := &Result{}
	var itemIDs []uint

	for i, g := range groups {
		if s.Pace != nil {
			if err := s.Pace.Wait(ctx); err != nil {
				return res, &GroupError{Index: i, Group: g.BasketGroup, Err: err}
			}
		}

		bought, err := s.Provider.Buy(ctx, g.Count, g.Period, g.Country, g.Version, g.Type)
		if err != nil {
			outcome := observability.OutcomeRejected
			if provider.IsTimeout(err) {
				outcome = observability.OutcomeTimeout
			}
			observability.Purchases.WithLabelValues(outcome).Inc()
			log.Error().
				Err(err).
				Int64("user_id", userID).
				Str("country", g.Country).
				Int("group", i).
				Msg("purchase aborted")
			return res, &GroupError{Index: i, Group: g.BasketGroup, Err: err}
		}

		// Persist credentials and the ledger entry together, before the
		// next group is attempted.
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repo.AddProxies(ctx, tx, userID, bought); err != nil {
				return err
			}
			_, err := repo.AddSpending(ctx, tx, userID, g.PriceMinor)
			return err
		})
		if err != nil {
			observability.Purchases.WithLabelValues(observability.OutcomeError).Inc()
			return res, &GroupError{Index: i, Group: g.BasketGroup, Err: err}
		}

		observability.Purchases.WithLabelValues(observability.OutcomeOK).Inc()
		res.Completed = append(res.Completed, g)
		res.Proxies = append(res.Proxies, bought...)
		res.SpentMinor += g.PriceMinor
		itemIDs = append(itemIDs, g.ItemIDs...)

		log.Info().
			Int64("user_id", userID).
			Str("country", g.Country).
			Int("count", g.Count).
			Int("period_days", g.Period).
			Int64("amount_minor", g.PriceMinor).
			Msg("group purchased")
	}

	if len(itemIDs) > 0 {
		if err := repo.DeleteBasketItems(ctx, s.DB, userID, itemIDs); err != nil {
			return res, fmt.Errorf("clear basket: %w", err)
		}
	}
	return res, nil
}
