// Package services – SelectionService
//
// This file implements the selection state machine driving single-item
// purchase selection: Version → Type → Country → quantity adjustment →
// payment. Forward transitions validate their input and discard later
// fields; backward transitions re-enter the previous step. One rule covers
// every backward/cancel move: leaving the payment step drops the payment
// intent (so an intent can never outlive a price change), and an explicit
// cancel clears the whole selection.
package services

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

// CountrySource is the slice of the inventory provider the selection flow
// needs: the list of countries currently in stock for an IP version.
type CountrySource interface {
	GetCountries(ctx context.Context, version int) ([]string, error)
}

// Proxy versions and protocol types the storefront sells. Version 3 is the
// provider's shared-IPv4 offering.
var (
	allowedVersions = []int{4, 6, 3}
	allowedTypes    = []string{"http", "socks"}
)

// SelectionService drives the per-user purchase selection flow on top of a
// SelectionStore. Country lists are always fetched fresh from the provider,
// never cached inside the selection.
type SelectionService struct {
	// Store owns the per-user selection lifecycle.
	Store *SelectionStore
	// Countries provides the stock country list per version.
	Countries CountrySource

	// MinCount is the quantity floor (no ceiling exists).
	MinCount int
	// MinPeriod is the rental period floor in days (no ceiling exists).
	MinPeriod int
}

// NewSelectionService constructs a SelectionService with the provider
// minimums (1 proxy, 3 days).
func NewSelectionService(store *SelectionStore, countries CountrySource) *SelectionService {
	return &SelectionService{
		Store:     store,
		Countries: countries,
		MinCount:  1,
		MinPeriod: 3,
	}
}

// Start begins (or restarts) the buy flow for userID. Any previous
// selection is discarded.
func (s *SelectionService) Start(userID int64) domain.Selection {
	return *s.Store.Create(userID)
}

// ChooseVersion records the IP version and advances to the type step.
// Re-entering from a later step discards the fields chosen after it.
func (s *SelectionService) ChooseVersion(userID int64, version int) error {
	if !slices.Contains(allowedVersions, version) {
		return ErrUnknownVersion
	}
	sel := s.Store.Get(userID)
	if sel == nil {
		sel = s.Store.Create(userID)
	}
	sel.Version = version
	sel.Type = ""
	sel.Country = ""
	sel.Count = 0
	sel.Period = 0
	sel.ClearPayment()
	sel.Step = domain.StepType
	return nil
}

// ChooseType records the protocol type and advances to the country step.
func (s *SelectionService) ChooseType(userID int64, proxyType string) error {
	if !slices.Contains(allowedTypes, proxyType) {
		return ErrUnknownType
	}
	sel := s.Store.Get(userID)
	if sel == nil {
		return ErrNoSelection
	}
	if sel.Version == 0 {
		return ErrWrongStep
	}
	sel.Type = proxyType
	sel.Country = ""
	sel.Count = 0
	sel.Period = 0
	sel.ClearPayment()
	sel.Step = domain.StepCountry
	return nil
}

// ChooseCountry validates the code against the provider's current stock
// for the selected version, then seeds count/period with their floors and
// advances to the adjustment step.
func (s *SelectionService) ChooseCountry(ctx context.Context, userID int64, code string) error {
	tr := otel.Tracer("services/SelectionService")
	ctx, span := tr.Start(ctx, "ChooseCountry",
		trace.WithAttributes(attribute.String("country", code)),
	)
	defer span.End()

	sel := s.Store.Get(userID)
	if sel == nil {
		return ErrNoSelection
	}
	if sel.Version == 0 || sel.Type == "" {
		return ErrWrongStep
	}

	countries, err := s.Countries.GetCountries(ctx, sel.Version)
	if err != nil {
		return err
	}
	if !slices.Contains(countries, code) {
		return ErrUnknownCountry
	}

	sel.Country = code
	sel.Count = s.MinCount
	sel.Period = s.MinPeriod
	sel.ClearPayment()
	sel.Step = domain.StepAdjust
	return nil
}

// CountryOptions re-fetches the stock country list for the user's chosen
// version. Used for the country step and for backward navigation to it;
// the list is intentionally never stored in the selection.
func (s *SelectionService) CountryOptions(ctx context.Context, userID int64) ([]string, error) {
	sel := s.Store.Get(userID)
	if sel == nil {
		return nil, ErrNoSelection
	}
	if sel.Version == 0 {
		return nil, ErrWrongStep
	}
	return s.Countries.GetCountries(ctx, sel.Version)
}

// AdjustCount changes the quantity by delta, clamped at the floor. There
// is no ceiling. Any previously taken quote or payment intent is dropped,
// because the price no longer matches.
func (s *SelectionService) AdjustCount(userID int64, delta int) (int, error) {
	sel := s.Store.Get(userID)
	if sel == nil {
		return 0, ErrNoSelection
	}
	if sel.Step != domain.StepAdjust && sel.Step != domain.StepPayment {
		return 0, ErrWrongStep
	}
	sel.Count += delta
	if sel.Count < s.MinCount {
		sel.Count = s.MinCount
	}
	sel.ClearPayment()
	sel.Step = domain.StepAdjust
	return sel.Count, nil
}

// AdjustPeriod changes the rental period by delta days, clamped at the
// floor. Same quote/intent invalidation as AdjustCount.
func (s *SelectionService) AdjustPeriod(userID int64, delta int) (int, error) {
	sel := s.Store.Get(userID)
	if sel == nil {
		return 0, ErrNoSelection
	}
	if sel.Step != domain.StepAdjust && sel.Step != domain.StepPayment {
		return 0, ErrWrongStep
	}
	sel.Period += delta
	if sel.Period < s.MinPeriod {
		sel.Period = s.MinPeriod
	}
	sel.ClearPayment()
	sel.Step = domain.StepAdjust
	return sel.Period, nil
}

// Back navigates one step backwards and returns the step the flow is now
// at. Leaving the payment step only drops the intent and the quote; the
// chosen attributes survive. Earlier steps discard the field chosen at the
// step being left.
func (s *SelectionService) Back(userID int64) (domain.Step, error) {
	sel := s.Store.Get(userID)
	if sel == nil {
		return 0, ErrNoSelection
	}
	switch sel.Step {
	case domain.StepPayment:
		sel.ClearPayment()
		sel.Step = domain.StepAdjust
	case domain.StepAdjust:
		sel.Country = ""
		sel.Count = 0
		sel.Period = 0
		sel.Step = domain.StepCountry
	case domain.StepCountry:
		sel.Type = ""
		sel.Step = domain.StepType
	case domain.StepType:
		sel.Version = 0
		sel.Step = domain.StepVersion
	case domain.StepVersion:
		// Already at the first step; nothing to unwind.
	}
	return sel.Step, nil
}

// Cancel aborts the flow and removes the selection entirely.
func (s *SelectionService) Cancel(userID int64) {
	s.Store.Clear(userID)
}

// SetPaymentIntent stores the quoted price and the issued payment intent
// with its scope, moving the flow to the payment step. Called by the
// checkout flow once a quote and an intent exist.
func (s *SelectionService) SetPaymentIntent(userID int64, scope domain.IntentScope, priceMinor int64, url, id string) error {
	sel := s.Store.Get(userID)
	if sel == nil {
		return ErrNoSelection
	}
	sel.PriceMinor = priceMinor
	sel.PaymentURL = url
	sel.PaymentID = id
	sel.Intent = scope
	sel.Step = domain.StepPayment
	return nil
}

// DropIntent discards a parked payment intent without touching the chosen
// attributes. Used when the amount the intent was minted for no longer
// matches what it would pay for.
func (s *SelectionService) DropIntent(userID int64) {
	sel := s.Store.Get(userID)
	if sel == nil {
		return
	}
	sel.ClearPayment()
	if sel.Step == domain.StepPayment {
		sel.Step = domain.StepAdjust
	}
}

// Snapshot returns a copy of the user's selection for rendering or
// checkout, or ErrNoSelection when the flow is not active.
func (s *SelectionService) Snapshot(userID int64) (domain.Selection, error) {
	sel := s.Store.Get(userID)
	if sel == nil {
		return domain.Selection{}, ErrNoSelection
	}
	return *sel, nil
}
