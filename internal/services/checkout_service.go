// Package services – CheckoutService
//
// This file implements the flow boundary that the transport layer drives:
// quote → payment intent → confirmation → purchase, for both the
// single-item and the basket path. Provider and gateway failures are
// converted here into typed Outcomes so the transport can always render an
// actionable next step (pay, retry the flow, contact support) — silent
// failure is not an option.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/avezhov/go-proxy-store/internal/domain"
	"github.com/avezhov/go-proxy-store/internal/provider"
)

// OutcomeKind classifies a checkout step result for the transport layer.
type OutcomeKind int

const (
	// OutcomePaymentPending: an intent exists; the user should pay via URL.
	OutcomePaymentPending OutcomeKind = iota
	// OutcomeNotPaid: the gateway has not seen the money yet; the same
	// intent is re-presented, never a new one.
	OutcomeNotPaid
	// OutcomePriceChanged: the amount the parked intent was minted for no
	// longer matches the basket total; the intent was dropped and a fresh
	// checkout is required. AmountMinor carries the new total.
	OutcomePriceChanged
	// OutcomePurchased: everything bought and persisted.
	OutcomePurchased
	// OutcomeProviderTimeout: the provider went silent mid-purchase; no
	// automatic retry, user should try later or contact support.
	OutcomeProviderTimeout
	// OutcomeProviderRejected: the provider refused (e.g. out of stock);
	// the reason is in Reason.
	OutcomeProviderRejected
)

// Outcome is a terminal or intermediate checkout result, carrying exactly
// what the transport needs to render the next step.
type Outcome struct {
	Kind        OutcomeKind
	PaymentID   string
	PaymentURL  string
	AmountMinor int64

	// Purchase results (OutcomePurchased, possibly partial on the batch
	// path — see Partial).
	Proxies []domain.Proxy
	Partial bool

	// FailedGroup identifies which batch group failed, when one did.
	FailedGroup *domain.BasketGroup
	// Reason is the provider's human-readable rejection, when one exists.
	Reason string
}

// CheckoutService composes the selection flow, pricing, payment handshake,
// basket aggregation, and the purchase executor.
type CheckoutService struct {
	Selections *SelectionService
	Prices     *PriceService
	Payments   *PaymentService
	Basket     *BasketService
	Purchases  *PurchaseService
}

// BuyNow prices the user's current selection and issues (or resumes) a
// payment intent for it, moving the selection to the payment step.
//
// The quote uses the selection's full count. If a previous intent exists
// and the freshly computed price still matches it, the intent is resumed;
// any price drift forces a fresh intent, upholding the "one amount per
// payment id" invariant.
func (s *CheckoutService) BuyNow(ctx context.Context, userID int64) (*Outcome, error) {
	tr := otel.Tracer("services/CheckoutService")
	ctx, span := tr.Start(ctx, "BuyNow",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	sel, err := s.Selections.Snapshot(userID)
	if err != nil {
		return nil, err
	}
	if !sel.Complete() {
		return nil, ErrInvalidSelection
	}

	price, err := s.Prices.Quote(ctx, sel.Version, sel.Count, sel.Period)
	if err != nil {
		return nil, err
	}

	existingURL, existingID := sel.PaymentURL, sel.PaymentID
	if sel.PriceMinor != price || sel.Intent != domain.IntentSingle {
		existingURL, existingID = "", ""
	}
	url, id, err := s.Payments.CreateOrResume(ctx, price, existingURL, existingID)
	if err != nil {
		return nil, err
	}
	if err := s.Selections.SetPaymentIntent(userID, domain.IntentSingle, price, url, id); err != nil {
		return nil, err
	}

	return &Outcome{
		Kind:        OutcomePaymentPending,
		PaymentID:   id,
		PaymentURL:  url,
		AmountMinor: price,
	}, nil
}

// ConfirmPurchase handles the "I paid" event for the single-item path.
//
// Unpaid: the provider is never contacted and the same payment id/URL is
// re-presented. Paid: the selection is executed as a one-group batch; on
// success the selection is cleared. A provider failure after settlement is
// terminal for this flow — the selection is cleared and the outcome tells
// the user to contact support rather than pay twice.
func (s *CheckoutService) ConfirmPurchase(ctx context.Context, userID int64) (*Outcome, error) {
	tr := otel.Tracer("services/CheckoutService")
	ctx, span := tr.Start(ctx, "ConfirmPurchase",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	sel, err := s.Selections.Snapshot(userID)
	if err != nil {
		return nil, err
	}
	if sel.Step != domain.StepPayment || sel.PaymentID == "" || sel.Intent != domain.IntentSingle {
		return nil, ErrNoPaymentIntent
	}

	paid, err := s.Payments.IsPaid(ctx, sel.PaymentID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return &Outcome{
			Kind:        OutcomeNotPaid,
			PaymentID:   sel.PaymentID,
			PaymentURL:  sel.PaymentURL,
			AmountMinor: sel.PriceMinor,
		}, nil
	}

	group, err := GroupFromSelection(sel)
	if err != nil {
		return nil, err
	}

	res, execErr := s.Purchases.Execute(ctx, userID, []PricedGroup{group})
	// Paid flows end here either way; keeping a settled intent around
	// would invite a second charge for the same selection.
	s.Selections.Cancel(userID)
	if execErr != nil {
		return failureOutcome(execErr, res, 1), nil
	}

	return &Outcome{
		Kind:        OutcomePurchased,
		AmountMinor: res.SpentMinor,
		Proxies:     res.Proxies,
	}, nil
}

// BasketCheckout prices the whole basket and issues (or resumes) a payment
// intent for the total. The intent is parked on the user's selection
// record (created on demand), which the confirmation step reads back.
func (s *CheckoutService) BasketCheckout(ctx context.Context, userID int64) (*Outcome, error) {
	tr := otel.Tracer("services/CheckoutService")
	ctx, span := tr.Start(ctx, "BasketCheckout",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	_, total, err := s.Basket.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrEmptyBasket
	}

	sel := s.Selections.Store.Get(userID)
	if sel == nil {
		sel = s.Selections.Store.Create(userID)
	}
	existingURL, existingID := sel.PaymentURL, sel.PaymentID
	if sel.PriceMinor != total || sel.Intent != domain.IntentBasket {
		existingURL, existingID = "", ""
	}
	url, id, err := s.Payments.CreateOrResume(ctx, total, existingURL, existingID)
	if err != nil {
		return nil, err
	}
	if err := s.Selections.SetPaymentIntent(userID, domain.IntentBasket, total, url, id); err != nil {
		return nil, err
	}

	return &Outcome{
		Kind:        OutcomePaymentPending,
		PaymentID:   id,
		PaymentURL:  url,
		AmountMinor: total,
	}, nil
}

// ConfirmBasket handles the "I paid" event for the basket path.
//
// The intent must have been minted by BasketCheckout, and the basket is
// re-aggregated before the gateway is polled: if the re-quoted total
// differs from the amount the intent was issued for (rows added or
// removed, prices moved), the intent is dropped and the user is sent back
// through checkout — an intent never funds a different amount. The groups
// that pass that check are exactly the groups executed, so the per-group
// ledger entries sum to the amount paid.
//
// Unpaid: same re-present rule as ConfirmPurchase. Paid: executed group by
// group. Full success clears the basket rows (done by the executor) and
// the selection. A mid-batch failure keeps everything already bought,
// reports the failed group, and leaves the remaining basket rows in place.
func (s *CheckoutService) ConfirmBasket(ctx context.Context, userID int64) (*Outcome, error) {
	tr := otel.Tracer("services/CheckoutService")
	ctx, span := tr.Start(ctx, "ConfirmBasket",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	sel, err := s.Selections.Snapshot(userID)
	if err != nil {
		return nil, err
	}
	if sel.PaymentID == "" || sel.Intent != domain.IntentBasket {
		return nil, ErrNoPaymentIntent
	}

	quotes, total, err := s.Basket.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		s.Selections.Cancel(userID)
		return nil, ErrEmptyBasket
	}
	if total != sel.PriceMinor {
		s.Selections.DropIntent(userID)
		return &Outcome{
			Kind:        OutcomePriceChanged,
			AmountMinor: total,
		}, nil
	}

	paid, err := s.Payments.IsPaid(ctx, sel.PaymentID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return &Outcome{
			Kind:        OutcomeNotPaid,
			PaymentID:   sel.PaymentID,
			PaymentURL:  sel.PaymentURL,
			AmountMinor: sel.PriceMinor,
		}, nil
	}

	groups := make([]PricedGroup, 0, len(quotes))
	for _, q := range quotes {
		groups = append(groups, PricedGroup{BasketGroup: q.BasketGroup, PriceMinor: q.PriceMinor})
	}

	res, execErr := s.Purchases.Execute(ctx, userID, groups)
	s.Selections.Cancel(userID)
	if execErr != nil {
		return failureOutcome(execErr, res, len(groups)), nil
	}

	return &Outcome{
		Kind:        OutcomePurchased,
		AmountMinor: res.SpentMinor,
		Proxies:     res.Proxies,
	}, nil
}

// failureOutcome maps an executor error onto a transport-facing outcome,
// preserving what was bought before the failure.
func failureOutcome(execErr error, res *Result, totalGroups int) *Outcome {
	out := &Outcome{
		Kind:        OutcomeProviderRejected,
		AmountMinor: res.SpentMinor,
		Proxies:     res.Proxies,
		Partial:     res.Partial(totalGroups),
	}

	var ge *GroupError
	if errors.As(execErr, &ge) {
		g := ge.Group
		out.FailedGroup = &g
	}
	if provider.IsTimeout(execErr) {
		out.Kind = OutcomeProviderTimeout
		return out
	}
	var apiErr *provider.APIError
	if errors.As(execErr, &apiErr) {
		out.Reason = apiErr.Message
	}
	return out
}
