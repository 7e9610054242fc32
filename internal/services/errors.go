// Package services implements the purchase-orchestration core: the
// selection state machine, the price cache, the basket aggregator, the
// payment handshake, and the purchase executor. This file centralizes the
// service-level error values so they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for the transport/dispatch layer to translate
// into user-facing messages; none of them is a crash condition. Provider
// and gateway failures keep their own taxonomy (provider.APIError,
// provider.ErrTimeout) and are wrapped, not replaced.
package services

import "errors"

var (
	// ErrNoSelection is returned when an operation requires an active
	// selection and the user has none (flow never started or was cleared).
	ErrNoSelection = errors.New("no active selection")

	// ErrInvalidSelection is returned when the purchase flow is driven
	// with an incomplete selection (missing version, type, country, or
	// out-of-range count/period). Recoverable: prompt re-selection.
	ErrInvalidSelection = errors.New("selection is incomplete")

	// ErrWrongStep is returned when a transition is attempted from a step
	// that does not allow it (e.g. adjusting quantity before a country is
	// chosen).
	ErrWrongStep = errors.New("operation not allowed at this step")

	// ErrUnknownVersion is returned for an IP version the provider does
	// not sell.
	ErrUnknownVersion = errors.New("unknown proxy version")

	// ErrUnknownType is returned for a protocol type outside the allowed
	// set (http, socks).
	ErrUnknownType = errors.New("unknown proxy type")

	// ErrUnknownCountry is returned when the chosen country is not in the
	// provider's current stock list for the selected version.
	ErrUnknownCountry = errors.New("country not available")

	// ErrPriceUnavailable is returned when the provider could not price a
	// request and no valid cache entry exists. It always wraps the cause;
	// callers must treat it as "unavailable", never as a free item.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrEmptyBasket is returned when a basket checkout is attempted with
	// no rows in the basket.
	ErrEmptyBasket = errors.New("basket is empty")

	// ErrNoPaymentIntent is returned when a payment confirmation is
	// attempted before an intent was issued.
	ErrNoPaymentIntent = errors.New("no payment intent")
)
