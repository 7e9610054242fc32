package domain

import "errors"

// Step identifies the stage an in-progress purchase selection is at.
// Transitions move strictly forward through the buy flow; backward
// navigation re-enters an earlier step and discards later fields.
type Step int

// Selection steps, in flow order.
const (
	// StepVersion: waiting for an IP version choice.
	StepVersion Step = iota
	// StepType: version chosen, waiting for a protocol type.
	StepType
	// StepCountry: type chosen, waiting for a country.
	StepCountry
	// StepAdjust: country chosen; count/period adjustment in progress.
	StepAdjust
	// StepPayment: price computed and a payment intent issued.
	StepPayment
)

// String returns a short name for the step, used in logs and traces.
func (s Step) String() string {
	switch s {
	case StepVersion:
		return "version"
	case StepType:
		return "type"
	case StepCountry:
		return "country"
	case StepAdjust:
		return "adjust"
	case StepPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// IntentScope identifies what a parked payment intent pays for. Each
// confirmation path accepts only intents minted for it, so a single-item
// intent can never fund a basket checkout or vice versa.
type IntentScope int

// Intent scopes.
const (
	// IntentNone: no intent parked.
	IntentNone IntentScope = iota
	// IntentSingle: intent covers the current selection.
	IntentSingle
	// IntentBasket: intent covers the aggregated basket total.
	IntentBasket
)

// Selection is the ephemeral per-user record of in-progress purchase
// choices. It is never persisted; the SelectionStore owns its lifecycle
// (created on entering the buy flow, cleared on success or cancel).
//
// PriceMinor, PaymentID, PaymentURL and Intent are populated only once the
// flow reaches StepPayment. They are dropped together whenever the
// underlying selection changes, so a payment intent can never be reused
// for a different amount or purpose.
type Selection struct {
	Step    Step
	Version int
	Type    string
	Country string
	Count   int
	Period  int

	PriceMinor int64
	PaymentID  string
	PaymentURL string
	Intent     IntentScope
}

// Validate reports the first missing or out-of-range purchase parameter,
// or nil when the selection is purchasable. A payment intent is not
// required.
func (s *Selection) Validate() error {
	switch {
	case s == nil:
		return errors.New("selection: nil")
	case s.Version == 0:
		return errors.New("selection: version not chosen")
	case s.Type == "":
		return errors.New("selection: type not chosen")
	case s.Country == "":
		return errors.New("selection: country not chosen")
	case s.Count < 1:
		return errors.New("selection: count below minimum")
	case s.Period < 3:
		return errors.New("selection: period below minimum")
	}
	return nil
}

// Complete reports whether all purchase parameters are set and sane.
func (s *Selection) Complete() bool {
	return s.Validate() == nil
}

// Group converts a complete selection into a one-element purchase batch.
// A lone selection carries no basket row ids, so a successful purchase
// deletes nothing from the basket.
func (s *Selection) Group() BasketGroup {
	return BasketGroup{
		Version: s.Version,
		Type:    s.Type,
		Country: s.Country,
		Count:   s.Count,
		Period:  s.Period,
	}
}

// ClearPayment drops the payment intent reference, its scope, and the
// computed price. Called on any backward transition out of StepPayment and
// whenever count/period change after a quote was taken.
func (s *Selection) ClearPayment() {
	s.PriceMinor = 0
	s.PaymentID = ""
	s.PaymentURL = ""
	s.Intent = IntentNone
}
