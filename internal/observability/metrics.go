// Package observability bundles the OpenTelemetry bootstrap and the
// Prometheus collectors shared across the purchase core.
//
// This file defines the domain-level metrics. Label sets are deliberately
// small and closed (method names, fixed outcome strings) to keep
// cardinality bounded. All collectors are safe for concurrent use.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values shared by the counters below.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
)

var (
	// ProviderRequests counts inventory provider calls by API method and outcome.
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of inventory provider API calls.",
		},
		[]string{"method", "outcome"},
	)

	// PriceCacheLookups counts price lookups by result (hit, miss, error).
	PriceCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_lookups_total",
			Help: "Total number of price cache lookups.",
		},
		[]string{"result"},
	)

	// PaymentIntents counts payment intents by mode (created vs resumed).
	PaymentIntents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intents_total",
			Help: "Total number of payment intents issued or resumed.",
		},
		[]string{"mode"},
	)

	// Purchases counts purchase executor group results by outcome.
	Purchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_purchases_total",
			Help: "Total number of per-group purchase attempts.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(ProviderRequests, PriceCacheLookups, PaymentIntents, Purchases)
}
