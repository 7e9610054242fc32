// Package services – PaymentService
//
// This file implements the payment handshake against the external gateway:
// issuing (or resuming) a payment intent and polling its settlement
// status. Resume semantics prevent duplicate intents when a pending
// payment is re-displayed, e.g. after the user pressed "I paid" too early.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/avezhov/go-proxy-store/internal/gateway"
	"github.com/avezhov/go-proxy-store/internal/observability"
)

// PaymentGateway is the contract the handshake needs from the external
// gateway client.
type PaymentGateway interface {
	// CreatePayment issues a redirect payment for the amount in major
	// currency units.
	CreatePayment(ctx context.Context, amountMajor float64) (*gateway.Payment, error)

	// GetStatus polls the payment status; pure and repeatable.
	GetStatus(ctx context.Context, id string) (string, error)
}

// PaymentService creates, resumes, and polls payment intents.
//
// Invariant owed to callers: a payment id is never attached to two
// purchase attempts of different amounts. The service itself only resumes
// what it is handed; the selection flow guarantees stale intents are
// dropped whenever the price changes.
type PaymentService struct {
	// Gateway is the external payment gateway client.
	Gateway PaymentGateway
}

// CreateOrResume returns a payment URL and id for the given amount (minor
// units). When both existingURL and existingID are supplied they are
// returned unchanged — the idempotent resume path. Otherwise a new intent
// is created for amountMinor/100 major units.
func (s *PaymentService) CreateOrResume(ctx context.Context, amountMinor int64, existingURL, existingID string) (string, string, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "CreateOrResume",
		trace.WithAttributes(attribute.Int64("amount_minor", amountMinor)),
	)
	defer span.End()

	if existingURL != "" && existingID != "" {
		observability.PaymentIntents.WithLabelValues("resumed").Inc()
		return existingURL, existingID, nil
	}

	p, err := s.Gateway.CreatePayment(ctx, float64(amountMinor)/100)
	if err != nil {
		return "", "", err
	}
	observability.PaymentIntents.WithLabelValues("created").Inc()
	return p.URL, p.ID, nil
}

// IsPaid reports whether the payment has settled. Only the gateway status
// "succeeded" counts; every other value (pending, waiting_for_capture,
// canceled, anything unrecognized) is "not yet paid".
func (s *PaymentService) IsPaid(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrNoPaymentIntent
	}

	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "IsPaid",
		trace.WithAttributes(attribute.String("payment.id", id)),
	)
	defer span.End()

	status, err := s.Gateway.GetStatus(ctx, id)
	if err != nil {
		return false, err
	}
	return status == gateway.StatusSucceeded, nil
}
