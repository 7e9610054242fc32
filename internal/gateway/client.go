// Package gateway implements the HTTP client for the external payment
// gateway (YooKassa-compatible API). The core only needs two calls: create
// a redirect payment and poll its settlement status.
//
// Creation is guarded by an Idempotence-Key header so a retried HTTP
// request cannot mint two payments; status polling is pure and repeatable.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Recognized payment statuses. Only StatusSucceeded releases goods; every
// other value is "not yet paid" to the purchase flow.
const (
	StatusPending           = "pending"
	StatusWaitingForCapture = "waiting_for_capture"
	StatusSucceeded         = "succeeded"
	StatusCanceled          = "canceled"
)

// Payment is the gateway's view of one payment intent.
type Payment struct {
	ID     string
	URL    string
	Status string
}

// Client calls the payment gateway. Safe for concurrent use.
type Client struct {
	baseURL    string
	shopID     string
	secretKey  string
	returnURL  string
	currency   string
	httpClient *http.Client
}

// NewClient constructs a gateway client with a per-request timeout.
func NewClient(baseURL, shopID, secretKey, returnURL, currency string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		shopID:    shopID,
		secretKey: secretKey,
		returnURL: returnURL,
		currency:  currency,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// createRequest is the POST /payments body.
type createRequest struct {
	Amount       amount       `json:"amount"`
	Confirmation confirmation `json:"confirmation"`
	Capture      bool         `json:"capture"`
	Description  string       `json:"description,omitempty"`
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// paymentResponse is the subset of the gateway payment object we consume.
type paymentResponse struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	Confirmation confirmation `json:"confirmation"`
}

// CreatePayment creates a redirect payment for the given amount in major
// currency units and returns its id and confirmation URL. Each call sends
// a fresh Idempotence-Key, so intent reuse is the caller's decision (see
// services.PaymentService.CreateOrResume).
func (c *Client) CreatePayment(ctx context.Context, amountMajor float64) (*Payment, error) {
	reqBody := createRequest{
		Amount: amount{
			Value:    fmt.Sprintf("%.2f", amountMajor),
			Currency: c.currency,
		},
		Confirmation: confirmation{
			Type:      "redirect",
			ReturnURL: c.returnURL,
		},
		Capture:     true,
		Description: "Proxy purchase",
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("create payment: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create payment: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", uuid.NewString())
	req.SetBasicAuth(c.shopID, c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("create payment: gateway returned status %d", resp.StatusCode)
	}

	var pr paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("create payment: decode response: %w", err)
	}
	if pr.ID == "" || pr.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("create payment: incomplete gateway response")
	}

	log.Info().
		Str("payment_id", pr.ID).
		Str("status", pr.Status).
		Msg("payment intent created")

	return &Payment{
		ID:     pr.ID,
		URL:    pr.Confirmation.ConfirmationURL,
		Status: pr.Status,
	}, nil
}

// GetStatus returns the current status of the payment. The call is
// side-effect free and may be repeated at will.
func (c *Client) GetStatus(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+id, nil)
	if err != nil {
		return "", fmt.Errorf("get status: create request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("get status: gateway returned status %d", resp.StatusCode)
	}

	var pr paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("get status: decode response: %w", err)
	}
	return pr.Status, nil
}
