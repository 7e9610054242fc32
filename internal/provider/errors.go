// Package provider implements the HTTP client for the external proxy
// inventory API (Proxy6-compatible). This file centralizes the error
// taxonomy surfaced to the service layer.
//
// Two failure classes matter to callers:
//   - *APIError: the provider answered and explicitly rejected the request
//     (out of stock, bad parameters, insufficient balance, ...). The
//     request was processed; no retry will change the answer.
//   - ErrTimeout: the provider did not answer within the deadline. Nothing
//     is assumed about whether the request was processed; callers must not
//     retry money-moving calls.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout indicates the provider did not respond within the configured
// deadline. Use IsTimeout to classify wrapped errors.
var ErrTimeout = errors.New("inventory provider timeout")

// APIError is an explicit rejection from the provider API, carrying the
// provider's numeric error id and human-readable reason.
type APIError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// IsTimeout reports whether err is (or wraps) a provider timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// classify wraps transport-level failures: deadline and net timeouts become
// ErrTimeout, everything else is passed through with context.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
