// Package provider – Proxy6-compatible inventory client.
//
// The API is URL-based: {base}/{api_key}/{method}?params, always answering
// HTTP 200 with a JSON envelope. status "yes" means success; status "no"
// carries error_id and error. Numeric fields may arrive as JSON strings,
// so responses are decoded defensively.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avezhov/go-proxy-store/internal/domain"
	"github.com/avezhov/go-proxy-store/internal/observability"
)

// dateEndLayout is the provider's expiry timestamp format (UTC, no zone).
const dateEndLayout = "2006-01-02 15:04:05"

// Client calls the inventory provider. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a provider client with a per-request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope is the common response wrapper of every API method.
type envelope struct {
	Status  string          `json:"status"`
	ErrorID int             `json:"error_id"`
	Error   string          `json:"error"`
	Price   json.Number     `json:"price"`
	List    json.RawMessage `json:"list"`
}

// buyItem is one purchased proxy as returned by the buy method. The
// provider encodes port and active flags as strings.
type buyItem struct {
	ID      string      `json:"id"`
	IP      string      `json:"ip"`
	Host    string      `json:"host"`
	Port    json.Number `json:"port"`
	User    string      `json:"user"`
	Pass    string      `json:"pass"`
	Type    string      `json:"type"`
	DateEnd string      `json:"date_end"`
}

// GetPrice returns the cost (major currency units) of count proxies of the
// given version for period days. Explicit rejections become *APIError.
func (c *Client) GetPrice(ctx context.Context, count, period, version int) (float64, error) {
	env, err := c.call(ctx, "getprice", url.Values{
		"count":   {strconv.Itoa(count)},
		"period":  {strconv.Itoa(period)},
		"version": {strconv.Itoa(version)},
	})
	if err != nil {
		return 0, err
	}
	price, err := env.Price.Float64()
	if err != nil {
		return 0, fmt.Errorf("getprice: bad price %q: %w", env.Price.String(), err)
	}
	return price, nil
}

// GetCountries returns the ISO country codes with stock for the version.
func (c *Client) GetCountries(ctx context.Context, version int) ([]string, error) {
	env, err := c.call(ctx, "getcountry", url.Values{
		"version": {strconv.Itoa(version)},
	})
	if err != nil {
		return nil, err
	}
	var codes []string
	if err := json.Unmarshal(env.List, &codes); err != nil {
		return nil, fmt.Errorf("getcountry: bad list: %w", err)
	}
	return codes, nil
}

// Buy purchases count proxies and returns the issued credentials. The call
// is irreversible and must never be retried automatically: on ErrTimeout
// the charge state is unknown.
func (c *Client) Buy(ctx context.Context, count, period int, country string, version int, proxyType string) ([]domain.Proxy, error) {
	env, err := c.call(ctx, "buy", url.Values{
		"count":   {strconv.Itoa(count)},
		"period":  {strconv.Itoa(period)},
		"country": {country},
		"version": {strconv.Itoa(version)},
		"type":    {proxyType},
	})
	if err != nil {
		return nil, err
	}

	// The list arrives keyed by proxy id.
	var items map[string]buyItem
	if err := json.Unmarshal(env.List, &items); err != nil {
		return nil, fmt.Errorf("buy: bad list: %w", err)
	}

	out := make([]domain.Proxy, 0, len(items))
	for _, it := range items {
		port, err := strconv.Atoi(it.Port.String())
		if err != nil {
			return nil, fmt.Errorf("buy: bad port %q: %w", it.Port.String(), err)
		}
		expires, err := time.Parse(dateEndLayout, it.DateEnd)
		if err != nil {
			return nil, fmt.Errorf("buy: bad date_end %q: %w", it.DateEnd, err)
		}
		out = append(out, domain.Proxy{
			IP:        it.IP,
			Host:      it.Host,
			Port:      port,
			Login:     it.User,
			Password:  it.Pass,
			Country:   country,
			Type:      it.Type,
			Version:   version,
			ExpiresAt: expires,
		})
	}
	return out, nil
}

// call performs one API request and unwraps the response envelope.
func (c *Client) call(ctx context.Context, method string, params url.Values) (*envelope, error) {
	u := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.apiKey, method, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", method, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cErr := classify(method, err)
		outcome := observability.OutcomeError
		if IsTimeout(cErr) {
			outcome = observability.OutcomeTimeout
		}
		observability.ProviderRequests.WithLabelValues(method, outcome).Inc()
		return nil, cErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.ProviderRequests.WithLabelValues(method, observability.OutcomeError).Inc()
		return nil, classify(method, err)
	}
	if resp.StatusCode != http.StatusOK {
		observability.ProviderRequests.WithLabelValues(method, observability.OutcomeError).Inc()
		return nil, fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		observability.ProviderRequests.WithLabelValues(method, observability.OutcomeError).Inc()
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}

	if env.Status != "yes" {
		observability.ProviderRequests.WithLabelValues(method, observability.OutcomeRejected).Inc()
		log.Warn().
			Str("method", method).
			Int("error_id", env.ErrorID).
			Str("error", env.Error).
			Msg("provider rejected request")
		return nil, &APIError{Code: env.ErrorID, Message: env.Error}
	}

	observability.ProviderRequests.WithLabelValues(method, observability.OutcomeOK).Inc()
	return &env, nil
}
