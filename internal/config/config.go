// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// inventory provider, the payment gateway, persistence, purchase pacing,
// price caching, logging, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/avezhov/go-proxy-store/internal/sysutil"
)

// ProviderConfig defines settings for the external inventory provider
// (Proxy6-compatible API).
type ProviderConfig struct {
	BaseURL string        // PROVIDER_BASE_URL, e.g. "https://proxy6.net/api"
	APIKey  string        // PROVIDER_API_KEY
	Timeout time.Duration // PROVIDER_TIMEOUT per-request deadline
}

// GatewayConfig defines settings for the external payment gateway
// (YooKassa-compatible API).
type GatewayConfig struct {
	BaseURL   string        // GATEWAY_BASE_URL, e.g. "https://api.yookassa.ru/v3"
	ShopID    string        // GATEWAY_SHOP_ID (basic auth user)
	SecretKey string        // GATEWAY_SECRET_KEY (basic auth password)
	ReturnURL string        // GATEWAY_RETURN_URL redirect target after payment
	Currency  string        // GATEWAY_CURRENCY, e.g. "RUB"
	Timeout   time.Duration // GATEWAY_TIMEOUT per-request deadline
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Persistence
	DBPath string // SQLite path

	// Logging / ops surface
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev
	OpsPort   string // port for /healthz and /metrics

	// Purchase flow
	PriceCacheTTL time.Duration // how long a computed price stays valid
	PurchasePace  time.Duration // minimum gap between batch purchase calls
	MinCount      int           // floor for proxy quantity
	MinPeriod     int           // floor for rental period, days

	// External collaborators
	Provider ProviderConfig
	Gateway  GatewayConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from the environment (optionally seeded from a
// .env file), applies defaults, and validates the result.
func Load() (Config, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Config{
		DBPath: getenv("DB_PATH", "store.db"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),
		OpsPort:   getenv("OPS_PORT", "9090"),

		PriceCacheTTL: getdur("PRICE_CACHE_TTL", 24*time.Hour),
		PurchasePace:  getdur("PURCHASE_PACE", 500*time.Millisecond),
		MinCount:      getint("MIN_COUNT", 1),
		MinPeriod:     getint("MIN_PERIOD", 3),

		Provider: ProviderConfig{
			BaseURL: getenv("PROVIDER_BASE_URL", "https://proxy6.net/api"),
			APIKey:  getenv("PROVIDER_API_KEY", ""),
			Timeout: getdur("PROVIDER_TIMEOUT", 30*time.Second),
		},
		Gateway: GatewayConfig{
			BaseURL:   getenv("GATEWAY_BASE_URL", "https://api.yookassa.ru/v3"),
			ShopID:    getenv("GATEWAY_SHOP_ID", ""),
			SecretKey: getenv("GATEWAY_SECRET_KEY", ""),
			ReturnURL: getenv("GATEWAY_RETURN_URL", ""),
			Currency:  getenv("GATEWAY_CURRENCY", "RUB"),
			Timeout:   getdur("GATEWAY_TIMEOUT", 15*time.Second),
		},
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-proxy-store"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.OpsPort) == "" {
		return cfg, errors.New("OPS_PORT must not be empty")
	}
	if cfg.PriceCacheTTL <= 0 {
		return cfg, errors.New("PRICE_CACHE_TTL must be > 0")
	}
	if cfg.PurchasePace < 0 {
		return cfg, errors.New("PURCHASE_PACE must be >= 0")
	}
	if cfg.MinCount < 1 {
		return cfg, errors.New("MIN_COUNT must be >= 1")
	}
	if cfg.MinPeriod < 1 {
		return cfg, errors.New("MIN_PERIOD must be >= 1")
	}
	if strings.TrimSpace(cfg.Provider.BaseURL) == "" {
		return cfg, errors.New("PROVIDER_BASE_URL must not be empty")
	}
	if cfg.Provider.Timeout <= 0 || cfg.Gateway.Timeout <= 0 {
		return cfg, errors.New("provider and gateway timeouts must be positive durations")
	}
	if strings.TrimSpace(cfg.Gateway.BaseURL) == "" {
		return cfg, errors.New("GATEWAY_BASE_URL must not be empty")
	}
	if strings.TrimSpace(cfg.Gateway.Currency) == "" {
		return cfg, errors.New("GATEWAY_CURRENCY must not be empty")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return sysutil.IsTruthy(v)
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
