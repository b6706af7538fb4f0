package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16
	Gateway  GatewayConfig
	Catalog  CatalogConfig
	Cart     CartConfig
	Metrics  MetricsConfig
	CORS     CORSConfig
}

// GatewayConfig holds connection settings for the backend gateway.
// Every catalog and payment call is funneled through this single endpoint
// using the POST + targetMethod envelope.
type GatewayConfig struct {
	// BaseURL is the gateway origin, e.g. "http://localhost:8762".
	// Trailing slashes are stripped so paths can be concatenated directly.
	BaseURL string

	// TimeoutSeconds bounds each gateway call. The upstream services define
	// no timeout of their own, so this is the only thing standing between
	// a stuck facets call and an unbounded suspension.
	TimeoutSeconds uint16
}

// CatalogConfig holds tuning for the catalog query engine.
type CatalogConfig struct {
	// FacetsCacheTTLSeconds is how long a facet snapshot stays servable
	// without a network call. Absorbs rapid re-queries while typing.
	FacetsCacheTTLSeconds uint16

	// SuggestSize is the maximum number of suggestions requested from the
	// suggest endpoint during the zero-hit search fallback.
	SuggestSize int
}

// CartConfig selects the durable storage backing the cart.
type CartConfig struct {
	// Storage is "memory" or "redis".
	Storage string

	// RedisURL is the redis connection string, required when Storage is "redis".
	RedisURL string
}

type MetricsConfig struct {
	Namespace string
}

type CORSConfig struct {
	// AllowedOrigins for the browser frontend. "*" allows any origin.
	AllowedOrigins []string
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvInt("PORT", 3000),
		Gateway: GatewayConfig{
			BaseURL:        getEnv("GATEWAY_URL", "http://localhost:8762"),
			TimeoutSeconds: getEnvInt("GATEWAY_TIMEOUT_SECONDS", 10),
		},
		Catalog: CatalogConfig{
			FacetsCacheTTLSeconds: getEnvInt("FACETS_CACHE_TTL_SECONDS", 20),
			SuggestSize:           int(getEnvInt("SUGGEST_SIZE", 8)),
		},
		Cart: CartConfig{
			Storage:  getEnv("CART_STORAGE", "memory"),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Metrics: MetricsConfig{
			Namespace: getEnv("METRICS_NAMESPACE", "storefront"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "*")},
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Gateway.BaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_URL must be set")
	}

	if cfg.Cart.Storage != "memory" && cfg.Cart.Storage != "redis" {
		return nil, fmt.Errorf("CART_STORAGE must be one of: memory, redis (got %q)", cfg.Cart.Storage)
	}
	if cfg.Cart.Storage == "redis" && cfg.Cart.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL required when CART_STORAGE is redis")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}
