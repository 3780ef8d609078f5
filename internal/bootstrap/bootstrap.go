// Package bootstrap turns a loaded config into the shared pieces every ParcelBox binary needs.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BearBump/ParcelBox/config"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking/fake"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking/vanillahttp"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/services/orders"
	"github.com/BearBump/ParcelBox/internal/storage/memkv"
	"github.com/BearBump/ParcelBox/internal/storage/pgkv"
	"github.com/BearBump/ParcelBox/internal/storage/rediskv"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	ProviderVanilla = "vanilla"
	ProviderFake    = "fake"
)

// OpenKV opens the configured order storage backend. closeFn is never nil.
func OpenKV(cfg *config.Config) (kv orders.KeyValueStore, closeFn func(), err error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", BackendMemory:
		return memkv.New(), func() {}, nil
	case BackendRedis:
		st := rediskv.New(cfg.RedisAddr())
		return st, func() { _ = st.Close() }, nil
	case BackendPostgres:
		st, err := OpenPostgresWithRetry(cfg.PostgresDSN(), 60*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// OpenPostgresWithRetry keeps dialing until the database accepts connections or wait elapses.
func OpenPostgresWithRetry(connString string, wait time.Duration) (*pgkv.Storage, error) {
	deadline := time.Now().Add(wait)
	var lastErr error
	for {
		st, err := pgkv.New(connString)
		if err == nil {
			return st, nil
		}
		lastErr = err
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("postgres is not ready after %s: %w", wait, lastErr)
		}
		slog.Warn("postgres not ready, retrying", "error", err.Error())
		time.Sleep(time.Second)
	}
}

// Provider bundles the tracking provider with its carrier catalogue.
type Provider struct {
	tracking.Provider
	Carriers tracking.CarrierLister
	// Vanilla is set when the real HTTP client is in use.
	Vanilla *vanillahttp.Client
}

// NewProvider picks the provider from cfg.Provider.Mode. When rl is non-nil and
// perMinute is positive, lookups go through the rate limiter.
func NewProvider(cfg *config.Config, rl tracking.RateLimiter, perMinute int64) Provider {
	var p Provider
	switch strings.ToLower(cfg.Provider.Mode) {
	case ProviderFake:
		f := fake.New()
		p = Provider{Provider: f, Carriers: f}
	default:
		c := vanillahttp.New(cfg.Provider.BaseURL, time.Duration(cfg.Provider.TimeoutSeconds)*time.Second)
		p = Provider{Provider: c, Carriers: c, Vanilla: c}
	}
	p.Provider = tracking.RateLimited(p.Provider, rl, perMinute)
	return p
}

// DefaultLocale is used whenever a caller does not supply a usable locale.
func DefaultLocale(cfg *config.Config) models.Locale {
	return orders.ResolveLocale(models.Locale{
		Language: cfg.Provider.Language,
		Timezone: cfg.Provider.Timezone,
	}, models.Locale{Language: "en", Timezone: "UTC"})
}

func NewStore(cfg *config.Config, kv orders.KeyValueStore, provider tracking.Provider) *orders.Store {
	return orders.New(kv, provider, cfg.StorageKey()).WithConcurrency(cfg.ParcelBox.EnrichConcurrency)
}

// SetupLogger installs a JSON slog handler at the configured level as the default logger.
func SetupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	l := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(l)
	return l
}
