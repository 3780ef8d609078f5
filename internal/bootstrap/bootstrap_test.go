package bootstrap

import (
	"context"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/BearBump/ParcelBox/config"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking/fake"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking/vanillahttp"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/storage/memkv"
	"github.com/BearBump/ParcelBox/internal/storage/rediskv"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type nopRL struct{}

func (nopRL) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	return true, 1, nil
}

func TestOpenKV(t *testing.T) {
	kv, closeFn, err := OpenKV(&config.Config{})
	require.NoError(t, err)
	require.IsType(t, &memkv.Store{}, kv)
	closeFn()

	mr := miniredis.RunT(t)
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "redis"}}
	cfg.Redis.Host, cfg.Redis.Port = mr.Host(), mustPort(t, mr.Port())
	kv, closeFn, err = OpenKV(cfg)
	require.NoError(t, err)
	require.IsType(t, &rediskv.Store{}, kv)
	require.NoError(t, kv.Set(context.Background(), "orders", "[]"))
	v, ok, err := kv.Get(context.Background(), "orders")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", v)
	closeFn()

	_, _, err = OpenKV(&config.Config{Storage: config.StorageConfig{Backend: "etcd"}})
	require.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p := NewProvider(&config.Config{Provider: config.ProviderConfig{Mode: "fake"}}, nil, 0)
	require.IsType(t, &fake.Client{}, p.Provider)
	require.Nil(t, p.Vanilla)

	p = NewProvider(&config.Config{}, nil, 0)
	require.IsType(t, &vanillahttp.Client{}, p.Provider)
	require.NotNil(t, p.Vanilla)
	require.NotNil(t, p.Carriers)

	p = NewProvider(&config.Config{Provider: config.ProviderConfig{Mode: "fake"}}, nopRL{}, 10)
	_, isFake := p.Provider.(*fake.Client)
	require.False(t, isFake)
}

func TestDefaultLocale(t *testing.T) {
	require.Equal(t, models.Locale{Language: "en", Timezone: "UTC"}, DefaultLocale(&config.Config{}))

	cfg := &config.Config{Provider: config.ProviderConfig{Language: "fr", Timezone: "Europe/Paris"}}
	require.Equal(t, models.Locale{Language: "fr", Timezone: "Europe/Paris"}, DefaultLocale(cfg))
}

func TestNewStore(t *testing.T) {
	st := NewStore(&config.Config{}, memkv.New(), fake.New())
	added, err := st.Add(context.Background(), "AB123", "", "")
	require.NoError(t, err)
	require.True(t, added)
}

func TestSetupLogger(t *testing.T) {
	l := SetupLogger("debug")
	require.True(t, l.Enabled(context.Background(), slog.LevelDebug))
	l = SetupLogger("")
	require.False(t, l.Enabled(context.Background(), slog.LevelDebug))
	require.True(t, SetupLogger("error").Enabled(context.Background(), slog.LevelError))
}

func mustPort(t *testing.T, s string) int {
	t.Helper()
	p, err := strconv.Atoi(s)
	require.NoError(t, err)
	return p
}
