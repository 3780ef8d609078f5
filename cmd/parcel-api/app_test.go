package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/ParcelBox/internal/api/ordersapi"
	"github.com/BearBump/ParcelBox/internal/broker/kafka"
	"github.com/BearBump/ParcelBox/internal/broker/messages"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking/fake"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/services/orders"
	"github.com/BearBump/ParcelBox/internal/storage/memkv"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	updates []messages.OrderUpdated
	errs    chan error
}

func (c fakeConsumer) Consume(ctx context.Context, handler kafka.OrderUpdateHandler) error {
	for _, u := range c.updates {
		if err := handler(ctx, u); err != nil {
			c.errs <- err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

// flakyConsumer fails its first Consume call before reading anything.
type flakyConsumer struct {
	mu     sync.Mutex
	starts int
	update messages.OrderUpdated
}

func (c *flakyConsumer) Consume(ctx context.Context, handler kafka.OrderUpdateHandler) error {
	c.mu.Lock()
	c.starts++
	first := c.starts == 1
	c.mu.Unlock()
	if first {
		return errors.New("fetch message: broker unreachable")
	}
	if err := handler(ctx, c.update); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *flakyConsumer) startCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

type applierFunc func(ctx context.Context, msg messages.OrderUpdated) (bool, error)

func (f applierFunc) ApplyUpdate(ctx context.Context, msg messages.OrderUpdated) (bool, error) {
	return f(ctx, msg)
}

type fakeVersion struct {
	ok  bool
	err error
}

func (v fakeVersion) CheckAPIVersion(ctx context.Context, expected string) (bool, error) {
	return v.ok, v.err
}

func TestRunParcelAPI_ServesAndConsumes(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	store := orders.New(memkv.New(), fake.New(), "orders")
	_, err := store.Add(context.Background(), "AB123", "", "")
	require.NoError(t, err)

	upd := messages.OrderUpdated{
		EventID:        messages.NewEventID(),
		TrackingNumber: "AB123",
		CheckedAt:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Status:         models.OrderStatusDelivered,
		CarrierSlug:    "dhl",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := parcelAPIOpts{
		httpAddr:      "127.0.0.1:0",
		swaggerPath:   sw,
		topic:         "t",
		consumerGroup: "g",
		onListen:      func(httpAddr string) { addrCh <- httpAddr },
	}
	gone := messages.OrderUpdated{TrackingNumber: "GONE1", Status: models.OrderStatusDelivered}
	cons := fakeConsumer{updates: []messages.OrderUpdated{gone, upd}, errs: make(chan error, 2)}
	api := ordersapi.New(store, nil, models.Locale{Language: "en", Timezone: "UTC"})

	errCh := make(chan error, 1)
	go func() { errCh <- runParcelAPI(ctx, opts, api, store, cons) }()

	httpAddr := <-addrCh

	resp, err := http.Get("http://" + httpAddr + "/swagger.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"swagger"`)

	resp, err = http.Get("http://" + httpAddr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		o := store.Load(context.Background())
		return len(o) == 1 && o[0].Status == models.OrderStatusDelivered
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "assets/carriers-icons/dhl.webp", store.Load(context.Background())[0].IconPath)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.Empty(t, cons.errs)
}

func TestRunParcelAPI_MissingSwagger(t *testing.T) {
	store := orders.New(memkv.New(), fake.New(), "orders")
	err := runParcelAPI(context.Background(), parcelAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: filepath.Join(t.TempDir(), "nope.json"),
	}, ordersapi.New(store, nil, models.Locale{}), store, nil)
	require.Error(t, err)
}

func TestApplyUpdate(t *testing.T) {
	calls := 0
	ok := applierFunc(func(ctx context.Context, msg messages.OrderUpdated) (bool, error) {
		calls++
		return msg.TrackingNumber == "AB123", nil
	})
	ctx := context.Background()

	require.NoError(t, applyUpdate(ctx, ok, messages.OrderUpdated{TrackingNumber: "AB123"}))
	require.NoError(t, applyUpdate(ctx, ok, messages.OrderUpdated{TrackingNumber: "GONE1"}))
	require.Equal(t, 2, calls)

	want := errors.New("redis down")
	failing := applierFunc(func(ctx context.Context, msg messages.OrderUpdated) (bool, error) {
		return false, want
	})
	require.ErrorIs(t, applyUpdate(ctx, failing, messages.OrderUpdated{TrackingNumber: "AB123"}), want)
}

func TestRunConsumer_RestartsAfterReaderFailure(t *testing.T) {
	prev := consumerRestartDelay
	consumerRestartDelay = time.Millisecond
	t.Cleanup(func() { consumerRestartDelay = prev })

	store := orders.New(memkv.New(), fake.New(), "orders")
	_, err := store.Add(context.Background(), "AB123", "", "")
	require.NoError(t, err)

	cons := &flakyConsumer{update: messages.OrderUpdated{TrackingNumber: "AB123", Status: models.OrderStatusDelivered}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runConsumer(ctx, parcelAPIOpts{topic: "t"}, cons, store)
		close(done)
	}()

	require.Eventually(t, func() bool {
		o := store.Load(context.Background())
		return len(o) == 1 && o[0].Status == models.OrderStatusDelivered
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 2, cons.startCount())

	cancel()
	<-done
}

func TestCheckAPIVersion(t *testing.T) {
	require.True(t, checkAPIVersion(fakeVersion{ok: true}, "22.0.0"))
	require.False(t, checkAPIVersion(fakeVersion{ok: false}, "22.0.0"))
	require.False(t, checkAPIVersion(fakeVersion{err: errors.New("offline")}, "22.0.0"))
}

func TestBootstrapParcelAPI(t *testing.T) {
	_, err := bootstrapParcelAPI("", "")
	require.Error(t, err)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
storage:
  backend: memory
provider:
  mode: fake
  language: fr
parcelbox:
  http_addr: "127.0.0.1:0"
`), 0o600))

	app, err := bootstrapParcelAPI(cfgPath, "")
	require.NoError(t, err)
	defer app.Close()
	require.Nil(t, app.consumer)
	require.Equal(t, "127.0.0.1:0", app.opts.httpAddr)
	require.Equal(t, "parcel-api", app.opts.consumerGroup)
	require.Equal(t, "order.updated", app.opts.topic)
}
