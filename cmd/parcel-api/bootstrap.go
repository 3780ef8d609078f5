package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/ParcelBox/config"
	"github.com/BearBump/ParcelBox/internal/api/ordersapi"
	"github.com/BearBump/ParcelBox/internal/bootstrap"
	"github.com/BearBump/ParcelBox/internal/broker/kafka"
	"github.com/BearBump/ParcelBox/internal/services/orders"
)

type parcelAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     parcelAPIOpts
	api      *ordersapi.OrdersAPI
	store    *orders.Store
	consumer *kafka.Consumer
	closeKV  func()
}

func bootstrapParcelAPI(cfgPath, swaggerPath string) (*parcelAPIApp, error) {
	if cfgPath == "" {
		return nil, fmt.Errorf("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	bootstrap.SetupLogger(cfg.Log.Level)

	httpAddr := cfg.ParcelBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.ParcelBox.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "parcel-api"
	}

	kv, closeKV, err := bootstrap.OpenKV(cfg)
	if err != nil {
		return nil, err
	}
	provider := bootstrap.NewProvider(cfg, nil, 0)
	store := bootstrap.NewStore(cfg, kv, provider)
	locale := bootstrap.DefaultLocale(cfg)

	if provider.Vanilla != nil && cfg.Provider.ExpectedAPIVersion != "" {
		checkAPIVersion(provider.Vanilla, cfg.Provider.ExpectedAPIVersion)
	}

	var consumer *kafka.Consumer
	if cfg.Kafka.Host != "" {
		consumer = kafka.NewConsumer(cfg.KafkaBrokers(), cfg.OrderUpdatedTopic(), consumerGroup)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &parcelAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: parcelAPIOpts{
			httpAddr:      httpAddr,
			swaggerPath:   swaggerPath,
			topic:         cfg.OrderUpdatedTopic(),
			consumerGroup: consumerGroup,
		},
		api:      ordersapi.New(store, provider.Carriers, locale),
		store:    store,
		consumer: consumer,
		closeKV:  closeKV,
	}, nil
}

type versionChecker interface {
	CheckAPIVersion(ctx context.Context, expected string) (bool, error)
}

// checkAPIVersion only warns: an outdated provider still answers most lookups.
func checkAPIVersion(c versionChecker, expected string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok, err := c.CheckAPIVersion(ctx, expected)
	if err != nil {
		slog.Warn("tracking provider version check failed", "error", err.Error())
		return false
	}
	if !ok {
		slog.Warn("tracking provider version mismatch", "expected", expected)
	}
	return ok
}

func (a *parcelAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.closeKV != nil {
		a.closeKV()
	}
}

func (a *parcelAPIApp) Run() error {
	var consumer kafkaConsumer
	if a.consumer != nil {
		consumer = a.consumer
	}
	return runParcelAPI(a.ctx, a.opts, a.api, a.store, consumer)
}
