package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/ParcelBox/config"
	"github.com/BearBump/ParcelBox/internal/bootstrap"
	"github.com/BearBump/ParcelBox/internal/broker/kafka"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/services/orders"
	"github.com/BearBump/ParcelBox/internal/services/refresher"
	"github.com/BearBump/ParcelBox/internal/storage/rediskv"
)

type producer interface {
	refresher.Producer
	Close() error
}

type workerFactories struct {
	newKV          func(cfg *config.Config) (kv orders.KeyValueStore, closeFn func(), err error)
	newProducer    func(cfg *config.Config) producer
	newRateLimiter func(cfg *config.Config) (rl tracking.RateLimiter, closeFn func())
	newProvider    func(cfg *config.Config, rl tracking.RateLimiter, perMinute int64) tracking.Provider
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newKV: bootstrap.OpenKV,
		newProducer: func(cfg *config.Config) producer {
			return kafka.NewProducer(cfg.KafkaBrokers())
		},
		newRateLimiter: func(cfg *config.Config) (tracking.RateLimiter, func()) {
			if cfg.Redis.Host == "" {
				return nil, nil
			}
			s := rediskv.New(cfg.RedisAddr())
			return s, func() { _ = s.Close() }
		},
		newProvider: func(cfg *config.Config, rl tracking.RateLimiter, perMinute int64) tracking.Provider {
			return bootstrap.NewProvider(cfg, rl, perMinute).Provider
		},
	}
}

func plannerConfig(cfg *config.Config) refresher.PlannerConfig {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	pb := cfg.ParcelBox
	return refresher.PlannerConfig{
		DeliveredDelay:    sec(pb.WorkerNextCheckDeliveredSeconds),
		InTransitMinDelay: sec(pb.WorkerNextCheckInTransitMinSeconds),
		InTransitMaxDelay: sec(pb.WorkerNextCheckInTransitMaxSeconds),
		UnknownDelay:      sec(pb.WorkerNextCheckUnknownSeconds),
		Backoff1:          sec(pb.WorkerBackoff1Seconds),
		Backoff2:          sec(pb.WorkerBackoff2Seconds),
		Backoff3:          sec(pb.WorkerBackoff3Seconds),
		Backoff4:          sec(pb.WorkerBackoff4Seconds),
	}
}

func RunParcelWorker(ctx context.Context, cfg *config.Config, f workerFactories, swaggerPath string) error {
	pollInterval := time.Duration(cfg.ParcelBox.WorkerPollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	rlPerMin := int64(cfg.ParcelBox.WorkerRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 120
	}

	kv, closeKV, err := f.newKV(cfg)
	if err != nil {
		return err
	}
	if closeKV != nil {
		defer closeKV()
	}

	prod := f.newProducer(cfg)
	defer func() { _ = prod.Close() }()

	rl, closeRL := f.newRateLimiter(cfg)
	if closeRL != nil {
		defer closeRL()
	}
	provider := f.newProvider(cfg, rl, rlPerMin)
	store := bootstrap.NewStore(cfg, kv, provider)

	r := refresher.New(store, prod, cfg.OrderUpdatedTopic(), bootstrap.DefaultLocale(cfg)).
		WithSettings(pollInterval, 0, cfg.ParcelBox.EnrichConcurrency).
		WithPlanner(plannerConfig(cfg))

	go func() {
		err := runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:    cfg.ParcelBox.WorkerHTTPAddr,
			swaggerPath: swaggerPath,
			refresher:   r,
			cfg:         cfg,
		})
		if err != nil && ctx.Err() == nil {
			slog.Error("worker http server", "error", err.Error())
		}
	}()

	slog.Info("refresher started", "poll_interval", pollInterval.String(), "rate_limit_per_minute", rlPerMin)
	return r.Run(ctx)
}
