package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/ParcelBox/internal/api/ordersapi"
	"github.com/BearBump/ParcelBox/internal/broker/kafka"
	"github.com/BearBump/ParcelBox/internal/broker/messages"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type parcelAPIOpts struct {
	httpAddr    string
	swaggerPath string

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler kafka.OrderUpdateHandler) error
}

var consumerRestartDelay = 2 * time.Second

type updateApplier interface {
	ApplyUpdate(ctx context.Context, msg messages.OrderUpdated) (bool, error)
}

func runParcelAPI(ctx context.Context, opts parcelAPIOpts, api *ordersapi.OrdersAPI, applier updateApplier, consumer kafkaConsumer) error {
	if opts.swaggerPath != "" {
		if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
			return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
		}
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, api, opts.swaggerPath)
	}()

	if consumer != nil {
		go runConsumer(ctx, opts, consumer, applier)
	}

	select {
	case <-ctx.Done():
		<-httpErr
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}

// runConsumer re-enters Consume after reader failures until ctx is done.
func runConsumer(ctx context.Context, opts parcelAPIOpts, consumer kafkaConsumer, applier updateApplier) {
	handler := func(ctx context.Context, m messages.OrderUpdated) error {
		return applyUpdate(ctx, applier, m)
	}
	for {
		slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
		err := consumer.Consume(ctx, handler)
		if ctx.Err() != nil {
			return
		}
		slog.Error("kafka consumer stopped, restarting", "error", fmt.Sprint(err), "retry_in", consumerRestartDelay.String())

		t := time.NewTimer(consumerRestartDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// applyUpdate returns only storage failures; updates for orders that are gone are dropped.
func applyUpdate(ctx context.Context, applier updateApplier, m messages.OrderUpdated) error {
	found, err := applier.ApplyUpdate(ctx, m)
	if err != nil {
		return err
	}
	if !found {
		slog.Debug("order update for untracked order", "tracking_number", m.TrackingNumber)
	}
	return nil
}

func runHTTPServer(ctx context.Context, lis net.Listener, api *ordersapi.OrdersAPI, swaggerPath string) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if swaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, swaggerPath)
		})
		r.Get("/docs/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger.json"),
		))
	}

	api.Register(r)

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
