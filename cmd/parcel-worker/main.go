package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/ParcelBox/config"
	"github.com/BearBump/ParcelBox/internal/bootstrap"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		slog.Error("load config", "error", err.Error())
		os.Exit(1)
	}
	bootstrap.SetupLogger(cfg.Log.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = RunParcelWorker(ctx, cfg, defaultWorkerFactories(), os.Getenv("workerSwaggerPath"))
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("parcel-worker stopped", "error", err.Error())
		os.Exit(1)
	}
}
