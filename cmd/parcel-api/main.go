package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	app, err := bootstrapParcelAPI(os.Getenv("configPath"), os.Getenv("swaggerPath"))
	if err != nil {
		slog.Error("bootstrap parcel-api", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("parcel-api stopped", "error", err.Error())
		os.Exit(1)
	}
}
