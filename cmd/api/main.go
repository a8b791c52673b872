package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/vadim/linkbrand/internal/app"
	"github.com/vadim/linkbrand/internal/config"
)

func main() {
	cfg := config.MustLoad()
	ctx := context.Background()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	// Run blocks until SIGINT/SIGTERM
	if err := application.Run(ctx); err != nil {
		slog.Error("application stopped with error", "error", err)
		os.Exit(1)
	}
}
