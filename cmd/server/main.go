package main

import (
	"context"
	"log/slog"
	"os"

	"commoni-api/internal/app"
	"commoni-api/internal/config"
	"commoni-api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.Level()
	slog.SetDefault(logger.New(os.Stdout, cfg.LogFormat, level))

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
