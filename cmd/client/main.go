package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolkovs/focuskeeper/internal/client/app"
	"github.com/avolkovs/focuskeeper/internal/client/config"
	"github.com/avolkovs/focuskeeper/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cfg := config.LoadConfig()

	a, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to initialize client", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		log.Error(ctx, "client exited with error", "error", err)
		os.Exit(1)
	}
}
