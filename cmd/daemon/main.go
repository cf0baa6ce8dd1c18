package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/config"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/daemon"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/logging"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/webhooks"
)

func main() {
	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
	slog.Info("op daemon shutting down gracefully")
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("OP_CONFIG"))
	if err != nil {
		return err
	}

	closer, err := logging.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	logger := logging.Logger

	db, err := database.InitDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	dispatcher := webhooks.NewDispatcher(database.NewRepository(db), webhooks.Options{
		Timeout: cfg.Webhooks.Timeout,
		Rate:    cfg.Webhooks.Rate,
		Burst:   cfg.Webhooks.Burst,
		Logger:  logger.With("component", "webhooks"),
	})

	server, err := daemon.NewServer(cfg.Socket,
		daemon.WithLogger(logger.With("component", "daemon")),
		daemon.WithSink(dispatcher),
		daemon.WithMetricsAddr(cfg.Daemon.MetricsAddr),
	)
	if err != nil {
		return err
	}
	if err := server.Metrics().Register(dispatcher.Collectors()...); err != nil {
		_ = server.Shutdown()
		return err
	}

	logger.Info("op daemon starting",
		"socket_path", cfg.Socket,
		"metrics_addr", server.MetricsAddr(),
		"pid", os.Getpid(),
	)

	// Blocks until ctx is cancelled
	return server.Start(ctx)
}
