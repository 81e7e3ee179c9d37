package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetops/trailer-swap-api/internal/api"
	"github.com/fleetops/trailer-swap-api/internal/config"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)

	server, err := api.NewServer(cfg, log)

	if err != nil {
		log.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", "error", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown did not complete cleanly", "error", err)
		os.Exit(1)
	}

	log.Info("Shutdown complete")
}
