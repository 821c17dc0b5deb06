package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/hub"
	"github.com/rupaya/live/pkg/logging"
)

func main() {
	cfg, err := parseHubConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.NewFromOptions(logging.Options{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		OutputFile:   cfg.Logging.OutputFile,
		EnableColors: true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	logConfig(logger, cfg)

	h := hub.NewHub(cfg.Hub.SendBuffer, logger)
	srv := hub.NewServer(h, hub.NewVerifier(cfg.Hub), hub.Options{
		PingInterval: cfg.Hub.PingInterval,
		WriteTimeout: cfg.Client.WriteTimeout,
	}, logger)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx, cfg.Hub.ListenAddr); err != nil {
		logger.ComponentError(logging.ComponentGeneral, "hub exited with error", zap.Error(err))
		os.Exit(1)
	}
}
