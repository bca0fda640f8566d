package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"segue/internal/config"
	"segue/internal/daemon"
	"segue/internal/logging"
	"segue/internal/ratings"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := ratings.Open(cfg)
	if err != nil {
		logger.Error("open ratings store", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("segued shutting down")
	d.Stop()
}
