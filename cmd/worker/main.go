package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"career-backend/internal/bootstrap"
	"career-backend/internal/shared/config"
	"career-backend/internal/workerproc"
)

const (
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()
	cfg.Telemetry.Enabled = false
	cfg.Worker = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	concurrency := envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	receiver, closeReceiver, err := bootstrap.NewReceiver(ctx, cfg)
	if err != nil {
		log.Fatalf("build receiver: %v", err)
	}

	log.Printf("worker started sink=%s concurrency=%d", cfg.Telemetry.Sink, concurrency)
	consumer := &workerproc.Consumer{
		Receiver:    receiver,
		Repo:        app.GenerationsRepo,
		Concurrency: concurrency,
	}
	consumer.Run(ctx, shutdownTimeout)

	log.Printf("worker stopped")
	if err := closeReceiver(); err != nil {
		log.Printf("close receiver: %v", err)
	}
	if err := app.Close(context.Background()); err != nil {
		log.Printf("app close: %v", err)
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}
