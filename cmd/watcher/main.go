package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/adapters/backend"
	eventadapter "github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/adapters/events"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/config"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/service"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
	natsevents "github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/events/nats"
)

// watcher consome run.submitted e publica run.status até cada run terminar
func main() {
	cfg, err := config.Load()
	if err != nil {
		ctxlog.New(os.Stderr, "error").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := ctxlog.New(os.Stdout, cfg.App.LogLevel)
	if !cfg.NATS.Enabled() {
		logger.Error("watcher requires nats.url")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))
	defer cancel()

	// Infra
	natsBus, err := natsevents.New(natsevents.Config{
		URL:           cfg.NATS.URL,
		Name:          "atlas-run-watcher",
		MaxReconnects: cfg.NATS.MaxReconnects,
		SubjectPrefix: cfg.NATS.SubjectPrefix,
	})
	if err != nil {
		logger.Error("nats", "error", err)
		os.Exit(1)
	}
	if err := natsBus.SetupWorkflowStreams(); err != nil {
		logger.Error("streams", "error", err)
		os.Exit(1)
	}

	client := backend.New(backend.Config{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.Backend.Timeout(),
		APIToken: cfg.Backend.APIToken,
	})
	defer client.Close()

	// Adapters (conectam infra com core)
	eventBus := eventadapter.NewEventBus(natsBus)
	defer eventBus.Close()

	watcher := service.NewRunWatcher(client, eventBus, cfg.Poll.Interval())
	if err := eventBus.SubscribeRunSubmitted(ctx, watcher.Handle); err != nil {
		logger.Error("subscribe run.submitted", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("watcher started", "poll_interval", cfg.Poll.Interval())
	<-sigChan
	logger.Info("shutting down", "active_runs", watcher.Active())
	cancel()
	watcher.Wait()
}
