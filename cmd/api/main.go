package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/adapters/backend"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/adapters/events"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/agents"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/api"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/config"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/service"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
	natsevents "github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/events/nats"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/store"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		ctxlog.New(os.Stderr, "error").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := ctxlog.New(os.Stdout, cfg.App.LogLevel)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	// Catálogos
	roster := agents.NewRegistry()
	agents.RegisterBuiltins(roster)
	registry := domain.NewRegistry(roster)
	editor := domain.NewEditor(registry)

	library, err := templates.New(editor)
	if err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	// Infra
	drafts, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open draft store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer drafts.Close()

	client := backend.New(backend.Config{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.Backend.Timeout(),
		APIToken: cfg.Backend.APIToken,
	})
	defer client.Close()

	var publisher ports.EventPublisher = events.Noop{}
	if cfg.NATS.Enabled() {
		logger.Info("connecting to NATS", "url", cfg.NATS.URL)
		natsBus, err := natsevents.New(natsevents.Config{
			URL:           cfg.NATS.URL,
			Name:          "atlas-workflows-api",
			MaxReconnects: cfg.NATS.MaxReconnects,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		})
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		if err := natsBus.SetupWorkflowStreams(); err != nil {
			logger.Error("failed to setup streams", "error", err)
			os.Exit(1)
		}
		bus := events.NewEventBus(natsBus)
		defer bus.Close()
		publisher = bus
	} else {
		logger.Warn("NATS disabled, events will not be published")
	}

	manager := service.NewManager(service.Deps{
		Editor:    editor,
		Validator: domain.NewValidator(registry),
		Backend:   client,
		Drafts:    drafts,
		Events:    publisher,
	}, library)

	server := api.NewServer(manager, roster, api.Options{
		Logger:       logger,
		PollInterval: cfg.Poll.Interval(),
	})

	srv := &http.Server{
		Addr:        ":" + cfg.App.Port,
		Handler:     server,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("could not gracefully shutdown the server", "error", err)
		}
		close(done)
	}()

	logger.Info("server is ready to handle requests", "addr", srv.Addr, "store", cfg.Store.Driver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("could not listen", "addr", srv.Addr, "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}
