package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onlinestore/shopping-service/internal/outbox"
	outboxsqlite "github.com/onlinestore/shopping-service/internal/outbox/sqlite"
	"github.com/onlinestore/shopping-service/internal/pkg/broker"
	"github.com/onlinestore/shopping-service/internal/pkg/config"
	"github.com/onlinestore/shopping-service/internal/pkg/telemetry"
	"github.com/onlinestore/shopping-service/internal/shopping/app"
	"github.com/onlinestore/shopping-service/internal/shopping/infra/catalog"
	"github.com/onlinestore/shopping-service/internal/shopping/infra/httpx"
	shoppingmongo "github.com/onlinestore/shopping-service/internal/shopping/infra/mongo"
)

func main() {
	cfg := config.Load()
	telemetry.InitLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	mongoClient, err := mongodrv.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		slog.Error("failed to connect to mongo", "uri", cfg.MongoURI, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("mongo disconnect error", "error", err)
		}
	}()

	repo := shoppingmongo.NewRepository(mongoClient.Database(cfg.MongoDB))
	if err := repo.EnsureIndexes(ctx); err != nil {
		slog.Error("failed to ensure mongo indexes", "error", err)
		os.Exit(1)
	}

	messageBroker := broker.NewRedisBroker(cfg.RedisAddr, cfg.RPCTimeout)
	resolver := catalog.NewResolver(messageBroker, cfg.ProductRPCChannel)

	store, err := outboxsqlite.Open(cfg.OutboxPath)
	if err != nil {
		slog.Error("failed to open outbox", "path", cfg.OutboxPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	notifier := outbox.NewNotifier(store, cfg.EventChannels)
	dispatcher := outbox.NewDispatcher(store, messageBroker, cfg.OutboxInterval)
	go dispatcher.Run(ctx)

	// One explicitly constructed facade, injected into both the route layer
	// and the inbound broker subscription.
	service := app.NewService(repo, resolver, notifier)

	go func() {
		if err := messageBroker.Subscribe(ctx, cfg.InboundChannel, service.HandleBrokerMessage); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("broker subscription stopped", "channel", cfg.InboundChannel, "error", err)
		}
	}()

	handler := httpx.NewHandler(service)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpx.NewRouter(handler, cfg.AppSecret),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	slog.Info("shopping service running", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}
