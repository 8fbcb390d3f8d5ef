package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcarden/authgate/internal/api"
	"github.com/mcarden/authgate/internal/api/response"
	"github.com/mcarden/authgate/internal/api/stream"
	"github.com/mcarden/authgate/internal/config"
	"github.com/mcarden/authgate/internal/factory"
	"github.com/mcarden/authgate/internal/gate"
	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/services/identity"
	redisstorage "github.com/mcarden/authgate/internal/storage/redis"
)

func main() {
	configPath := flag.String("config", os.Getenv("AUTHGATE_CONFIG"), "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	// Build factory config
	factoryCfg := factory.Config{
		Logger:         logger,
		IdentityConfig: identity.Config{SessionTTL: cfg.Session.TTL.Std()},
		StorageType:    cfg.Storage.Type,
		CacheType:      cfg.Cache.Type,
		SQLitePath:     cfg.Cache.Path,
	}

	if cfg.Storage.Type == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.Redis.URL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// State stream hub for the navigation layer
	go app.Hub.Run()
	defer app.Hub.Close()

	// The gate redirects between landing and shell as the state resolves.
	// With no UI process attached the redirects land in the log.
	navGate := gate.New(&gate.LogRouter{Logger: logger}, logger)

	// Fan reconciled snapshots out to the gate and the SSE stream
	unsubscribe := app.Sessions.Subscribe(func(snap model.Snapshot) {
		navGate.Apply(snap)

		data, err := json.Marshal(response.StateFromSnapshot(snap))
		if err != nil {
			logger.Error("state encode error", slog.String("error", err.Error()))
			return
		}
		app.Hub.Broadcast(stream.FormatEvent("state", string(data)))
	})
	defer unsubscribe()

	// Start reconciling against the identity provider
	app.Sessions.Start(ctx)
	defer app.Sessions.Stop()

	// Sweep expired sessions in the background
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				app.Identity.CleanExpiredSessions()
			}
		}
	}()

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Sessions: app.Sessions,
		Revoker:  app.Identity,
		Hub:      app.Hub,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
