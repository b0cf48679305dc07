package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/idletap/tapgame-go/internal/api"
	"github.com/idletap/tapgame-go/internal/config"
	"github.com/idletap/tapgame-go/internal/factory"
	"github.com/idletap/tapgame-go/internal/rankstore/failover"
	"github.com/idletap/tapgame-go/internal/scheduler"
	"github.com/idletap/tapgame-go/internal/services/anticheat"
	"github.com/idletap/tapgame-go/internal/services/leaderboard"
)

func main() {
	// Load configuration: defaults, optional YAML file, env overrides
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	foCfg := failover.DefaultConfig()
	foCfg.FailureThreshold = cfg.FailoverThreshold
	foCfg.FailureWindow = cfg.FailoverWindow()
	foCfg.ProbeInterval = cfg.ProbeInterval()

	// Create application factory
	app, err := factory.New(factory.Config{
		Logger:            logger,
		Backend:           cfg.Backend,
		RedisURL:          cfg.RedisURL,
		RedisPoolSize:     cfg.RedisPoolSize,
		RedisMinIdleConns: cfg.RedisMinIdleConns,
		RedisOpTimeout:    cfg.RedisOpTimeout(),
		Leaderboard: leaderboard.Config{
			PageTTL:     cfg.PageCacheTTL(),
			MaxPageSize: cfg.MaxPageSize,
		},
		AntiCheat: anticheat.Config{
			TapsPerSecondLimit: cfg.BotTapsPerSecondLimit,
		},
		Failover: foCfg,
	})
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	logger.Info("backend configured", slog.String("backend", cfg.Backend))

	// Start the push hub and the rank-store reconnect probe
	go app.Hub.Run()
	if app.Failover != nil {
		app.Failover.Start()
	}

	// Start rollover and idle-session maintenance
	sched := scheduler.New(
		app.LeaderboardService,
		app.SessionTracker,
		app.Clock,
		scheduler.Config{
			SweepInterval:      cfg.SweepInterval(),
			SessionIdleTimeout: cfg.SessionIdleTimeout(),
		},
		logger,
	)
	sched.Start()
	defer sched.Stop()

	// Create API router
	var degrader interface{ Degraded() bool }
	if app.Failover != nil {
		degrader = app.Failover
	}
	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		LeaderboardService: app.LeaderboardService,
		SessionTracker:     app.SessionTracker,
		AntiCheatAnalyzer:  app.AntiCheatAnalyzer,
		Hub:                app.Hub,
		Degrader:           degrader,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

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
