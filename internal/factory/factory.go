package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/idletap/tapgame-go/internal/cache"
	"github.com/idletap/tapgame-go/internal/dependencies/clock"
	"github.com/idletap/tapgame-go/internal/push"
	"github.com/idletap/tapgame-go/internal/rankstore"
	"github.com/idletap/tapgame-go/internal/rankstore/failover"
	rankmemory "github.com/idletap/tapgame-go/internal/rankstore/memory"
	rankredis "github.com/idletap/tapgame-go/internal/rankstore/redis"
	"github.com/idletap/tapgame-go/internal/services/anticheat"
	"github.com/idletap/tapgame-go/internal/services/leaderboard"
	"github.com/idletap/tapgame-go/internal/services/session"
	"github.com/idletap/tapgame-go/internal/storage"
	storagememory "github.com/idletap/tapgame-go/internal/storage/memory"
	storageredis "github.com/idletap/tapgame-go/internal/storage/redis"
)

// Backend type constants
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Stores
	RankStore rankstore.Store
	Cache     cache.Cache
	Storage   storage.Storage

	// Failover is non-nil in redis mode; the composition root starts
	// its reconnect probe and the health endpoint reads its mode
	Failover *failover.Store

	// External dependencies
	Clock clock.Clock

	// Services
	LeaderboardService *leaderboard.Service
	SessionTracker     *session.Tracker
	AntiCheatAnalyzer  *anticheat.Analyzer
	ProfileResolver    *leaderboard.StaticResolver
	Hub                *push.Hub
	Broadcaster        *push.Broadcaster

	redisClient *goredis.Client
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger

	// Backend selects the ranking/storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	Backend string

	// RedisURL and pool settings (required if Backend is "redis")
	RedisURL          string
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisOpTimeout    time.Duration

	// Service tuning (zero values take package defaults)
	Leaderboard leaderboard.Config
	AntiCheat   anticheat.Config
	Failover    failover.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()

	backend := cfg.Backend
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		return newWithDependencies(
			rankmemory.New(), nil,
			cache.NewMemory(clk),
			storagememory.New(),
			clk, cfg, logger,
		), nil

	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("RedisURL required when Backend is redis")
		}

		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		opts.PoolSize = cfg.RedisPoolSize
		opts.MinIdleConns = cfg.RedisMinIdleConns
		client := goredis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			// The backend may come up later; the failover store serves
			// from its fallback until the probe reconnects
			logger.Warn("redis unreachable at startup",
				slog.String("error", err.Error()))
		}

		rankCfg := rankredis.DefaultConfig()
		rankCfg.URL = cfg.RedisURL
		if cfg.RedisOpTimeout > 0 {
			rankCfg.OpTimeout = cfg.RedisOpTimeout
		}
		primary := rankredis.NewWithClient(client, rankCfg)

		foCfg := cfg.Failover
		if foCfg.FailureThreshold == 0 {
			foCfg = failover.DefaultConfig()
		}
		fo := failover.New(primary, rankmemory.New(), primary, clk, foCfg, logger)

		storageCfg := storageredis.DefaultConfig()
		storageCfg.URL = cfg.RedisURL
		store := storageredis.NewWithClient(client, storageCfg)

		app := newWithDependencies(
			fo, fo,
			cache.NewRedis(client),
			store,
			clk, cfg, logger,
		)
		app.redisClient = client
		return app, nil

	default:
		return nil, errors.New("invalid Backend: must be 'memory' or 'redis'")
	}
}

// newWithDependencies creates an App from pre-built stores
// (useful for testing)
func newWithDependencies(
	ranks rankstore.Store,
	fo *failover.Store,
	pageCache cache.Cache,
	store storage.Storage,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *App {
	hub := push.NewHub(logger)
	broadcaster := push.NewBroadcaster(hub, logger)
	resolver := leaderboard.NewStaticResolver()

	leaderboardService := leaderboard.New(ranks, pageCache, resolver, broadcaster, clk, cfg.Leaderboard, logger)
	tracker := session.NewTracker(store, clk, logger)
	analyzer := anticheat.New(store, clk, cfg.AntiCheat, logger)

	return &App{
		RankStore:          ranks,
		Cache:              pageCache,
		Storage:            store,
		Failover:           fo,
		Clock:              clk,
		LeaderboardService: leaderboardService,
		SessionTracker:     tracker,
		AntiCheatAnalyzer:  analyzer,
		ProfileResolver:    resolver,
		Hub:                hub,
		Broadcaster:        broadcaster,
	}
}

// Close releases backing connections and stops the failover probe
func (a *App) Close() error {
	if a.Failover != nil {
		a.Failover.Stop()
	}
	if a.redisClient != nil {
		return a.redisClient.Close()
	}
	return nil
}
