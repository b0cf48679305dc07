// Package config defines process configuration and its loading order:
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"log/slog"
	"time"
)

// Config contains process configuration
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error
	LogLevel string `koanf:"log_level"`

	// Host and Port configure the HTTP listen address
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Backend selects the ranking/storage backend ("memory" or "redis")
	Backend string `koanf:"backend"`

	// RedisURL is the Redis connection URL when Backend is "redis"
	RedisURL string `koanf:"redis_url"`

	// RedisPoolSize and RedisMinIdleConns tune the connection pool
	RedisPoolSize     int `koanf:"redis_pool_size"`
	RedisMinIdleConns int `koanf:"redis_min_idle_conns"`

	// RedisOpTimeoutMS bounds each rank store backend call
	RedisOpTimeoutMS int `koanf:"redis_op_timeout_ms"`

	// PageCacheTTLSeconds is the leaderboard page cache freshness
	PageCacheTTLSeconds int `koanf:"page_cache_ttl_seconds"`

	// MaxPageSize caps leaderboard page limits
	MaxPageSize int64 `koanf:"max_page_size"`

	// Failover flip policy
	FailoverThreshold     int `koanf:"failover_threshold"`
	FailoverWindowSeconds int `koanf:"failover_window_seconds"`
	ProbeIntervalSeconds  int `koanf:"probe_interval_seconds"`

	// BotTapsPerSecondLimit is the anti-cheat rate threshold
	BotTapsPerSecondLimit float64 `koanf:"bot_taps_per_second_limit"`

	// SessionIdleTimeoutMinutes closes sessions with no activity
	SessionIdleTimeoutMinutes int `koanf:"session_idle_timeout_minutes"`

	// SweepIntervalSeconds is the idle-session sweep cadence
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`
}

// Default returns the built-in configuration defaults
func Default() *Config {
	return &Config{
		LogLevel:                  "info",
		Host:                      "",
		Port:                      8080,
		Backend:                   "memory",
		RedisURL:                  "redis://localhost:6379",
		RedisPoolSize:             10,
		RedisMinIdleConns:         2,
		RedisOpTimeoutMS:          3000,
		PageCacheTTLSeconds:       30,
		MaxPageSize:               100,
		FailoverThreshold:         3,
		FailoverWindowSeconds:     30,
		ProbeIntervalSeconds:      10,
		BotTapsPerSecondLimit:     20,
		SessionIdleTimeoutMinutes: 30,
		SweepIntervalSeconds:      60,
	}
}

// RedisOpTimeout returns the backend call timeout as a duration
func (c *Config) RedisOpTimeout() time.Duration {
	return time.Duration(c.RedisOpTimeoutMS) * time.Millisecond
}

// FailoverWindow returns the failure moving window as a duration
func (c *Config) FailoverWindow() time.Duration {
	return time.Duration(c.FailoverWindowSeconds) * time.Second
}

// ProbeInterval returns the reconnect probe cadence as a duration
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalSeconds) * time.Second
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
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

// PageCacheTTL returns the page cache TTL as a duration
func (c *Config) PageCacheTTL() time.Duration {
	return time.Duration(c.PageCacheTTLSeconds) * time.Second
}

// SessionIdleTimeout returns the idle timeout as a duration
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutMinutes) * time.Minute
}

// SweepInterval returns the sweep cadence as a duration
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
