package redis

import "time"

// Config holds Redis connection and retention settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// SessionTTL bounds how long closed-session records and their tap
	// logs stay readable before the external archival job owns them
	SessionTTL time.Duration

	// TapIndexRetention bounds the per-player tap index used for
	// recent-tap queries
	TapIndexRetention time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:               "redis://localhost:6379",
		PoolSize:          10,
		MinIdleConns:      2,
		SessionTTL:        72 * time.Hour,
		TapIndexRetention: 24 * time.Hour,
	}
}
