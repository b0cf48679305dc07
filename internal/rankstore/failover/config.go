package failover

import "time"

// Config tunes the fallback flip policy and reconnect probe
type Config struct {
	// FailureThreshold is how many primary failures within
	// FailureWindow flip the store into fallback mode
	FailureThreshold int
	FailureWindow    time.Duration

	// ProbeInterval is how often the probe pings a degraded backend;
	// ProbeTimeout bounds each ping
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

// DefaultConfig returns sensible defaults for the failover policy
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		FailureWindow:    30 * time.Second,
		ProbeInterval:    10 * time.Second,
		ProbeTimeout:     2 * time.Second,
	}
}

func (c Config) newTicker() *time.Ticker {
	interval := c.ProbeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return time.NewTicker(interval)
}
