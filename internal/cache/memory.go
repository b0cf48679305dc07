package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/idletap/tapgame-go/internal/dependencies/clock"
)

// Memory is an in-process cache implementation. Expired entries are
// reaped lazily on access and opportunistically on writes.
type Memory struct {
	clock clock.Clock

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an empty in-process cache
func NewMemory(clk clock.Clock) *Memory {
	return &Memory{
		clock:   clk,
		entries: make(map[string]entry),
	}
}

// Ensure Memory implements the interface
var _ Cache = (*Memory)(nil)

func (c *Memory) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if c.clock.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, ErrMiss
	}
	return e.value, nil
}

func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Reap anything already expired while we hold the write lock
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *Memory) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}
